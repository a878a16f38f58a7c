package db

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/paulmach/orb/encoding/wkt"
	"gorm.io/gorm"

	"street-network/model"
)

// NetworkRecord 一次下载的路网
type NetworkRecord struct {
	gorm.Model
	Place       string `gorm:"index;not null"`
	NetworkType string `gorm:"not null"`
	CRS         string
	Directed    bool
	Simplified  bool
	NodeCount   int
	EdgeCount   int
}

// NodeRecord 节点表
type NodeRecord struct {
	ID          uint  `gorm:"primaryKey"`
	NetworkID   uint  `gorm:"index;not null"`
	OSMID       int64 `gorm:"column:osm_id;index"`
	X           float64
	Y           float64
	Lon         float64
	Lat         float64
	StreetCount int
	Highway     string
	Ref         string
}

// EdgeRecord 边表，多值属性存为数组列，几何存为 WKT
type EdgeRecord struct {
	ID         uint  `gorm:"primaryKey"`
	NetworkID  uint  `gorm:"index;not null"`
	U          int64 `gorm:"index"`
	V          int64
	Key        int
	OSMIDs     pq.Int64Array  `gorm:"column:osm_ids;type:bigint[]"`
	Length     float64
	Highway    pq.StringArray `gorm:"type:text[]"`
	Name       pq.StringArray `gorm:"type:text[]"`
	MaxSpeed   pq.StringArray `gorm:"type:text[]"`
	Lanes      pq.StringArray `gorm:"type:text[]"`
	Ref        pq.StringArray `gorm:"type:text[]"`
	Oneway     bool
	Reversed   pq.BoolArray `gorm:"type:boolean[]"`
	SpeedKPH   float64      `gorm:"column:speed_kph"`
	TravelTime float64
	Centrality float64
	Geometry   string `gorm:"type:text"`
}

// FeatureRecord 兴趣点表，标签存为 JSON
type FeatureRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Place       string `gorm:"index;not null"`
	ElementType string
	OSMID       int64  `gorm:"column:osm_id"`
	Name        string
	Tags        string `gorm:"type:text"`
	Geometry    string `gorm:"type:text"`
	Cluster     int
}

func nodeToRecord(networkID uint, n model.Node) NodeRecord {
	return NodeRecord{
		NetworkID:   networkID,
		OSMID:       n.ID,
		X:           n.X,
		Y:           n.Y,
		Lon:         n.Lon,
		Lat:         n.Lat,
		StreetCount: n.StreetCount,
		Highway:     n.Highway,
		Ref:         n.Ref,
	}
}

func recordToNode(r NodeRecord) model.Node {
	return model.Node{
		ID:          r.OSMID,
		X:           r.X,
		Y:           r.Y,
		Lon:         r.Lon,
		Lat:         r.Lat,
		StreetCount: r.StreetCount,
		Highway:     r.Highway,
		Ref:         r.Ref,
	}
}

func edgeToRecord(networkID uint, e model.Edge) EdgeRecord {
	r := EdgeRecord{
		NetworkID:  networkID,
		U:          e.U,
		V:          e.V,
		Key:        e.Key,
		OSMIDs:     pq.Int64Array(e.OSMIDs),
		Length:     e.Length,
		Highway:    pq.StringArray(e.Highway),
		Name:       pq.StringArray(e.Name),
		MaxSpeed:   pq.StringArray(e.MaxSpeed),
		Lanes:      pq.StringArray(e.Lanes),
		Ref:        pq.StringArray(e.Ref),
		Oneway:     e.Oneway,
		Reversed:   pq.BoolArray(e.Reversed),
		SpeedKPH:   e.SpeedKPH,
		TravelTime: e.TravelTime,
		Centrality: e.Centrality,
	}
	if len(e.Geometry) > 0 {
		r.Geometry = wkt.MarshalString(e.Geometry)
	}
	return r
}

func recordToEdge(r EdgeRecord) (model.Edge, error) {
	e := model.Edge{
		U:          r.U,
		V:          r.V,
		Key:        r.Key,
		OSMIDs:     []int64(r.OSMIDs),
		Length:     r.Length,
		Highway:    []string(r.Highway),
		Name:       []string(r.Name),
		MaxSpeed:   []string(r.MaxSpeed),
		Lanes:      []string(r.Lanes),
		Ref:        []string(r.Ref),
		Oneway:     r.Oneway,
		Reversed:   []bool(r.Reversed),
		SpeedKPH:   r.SpeedKPH,
		TravelTime: r.TravelTime,
		Centrality: r.Centrality,
	}
	if r.Geometry != "" {
		ls, err := wkt.UnmarshalLineString(r.Geometry)
		if err != nil {
			return e, fmt.Errorf("边 (%d, %d, %d) 几何无效: %w", r.U, r.V, r.Key, err)
		}
		e.Geometry = ls
	}
	return e, nil
}

func featureToRecord(place string, f model.Feature) (FeatureRecord, error) {
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return FeatureRecord{}, err
	}
	r := FeatureRecord{
		Place:       place,
		ElementType: f.ElementType,
		OSMID:       f.ID,
		Name:        f.Name(),
		Tags:        string(tags),
		Cluster:     f.Cluster,
	}
	if f.Geometry != nil {
		r.Geometry = wkt.MarshalString(f.Geometry)
	}
	return r, nil
}

func recordToFeature(r FeatureRecord) (model.Feature, error) {
	f := model.Feature{ElementType: r.ElementType, ID: r.OSMID, Cluster: r.Cluster}
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &f.Tags); err != nil {
			return f, fmt.Errorf("要素 %s 标签无效: %w", f.Key(), err)
		}
	}
	if r.Geometry != "" {
		g, err := wkt.Unmarshal(r.Geometry)
		if err != nil {
			return f, fmt.Errorf("要素 %s 几何无效: %w", f.Key(), err)
		}
		f.Geometry = g
	}
	return f, nil
}
