package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucsky/cuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"

	"street-network/algo"
	"street-network/model"
)

// 表格主题
const (
	TopicNodes    = "nodes"
	TopicEdges    = "edges"
	TopicFeatures = "features"
	TopicRoutes   = "routes"
)

// NewRunID 一次导出的唯一编号
func NewRunID() string {
	return cuid.New()
}

// NodeRow 节点表行
type NodeRow struct {
	RunID       string  `json:"run_id" parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OSMID       int64   `json:"osmid" parquet:"name=osmid, type=INT64"`
	X           float64 `json:"x" parquet:"name=x, type=DOUBLE"`
	Y           float64 `json:"y" parquet:"name=y, type=DOUBLE"`
	Lon         float64 `json:"lon" parquet:"name=lon, type=DOUBLE"`
	Lat         float64 `json:"lat" parquet:"name=lat, type=DOUBLE"`
	StreetCount int64   `json:"street_count" parquet:"name=street_count, type=INT64"`
	Highway     string  `json:"highway" parquet:"name=highway, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ref         string  `json:"ref" parquet:"name=ref, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// EdgeRow 边表行，多值属性以 ";" 连接，几何为 WKT
type EdgeRow struct {
	RunID      string  `json:"run_id" parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	U          int64   `json:"u" parquet:"name=u, type=INT64"`
	V          int64   `json:"v" parquet:"name=v, type=INT64"`
	Key        int64   `json:"key" parquet:"name=key, type=INT64"`
	OSMID      string  `json:"osmid" parquet:"name=osmid, type=BYTE_ARRAY, convertedtype=UTF8"`
	Length     float64 `json:"length" parquet:"name=length, type=DOUBLE"`
	Highway    string  `json:"highway" parquet:"name=highway, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name       string  `json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	MaxSpeed   string  `json:"maxspeed" parquet:"name=maxspeed, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lanes      string  `json:"lanes" parquet:"name=lanes, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ref        string  `json:"ref" parquet:"name=ref, type=BYTE_ARRAY, convertedtype=UTF8"`
	Oneway     bool    `json:"oneway" parquet:"name=oneway, type=BOOLEAN"`
	Reversed   string  `json:"reversed" parquet:"name=reversed, type=BYTE_ARRAY, convertedtype=UTF8"`
	SpeedKPH   float64 `json:"speed_kph" parquet:"name=speed_kph, type=DOUBLE"`
	TravelTime float64 `json:"travel_time" parquet:"name=travel_time, type=DOUBLE"`
	Centrality float64 `json:"edge_centrality" parquet:"name=edge_centrality, type=DOUBLE"`
	Geometry   string  `json:"geometry" parquet:"name=geometry, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// FeatureRow 兴趣点表行，坐标为点或面质心
type FeatureRow struct {
	RunID       string  `json:"run_id" parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElementType string  `json:"element_type" parquet:"name=element_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	OSMID       int64   `json:"osmid" parquet:"name=osmid, type=INT64"`
	Name        string  `json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lon         float64 `json:"lon" parquet:"name=lon, type=DOUBLE"`
	Lat         float64 `json:"lat" parquet:"name=lat, type=DOUBLE"`
	Cluster     int64   `json:"cluster" parquet:"name=cluster, type=INT64"`
	Geometry    string  `json:"geometry" parquet:"name=geometry, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tags        string  `json:"tags" parquet:"name=tags, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// RouteRow 路径段表行
type RouteRow struct {
	RunID      string  `json:"run_id" parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Step       int64   `json:"step" parquet:"name=step, type=INT64"`
	From       int64   `json:"from" parquet:"name=from, type=INT64"`
	To         int64   `json:"to" parquet:"name=to, type=INT64"`
	Key        int64   `json:"key" parquet:"name=key, type=INT64"`
	Name       string  `json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Length     float64 `json:"length" parquet:"name=length, type=DOUBLE"`
	TravelTime float64 `json:"travel_time" parquet:"name=travel_time, type=DOUBLE"`
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ";")
}

func joinBools(values []bool) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ";")
}

// NodeRows 节点表
func NodeRows(runID string, nodes []model.Node) []NodeRow {
	rows := make([]NodeRow, len(nodes))
	for i, n := range nodes {
		rows[i] = NodeRow{
			RunID: runID, OSMID: n.ID, X: n.X, Y: n.Y, Lon: n.Lon, Lat: n.Lat,
			StreetCount: int64(n.StreetCount), Highway: n.Highway, Ref: n.Ref,
		}
	}
	return rows
}

// EdgeRows 边表
func EdgeRows(runID string, edges []model.Edge) []EdgeRow {
	rows := make([]EdgeRow, len(edges))
	for i, e := range edges {
		row := EdgeRow{
			RunID: runID, U: e.U, V: e.V, Key: int64(e.Key),
			OSMID:      joinInts(e.OSMIDs),
			Length:     e.Length,
			Highway:    strings.Join(e.Highway, ";"),
			Name:       strings.Join(e.Name, ";"),
			MaxSpeed:   strings.Join(e.MaxSpeed, ";"),
			Lanes:      strings.Join(e.Lanes, ";"),
			Ref:        strings.Join(e.Ref, ";"),
			Oneway:     e.Oneway,
			Reversed:   joinBools(e.Reversed),
			SpeedKPH:   e.SpeedKPH,
			TravelTime: e.TravelTime,
			Centrality: e.Centrality,
		}
		if len(e.Geometry) > 0 {
			row.Geometry = wkt.MarshalString(e.Geometry)
		}
		rows[i] = row
	}
	return rows
}

// FeatureRows 兴趣点表
func FeatureRows(runID string, features []model.Feature) []FeatureRow {
	rows := make([]FeatureRow, 0, len(features))
	for _, f := range features {
		row := FeatureRow{
			RunID: runID, ElementType: f.ElementType, OSMID: f.ID,
			Name: f.Name(), Cluster: int64(f.Cluster),
		}
		if f.Geometry != nil {
			var c orb.Point
			if pt, ok := f.Geometry.(orb.Point); ok {
				c = pt
			} else {
				c, _ = planar.CentroidArea(f.Geometry)
			}
			row.Lon, row.Lat = c.Lon(), c.Lat()
			row.Geometry = wkt.MarshalString(f.Geometry)
		}
		if tags, err := json.Marshal(f.Tags); err == nil {
			row.Tags = string(tags)
		}
		rows = append(rows, row)
	}
	return rows
}

// RouteRows 路径段表
func RouteRows(runID string, result algo.PathResult) []RouteRow {
	rows := make([]RouteRow, len(result.Segments))
	for i, s := range result.Segments {
		rows[i] = RouteRow{
			RunID: runID, Step: int64(i), From: s.From, To: s.To, Key: int64(s.Key),
			Name: strings.Join(s.Name, ";"), Length: s.Length, TravelTime: s.TravelTime,
		}
	}
	return rows
}

// writeRows 逐行 JSON 编码后写入
func writeRows[T any](dest Destination, topic string, rows []T) error {
	for i, row := range rows {
		msg, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("编码第 %d 行失败: %w", i, err)
		}
		if err := dest.WriteMessage(topic, msg); err != nil {
			return fmt.Errorf("写入 %s 第 %d 行失败: %w", topic, i, err)
		}
	}
	return nil
}

// WriteTables 写出节点表和边表
func WriteTables(dest Destination, runID string, nodes []model.Node, edges []model.Edge) error {
	if err := writeRows(dest, TopicNodes, NodeRows(runID, nodes)); err != nil {
		return err
	}
	return writeRows(dest, TopicEdges, EdgeRows(runID, edges))
}

// WriteFeatures 写出兴趣点表
func WriteFeatures(dest Destination, runID string, features []model.Feature) error {
	return writeRows(dest, TopicFeatures, FeatureRows(runID, features))
}

// WriteRoute 写出路径段表
func WriteRoute(dest Destination, runID string, result algo.PathResult) error {
	return writeRows(dest, TopicRoutes, RouteRows(runID, result))
}
