package export

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"

	"street-network/algo"
	"street-network/utils"
)

// GeoPackage 文件头标识 ("GPKG") 和规范版本
const (
	gpkgApplicationID = 1196444487
	gpkgUserVersion   = 10300
)

var gpkgSchema = []string{
	`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL PRIMARY KEY,
		organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL,
		definition TEXT NOT NULL,
		description TEXT)`,
	`CREATE TABLE gpkg_contents (
		table_name TEXT NOT NULL PRIMARY KEY,
		data_type TEXT NOT NULL,
		identifier TEXT UNIQUE,
		description TEXT DEFAULT '',
		last_change DATETIME NOT NULL,
		min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
		srs_id INTEGER REFERENCES gpkg_spatial_ref_sys(srs_id))`,
	`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL,
		z TINYINT NOT NULL,
		m TINYINT NOT NULL,
		CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name))`,
	`CREATE TABLE nodes (
		fid INTEGER PRIMARY KEY AUTOINCREMENT,
		geom POINT,
		osmid INTEGER NOT NULL,
		x REAL, y REAL,
		lon REAL, lat REAL,
		street_count INTEGER,
		highway TEXT,
		ref TEXT)`,
	`CREATE TABLE edges (
		fid INTEGER PRIMARY KEY AUTOINCREMENT,
		geom LINESTRING,
		u INTEGER NOT NULL,
		v INTEGER NOT NULL,
		key INTEGER NOT NULL,
		osmid TEXT,
		length REAL,
		highway TEXT,
		name TEXT,
		maxspeed TEXT,
		lanes TEXT,
		ref TEXT,
		oneway INTEGER,
		reversed TEXT,
		speed_kph REAL,
		travel_time REAL,
		edge_centrality REAL)`,
}

// srsID 坐标系在 gpkg_spatial_ref_sys 中的编号 (EPSG 代码)
func srsID(crs string) (int, error) {
	code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(crs), "EPSG:"))
	if err != nil {
		return 0, fmt.Errorf("无法识别坐标系 %q: %w", crs, err)
	}
	return code, nil
}

// gpkgGeometry 生成 GeoPackage 几何 BLOB: GP 头 + 包围盒 + WKB (小端)
func gpkgGeometry(g orb.Geometry, srs int) ([]byte, error) {
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	b := g.Bound()

	var buf bytes.Buffer
	buf.WriteString("GP")
	buf.WriteByte(0)    // 版本
	buf.WriteByte(0x03) // xy 包围盒 + 小端
	_ = binary.Write(&buf, binary.LittleEndian, int32(srs))
	for _, v := range []float64{b.Min.X(), b.Max.X(), b.Min.Y(), b.Max.Y()} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// ParseGPKGGeometry 解析 GeoPackage 几何 BLOB
func ParseGPKGGeometry(blob []byte) (orb.Geometry, int, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, 0, errors.New("不是 GeoPackage 几何")
	}
	flags := blob[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 == 1 {
		order = binary.LittleEndian
	}
	srs := int(int32(order.Uint32(blob[4:8])))

	envelopeBytes := map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}
	n, ok := envelopeBytes[(flags>>1)&0x07]
	if !ok || len(blob) < 8+n {
		return nil, 0, errors.New("GeoPackage 几何头损坏")
	}
	g, err := wkb.Unmarshal(blob[8+n:])
	if err != nil {
		return nil, 0, err
	}
	return g, srs, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0 && !math.IsNaN(v)}
}

// SaveGeoPackage 保存为 GeoPackage: nodes (POINT) 和 edges (LINESTRING) 两个图层
// 已存在的文件会被覆盖
func SaveGeoPackage(g *algo.Graph, path string) error {
	srs, err := srsID(g.CRS)
	if err != nil {
		return err
	}
	nodes, edges, err := algo.ToTables(g)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除旧文件失败: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("打开 GeoPackage 失败: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range append([]string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
	}, gpkgSchema...) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("创建 GeoPackage 表失败: %w", err)
		}
	}

	srsName := g.CRS
	if utils.IsGeographic(g.CRS) {
		srsName = "WGS 84 geodetic"
	}
	srsRows := [][]any{
		{"Undefined cartesian SRS", -1, "NONE", -1, "undefined", "undefined cartesian coordinate reference system"},
		{"Undefined geographic SRS", 0, "NONE", 0, "undefined", "undefined geographic coordinate reference system"},
		{srsName, srs, "EPSG", srs, "undefined", g.CRS},
	}
	for _, row := range srsRows {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO gpkg_spatial_ref_sys VALUES (?, ?, ?, ?, ?, ?)`, row...); err != nil {
			return fmt.Errorf("写入坐标系失败: %w", err)
		}
	}

	var nodeBound, edgeBound orb.Bound
	for i, n := range nodes {
		pt := orb.Point{n.X, n.Y}
		if i == 0 {
			nodeBound = pt.Bound()
		} else {
			nodeBound = nodeBound.Extend(pt)
		}
		geom, err := gpkgGeometry(pt, srs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO nodes (geom, osmid, x, y, lon, lat, street_count, highway, ref) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			geom, n.ID, n.X, n.Y, n.Lon, n.Lat, n.StreetCount, n.Highway, n.Ref,
		); err != nil {
			return fmt.Errorf("写入节点 %d 失败: %w", n.ID, err)
		}
	}
	for i, e := range edges {
		if i == 0 {
			edgeBound = e.Geometry.Bound()
		} else {
			edgeBound = edgeBound.Union(e.Geometry.Bound())
		}
		geom, err := gpkgGeometry(e.Geometry, srs)
		if err != nil {
			return err
		}
		oneway := 0
		if e.Oneway {
			oneway = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO edges (geom, u, v, key, osmid, length, highway, name, maxspeed, lanes, ref, oneway, reversed, speed_kph, travel_time, edge_centrality)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			geom, e.U, e.V, e.Key, formatList(e.OSMIDs), e.Length,
			formatList(e.Highway), formatList(e.Name), formatList(e.MaxSpeed), formatList(e.Lanes), formatList(e.Ref),
			oneway, formatList(e.Reversed),
			nullFloat(e.SpeedKPH), nullFloat(e.TravelTime), nullFloat(e.Centrality),
		); err != nil {
			return fmt.Errorf("写入边 (%d, %d, %d) 失败: %w", e.U, e.V, e.Key, err)
		}
	}

	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	layers := []struct {
		table, geomType string
		bound           orb.Bound
	}{
		{"nodes", "POINT", nodeBound},
		{"edges", "LINESTRING", edgeBound},
	}
	for _, l := range layers {
		if _, err := tx.Exec(
			`INSERT INTO gpkg_contents VALUES (?, 'features', ?, '', ?, ?, ?, ?, ?, ?)`,
			l.table, l.table, now, l.bound.Min.X(), l.bound.Min.Y(), l.bound.Max.X(), l.bound.Max.Y(), srs,
		); err != nil {
			return fmt.Errorf("写入图层信息失败: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', ?, ?, 0, 0)`, l.table, l.geomType, srs,
		); err != nil {
			return fmt.Errorf("写入几何列信息失败: %w", err)
		}
	}
	return tx.Commit()
}
