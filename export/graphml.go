package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"

	"street-network/algo"
	"street-network/model"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Data        []graphMLData `xml:"data"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

var (
	graphAttrs = []string{"crs", "name", "simplified"}
	nodeAttrs  = []string{"x", "y", "lon", "lat", "street_count", "highway", "ref"}
	edgeAttrs  = []string{"key", "osmid", "length", "highway", "name", "maxspeed", "lanes", "ref",
		"oneway", "reversed", "geometry", "speed_kph", "travel_time", "edge_centrality"}
)

// keyID GraphML key 编号，如 "n0"、"e3"
func keyID(prefix string, attrs []string, name string) string {
	for i, a := range attrs {
		if a == name {
			return fmt.Sprintf("%s%d", prefix, i)
		}
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatList 单值直接输出，多值输出 JSON 数组
func formatList[T any](values []T) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		return fmt.Sprint(values[0])
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var out []T
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return []T{v}, nil
}

func str(s string) (string, error) { return s, nil }

func int64Of(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// MarshalGraphML 将图编码为 GraphML，所有属性按字符串类型保存
func MarshalGraphML(g *algo.Graph) ([]byte, error) {
	doc := graphMLDoc{XMLNS: graphMLNamespace}
	for i, a := range graphAttrs {
		doc.Keys = append(doc.Keys, graphMLKey{ID: fmt.Sprintf("g%d", i), For: "graph", AttrName: a, AttrType: "string"})
	}
	for i, a := range nodeAttrs {
		doc.Keys = append(doc.Keys, graphMLKey{ID: fmt.Sprintf("n%d", i), For: "node", AttrName: a, AttrType: "string"})
	}
	for i, a := range edgeAttrs {
		doc.Keys = append(doc.Keys, graphMLKey{ID: fmt.Sprintf("e%d", i), For: "edge", AttrName: a, AttrType: "string"})
	}

	doc.Graph.EdgeDefault = "undirected"
	if g.Directed {
		doc.Graph.EdgeDefault = "directed"
	}
	doc.Graph.Data = []graphMLData{
		{Key: "g0", Value: g.CRS},
		{Key: "g1", Value: g.Name},
		{Key: "g2", Value: strconv.FormatBool(g.Simplified)},
	}

	nodes, edges, err := algo.ToTables(g)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		data := []graphMLData{
			{Key: "n0", Value: formatFloat(n.X)},
			{Key: "n1", Value: formatFloat(n.Y)},
		}
		if n.Lon != 0 || n.Lat != 0 {
			data = append(data,
				graphMLData{Key: "n2", Value: formatFloat(n.Lon)},
				graphMLData{Key: "n3", Value: formatFloat(n.Lat)})
		}
		data = append(data, graphMLData{Key: "n4", Value: strconv.Itoa(n.StreetCount)})
		if n.Highway != "" {
			data = append(data, graphMLData{Key: "n5", Value: n.Highway})
		}
		if n.Ref != "" {
			data = append(data, graphMLData{Key: "n6", Value: n.Ref})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{ID: strconv.FormatInt(n.ID, 10), Data: data})
	}

	for i, e := range edges {
		add := func(data []graphMLData, name, value string) []graphMLData {
			if value == "" {
				return data
			}
			return append(data, graphMLData{Key: keyID("e", edgeAttrs, name), Value: value})
		}
		var data []graphMLData
		data = add(data, "key", strconv.Itoa(e.Key))
		data = add(data, "osmid", formatList(e.OSMIDs))
		data = add(data, "length", formatFloat(e.Length))
		data = add(data, "highway", formatList(e.Highway))
		data = add(data, "name", formatList(e.Name))
		data = add(data, "maxspeed", formatList(e.MaxSpeed))
		data = add(data, "lanes", formatList(e.Lanes))
		data = add(data, "ref", formatList(e.Ref))
		data = add(data, "oneway", strconv.FormatBool(e.Oneway))
		data = add(data, "reversed", formatList(e.Reversed))
		data = add(data, "geometry", wkt.MarshalString(e.Geometry))
		if e.SpeedKPH > 0 {
			data = add(data, "speed_kph", formatFloat(e.SpeedKPH))
		}
		if e.TravelTime > 0 {
			data = add(data, "travel_time", formatFloat(e.TravelTime))
		}
		if e.Centrality > 0 {
			data = add(data, "edge_centrality", formatFloat(e.Centrality))
		}
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			ID:     strconv.Itoa(i),
			Source: strconv.FormatInt(e.U, 10),
			Target: strconv.FormatInt(e.V, 10),
			Data:   data,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("编码 GraphML 失败: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// SaveGraphML 保存图为 GraphML 文件
func SaveGraphML(g *algo.Graph, path string) error {
	data, err := MarshalGraphML(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// UnmarshalGraphML 解析 MarshalGraphML 生成的 GraphML
func UnmarshalGraphML(data []byte) (*algo.Graph, error) {
	var doc graphMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析 GraphML 失败: %w", err)
	}

	names := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		names[k.ID] = k.AttrName
	}
	attrs := func(data []graphMLData) map[string]string {
		m := make(map[string]string, len(data))
		for _, d := range data {
			m[names[d.Key]] = d.Value
		}
		return m
	}

	ga := attrs(doc.Graph.Data)
	meta := algo.GraphMeta{
		CRS:        ga["crs"],
		Name:       ga["name"],
		Directed:   doc.Graph.EdgeDefault != "undirected",
		Simplified: ga["simplified"] == "true",
	}

	nodes := make([]model.Node, 0, len(doc.Graph.Nodes))
	for _, gn := range doc.Graph.Nodes {
		id, err := strconv.ParseInt(gn.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("节点 ID %q 无效: %w", gn.ID, err)
		}
		a := attrs(gn.Data)
		n := model.Node{ID: id, Highway: a["highway"], Ref: a["ref"]}
		if err := parseFloats(a, map[string]*float64{"x": &n.X, "y": &n.Y, "lon": &n.Lon, "lat": &n.Lat}); err != nil {
			return nil, fmt.Errorf("节点 %d: %w", id, err)
		}
		if s := a["street_count"]; s != "" {
			if n.StreetCount, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("节点 %d street_count: %w", id, err)
			}
		}
		nodes = append(nodes, n)
	}

	edges := make([]model.Edge, 0, len(doc.Graph.Edges))
	for _, ge := range doc.Graph.Edges {
		e, err := parseEdge(ge, attrs(ge.Data))
		if err != nil {
			return nil, fmt.Errorf("边 %s: %w", ge.ID, err)
		}
		edges = append(edges, e)
	}
	return algo.FromTables(nodes, edges, meta)
}

func parseFloats(a map[string]string, fields map[string]*float64) error {
	for name, dst := range fields {
		s := a[name]
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = v
	}
	return nil
}

func parseEdge(ge graphMLEdge, a map[string]string) (model.Edge, error) {
	var e model.Edge
	var err error
	if e.U, err = int64Of(ge.Source); err != nil {
		return e, err
	}
	if e.V, err = int64Of(ge.Target); err != nil {
		return e, err
	}
	if s := a["key"]; s != "" {
		if e.Key, err = strconv.Atoi(s); err != nil {
			return e, err
		}
	}
	if e.OSMIDs, err = parseList(a["osmid"], int64Of); err != nil {
		return e, err
	}
	for name, dst := range map[string]*[]string{
		"highway": &e.Highway, "name": &e.Name, "maxspeed": &e.MaxSpeed, "lanes": &e.Lanes, "ref": &e.Ref,
	} {
		if *dst, err = parseList(a[name], str); err != nil {
			return e, fmt.Errorf("%s: %w", name, err)
		}
	}
	if e.Reversed, err = parseList(a["reversed"], strconv.ParseBool); err != nil {
		return e, err
	}
	e.Oneway = a["oneway"] == "true"
	if err := parseFloats(a, map[string]*float64{
		"length": &e.Length, "speed_kph": &e.SpeedKPH, "travel_time": &e.TravelTime, "edge_centrality": &e.Centrality,
	}); err != nil {
		return e, err
	}
	if s := a["geometry"]; s != "" {
		if e.Geometry, err = wkt.UnmarshalLineString(s); err != nil {
			return e, fmt.Errorf("geometry: %w", err)
		}
	}
	return e, nil
}

// LoadGraphML 读取 GraphML 文件
func LoadGraphML(path string) (*algo.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return UnmarshalGraphML(data)
}
