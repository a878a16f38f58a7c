package algo

import (
	"fmt"
	"sort"

	"street-network/model"

	"github.com/paulmach/orb"
)

// straightLine 两端点之间的直线几何
func straightLine(g *Graph, e *model.Edge) orb.LineString {
	u, v := g.Nodes[e.U], g.Nodes[e.V]
	return orb.LineString{{u.X, u.Y}, {v.X, v.Y}}
}

// EdgeGeometry 边的几何，没有折线时返回端点直线
func (g *Graph) EdgeGeometry(e *model.Edge) orb.LineString {
	if e.HasGeometry() {
		return e.Geometry
	}
	return straightLine(g, e)
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int64(nil), a...)
	y := append([]int64(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func reversedLine(ls orb.LineString) orb.LineString {
	r := ls.Clone()
	r.Reverse()
	return r
}

// isDuplicateEdge 两条边 OSM ID 相同且几何相同或互为反向
func isDuplicateEdge(a, b *model.Edge) bool {
	if !sameIDs(a.OSMIDs, b.OSMIDs) {
		return false
	}
	return a.Geometry.Equal(b.Geometry) || a.Geometry.Equal(reversedLine(b.Geometry))
}

// ToUndirected 转为无向多重图
// 同一道路的正反两条有向边合并为一条，几何缺失时补直线
func ToUndirected(g *Graph) *Graph {
	h := g.newLike()
	h.Directed = false
	for id, n := range g.Nodes {
		c := *n
		h.Nodes[id] = &c
	}

	for _, e := range g.Edges() {
		c := e.Clone()
		c.Geometry = g.EdgeGeometry(e).Clone()

		duplicate := false
		for _, existing := range h.EdgesBetween(c.U, c.V) {
			if isDuplicateEdge(c, existing) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			h.AddEdge(c)
		}
	}
	return h
}

// ToDigraph 转为有向简单图，平行边只保留权重最小的一条
func ToDigraph(g *Graph, weight string) (*Graph, error) {
	wf, err := WeightFunc(weight)
	if err != nil {
		return nil, err
	}

	h := g.newLike()
	h.Multi = false
	for id, n := range g.Nodes {
		c := *n
		h.Nodes[id] = &c
	}

	type uv struct{ u, v int64 }
	best := make(map[uv]*model.Edge)
	var order []uv
	for _, e := range g.Edges() {
		k := uv{e.U, e.V}
		if !g.Directed && e.U > e.V {
			k = uv{e.V, e.U}
		}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = e
			continue
		}
		if wf(e) < wf(cur) {
			best[k] = e
		}
	}

	for _, k := range order {
		c := best[k].Clone()
		c.Key = 0
		h.insertEdge(c)
	}
	return h, nil
}

// ToTables 将图拆成节点表和边表 (按 ID / u,v,key 排序)，边几何补全为折线
func ToTables(g *Graph) ([]model.Node, []model.Edge, error) {
	if len(g.Nodes) == 0 || g.NumEdges() == 0 {
		return nil, nil, ErrEmptyGraph
	}

	nodes := make([]model.Node, 0, len(g.Nodes))
	for _, id := range g.NodeIDs() {
		nodes = append(nodes, *g.Nodes[id])
	}

	edges := make([]model.Edge, 0, g.NumEdges())
	for _, e := range g.Edges() {
		c := e.Clone()
		c.Geometry = g.EdgeGeometry(e).Clone()
		edges = append(edges, *c)
	}
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.U != b.U {
			return a.U < b.U
		}
		if a.V != b.V {
			return a.V < b.V
		}
		return a.Key < b.Key
	})
	return nodes, edges, nil
}

// GraphMeta 从表格重建图时使用的图属性
type GraphMeta struct {
	CRS        string
	Name       string
	Directed   bool
	Simplified bool
}

// Meta 返回图属性
func (g *Graph) Meta() GraphMeta {
	return GraphMeta{CRS: g.CRS, Name: g.Name, Directed: g.Directed, Simplified: g.Simplified}
}

// FromTables 由节点表和边表重建多重图
// 边引用了不存在的节点时报错
func FromTables(nodes []model.Node, edges []model.Edge, meta GraphMeta) (*Graph, error) {
	g := NewGraph()
	if meta.CRS != "" {
		g.CRS = meta.CRS
	}
	g.Name = meta.Name
	g.Directed = meta.Directed
	g.Simplified = meta.Simplified

	for i := range nodes {
		n := nodes[i]
		g.AddNode(&n)
	}
	for i := range edges {
		e := edges[i].Clone()
		if g.Nodes[e.U] == nil || g.Nodes[e.V] == nil {
			return nil, fmt.Errorf("边 (%d, %d, %d): %w", e.U, e.V, e.Key, ErrNodeNotFound)
		}
		g.insertEdge(e)
	}
	return g, nil
}
