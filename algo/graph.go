package algo

import (
	"errors"
	"sort"

	"street-network/model"
	"street-network/utils"
)

var (
	// ErrNodeNotFound 节点不在图中
	ErrNodeNotFound = errors.New("节点不存在")
	// ErrNotProjected 操作要求投影坐标系
	ErrNotProjected = errors.New("图未投影到平面坐标系")
	// ErrEmptyGraph 图中没有节点或边
	ErrEmptyGraph = errors.New("图中没有节点或边")
)

// Graph 路网多重图
// Directed 为 false 时表示无向多重图，边只存一份，邻接查询时两端都可达
type Graph struct {
	Nodes   map[int64]*model.Node   // 节点字典 (ID -> Node)
	AdjList map[int64][]*model.Edge // 出边表 (ID -> 边列表)
	InList  map[int64][]*model.Edge // 入边表 (ID -> 边列表)

	CRS        string // 坐标参考系，如 "EPSG:4326"
	Directed   bool
	Multi      bool
	Simplified bool
	Name       string

	edges []*model.Edge // 按加入顺序保存，保证遍历稳定
}

// NewGraph 创建一个空的有向多重图 (WGS84 坐标)
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[int64]*model.Node),
		AdjList:  make(map[int64][]*model.Edge),
		InList:   make(map[int64][]*model.Edge),
		CRS:      utils.CRSWGS84,
		Directed: true,
		Multi:    true,
	}
}

// newLike 创建与 g 元数据相同的空图
func (g *Graph) newLike() *Graph {
	h := NewGraph()
	h.CRS = g.CRS
	h.Directed = g.Directed
	h.Multi = g.Multi
	h.Simplified = g.Simplified
	h.Name = g.Name
	return h
}

// AddNode 加入节点，已存在时覆盖属性
func (g *Graph) AddNode(n *model.Node) {
	g.Nodes[n.ID] = n
}

// AddEdge 加入一条边，Key 自动取 u->v 间未使用的最小编号
func (g *Graph) AddEdge(e *model.Edge) int {
	used := make(map[int]bool)
	for _, existing := range g.EdgesBetween(e.U, e.V) {
		used[existing.Key] = true
	}
	key := 0
	for used[key] {
		key++
	}
	e.Key = key
	g.insertEdge(e)
	return key
}

// insertEdge 按原 Key 加入边
func (g *Graph) insertEdge(e *model.Edge) {
	g.AdjList[e.U] = append(g.AdjList[e.U], e)
	g.InList[e.V] = append(g.InList[e.V], e)
	g.edges = append(g.edges, e)
}

// Edges 所有边 (加入顺序)
func (g *Graph) Edges() []*model.Edge {
	return g.edges
}

// NumEdges 边数
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// NodeIDs 按 ID 升序返回所有节点
func (g *Graph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EdgesBetween u 与 v 之间的边，无向图两个方向都算
func (g *Graph) EdgesBetween(u, v int64) []*model.Edge {
	var out []*model.Edge
	for _, e := range g.AdjList[u] {
		if e.V == v {
			out = append(out, e)
		}
	}
	if !g.Directed && u != v {
		for _, e := range g.AdjList[v] {
			if e.V == u {
				out = append(out, e)
			}
		}
	}
	return out
}

// GetNeighbors 获取节点可通行的边，无向图包含入边
func (g *Graph) GetNeighbors(nodeID int64) []*model.Edge {
	if g.Directed {
		return g.AdjList[nodeID]
	}
	out := append([]*model.Edge(nil), g.AdjList[nodeID]...)
	for _, e := range g.InList[nodeID] {
		if e.U != e.V {
			out = append(out, e)
		}
	}
	return out
}

// Other 返回边在 from 另一端的节点
func Other(e *model.Edge, from int64) int64 {
	if e.U == from {
		return e.V
	}
	return e.U
}

// OutDegree 出度 (含平行边)
func (g *Graph) OutDegree(id int64) int {
	return len(g.AdjList[id])
}

// InDegree 入度 (含平行边)
func (g *Graph) InDegree(id int64) int {
	return len(g.InList[id])
}

// Successors 去重后的后继节点 (升序)
func (g *Graph) Successors(id int64) []int64 {
	return uniqueSorted(g.AdjList[id], func(e *model.Edge) int64 { return e.V })
}

// Predecessors 去重后的前驱节点 (升序)
func (g *Graph) Predecessors(id int64) []int64 {
	return uniqueSorted(g.InList[id], func(e *model.Edge) int64 { return e.U })
}

func uniqueSorted(edges []*model.Edge, pick func(*model.Edge) int64) []int64 {
	seen := make(map[int64]bool, len(edges))
	var out []int64
	for _, e := range edges {
		id := pick(e)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemoveNodes 删除节点及其关联的边
func (g *Graph) RemoveNodes(ids map[int64]bool) {
	if len(ids) == 0 {
		return
	}
	for id := range ids {
		delete(g.Nodes, id)
		delete(g.AdjList, id)
		delete(g.InList, id)
	}
	keep := func(e *model.Edge) bool { return !ids[e.U] && !ids[e.V] }

	edges := g.edges[:0]
	for _, e := range g.edges {
		if keep(e) {
			edges = append(edges, e)
		}
	}
	g.edges = edges

	for id, list := range g.AdjList {
		g.AdjList[id] = filterEdges(list, keep)
	}
	for id, list := range g.InList {
		g.InList[id] = filterEdges(list, keep)
	}
}

func filterEdges(list []*model.Edge, keep func(*model.Edge) bool) []*model.Edge {
	out := list[:0]
	for _, e := range list {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Subgraph 只保留给定节点及其之间的边 (深拷贝)
func (g *Graph) Subgraph(ids map[int64]bool) *Graph {
	h := g.newLike()
	for id := range ids {
		if n, ok := g.Nodes[id]; ok {
			c := *n
			h.AddNode(&c)
		}
	}
	for _, e := range g.edges {
		if ids[e.U] && ids[e.V] {
			h.insertEdge(e.Clone())
		}
	}
	return h
}

// Copy 深拷贝整张图
func (g *Graph) Copy() *Graph {
	ids := make(map[int64]bool, len(g.Nodes))
	for id := range g.Nodes {
		ids[id] = true
	}
	return g.Subgraph(ids)
}

// IsProjected 是否为平面坐标系
func (g *Graph) IsProjected() bool {
	return !utils.IsGeographic(g.CRS)
}

// NodeDistance 两节点间的直线距离，地理坐标用大圆距离
func (g *Graph) NodeDistance(u, v int64) float64 {
	a, b := g.Nodes[u], g.Nodes[v]
	if a == nil || b == nil {
		return 0
	}
	if g.IsProjected() {
		return utils.Euclidean(a.X, a.Y, b.X, b.Y)
	}
	return utils.GreatCircle(a.Y, a.X, b.Y, b.X)
}
