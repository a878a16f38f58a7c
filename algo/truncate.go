package algo

import (
	"log"
	"sort"

	"street-network/utils"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// TruncatePolygon 删除多边形之外的节点 (坐标需与多边形同一坐标系)
func TruncatePolygon(g *Graph, boundary orb.Geometry) *Graph {
	outside := make(map[int64]bool)
	for id, n := range g.Nodes {
		if !utils.Contains(boundary, orb.Point{n.X, n.Y}) {
			outside[id] = true
		}
	}
	if len(outside) > 0 {
		log.Printf("裁剪掉边界外的 %d 个节点", len(outside))
	}
	h := g.Copy()
	h.RemoveNodes(outside)
	return h
}

// LargestComponent 保留最大的连通分量
// strongly 为 false 时按弱连通 (忽略方向) 计算
func LargestComponent(g *Graph, strongly bool) *Graph {
	if len(g.Nodes) == 0 {
		return g.Copy()
	}

	var components [][]graph.Node
	if strongly && g.Directed {
		dg := simple.NewDirectedGraph()
		for id := range g.Nodes {
			dg.AddNode(simple.Node(id))
		}
		for _, e := range g.Edges() {
			if e.U != e.V && !dg.HasEdgeFromTo(e.U, e.V) {
				dg.SetEdge(simple.Edge{F: simple.Node(e.U), T: simple.Node(e.V)})
			}
		}
		components = topo.TarjanSCC(dg)
	} else {
		ug := simple.NewUndirectedGraph()
		for id := range g.Nodes {
			ug.AddNode(simple.Node(id))
		}
		for _, e := range g.Edges() {
			if e.U != e.V && !ug.HasEdgeBetween(e.U, e.V) {
				ug.SetEdge(simple.Edge{F: simple.Node(e.U), T: simple.Node(e.V)})
			}
		}
		components = topo.ConnectedComponents(ug)
	}

	// 节点数最多者胜出，相同时取最小节点 ID 所在分量
	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return minID(components[i]) < minID(components[j])
	})

	keep := make(map[int64]bool, len(components[0]))
	for _, n := range components[0] {
		keep[n.ID()] = true
	}
	if dropped := len(g.Nodes) - len(keep); dropped > 0 {
		log.Printf("保留最大连通分量, 删除 %d 个节点", dropped)
	}
	return g.Subgraph(keep)
}

func minID(nodes []graph.Node) int64 {
	m := nodes[0].ID()
	for _, n := range nodes[1:] {
		if n.ID() < m {
			m = n.ID()
		}
	}
	return m
}
