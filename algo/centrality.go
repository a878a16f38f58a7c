package algo

import (
	"io"

	"street-network/model"

	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// LineGraph 线图: 原图每条边是一个节点，e1 的终点是 e2 的起点时连 e1 -> e2
// 返回的节点 ID 是边在 g.Edges() 中的下标
func LineGraph(g *Graph) *simple.DirectedGraph {
	return lineGraph(g, false)
}

// lineGraph reverse 为 true 时所有弧反向
func lineGraph(g *Graph, reverse bool) *simple.DirectedGraph {
	edges := g.Edges()
	index := make(map[*model.Edge]int64, len(edges))
	lg := simple.NewDirectedGraph()
	for i, e := range edges {
		index[e] = int64(i)
		lg.AddNode(simple.Node(i))
	}
	for i, e := range edges {
		from := int64(i)
		for _, next := range g.AdjList[e.V] {
			to := index[next]
			if to == from {
				continue
			}
			if reverse {
				lg.SetEdge(simple.Edge{F: simple.Node(to), T: simple.Node(from)})
			} else {
				lg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}
	return lg
}

// ClosenessCentrality 无权有向图的接近中心性 (使用到达该节点的距离)
// C(u) = (r-1)/(n-1) * (r-1)/Σd，r 为能到达 u 的节点数 (含自身)
// 传入的图应为反向图，BFS 从 u 出发即得到其他节点到 u 的距离
func ClosenessCentrality(reversed graph.Directed, progress io.Writer) map[int64]float64 {
	nodes := graph.NodesOf(reversed.Nodes())
	n := len(nodes)
	result := make(map[int64]float64, n)

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("计算接近中心性"),
		)
	}

	for _, u := range nodes {
		reached, total := 0, 0
		var bf traverse.BreadthFirst
		bf.Walk(reversed, u, func(_ graph.Node, d int) bool {
			reached++
			total += d
			return false
		})

		c := 0.0
		if total > 0 && n > 1 {
			r := float64(reached - 1)
			c = (r / float64(total)) * (r / float64(n-1))
		}
		result[u.ID()] = c
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return result
}

// EdgeClosenessCentrality 计算线图上每条边的接近中心性并写入 Edge.Centrality
// 返回值与 g.Edges() 顺序一致
func EdgeClosenessCentrality(g *Graph, progress io.Writer) []float64 {
	edges := g.Edges()
	scores := ClosenessCentrality(lineGraph(g, true), progress)

	out := make([]float64, len(edges))
	for i, e := range edges {
		e.Centrality = scores[int64(i)]
		out[i] = e.Centrality
	}
	return out
}
