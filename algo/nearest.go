package algo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"street-network/utils"
)

// nearestCandidates 经纬度图中先按平面距离取候选，再按大圆距离排序
const nearestCandidates = 16

type indexedNode struct {
	id  int64
	p   orb.Point // 索引坐标
	raw orb.Point // 原始坐标
}

func (n indexedNode) Point() orb.Point { return n.p }

// NodeIndex 节点空间索引
// 经纬度图的经度乘以平均纬度的余弦后再建索引，使平面距离与地面距离成比例
type NodeIndex struct {
	tree       *quadtree.Quadtree
	geographic bool
	xScale     float64
}

// NewNodeIndex 为图的所有节点建立四叉树索引
func NewNodeIndex(g *Graph) (*NodeIndex, error) {
	if len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	idx := &NodeIndex{geographic: !g.IsProjected(), xScale: 1}
	if idx.geographic {
		sumLat := 0.0
		for _, n := range g.Nodes {
			sumLat += n.Y
		}
		idx.xScale = math.Cos(utils.DegreesToRadians(sumLat / float64(len(g.Nodes))))
	}

	ids := g.NodeIDs()
	nodes := make([]indexedNode, 0, len(ids))
	var bound orb.Bound
	for i, id := range ids {
		n := g.Nodes[id]
		in := indexedNode{id: id, p: idx.scaled(n.X, n.Y), raw: orb.Point{n.X, n.Y}}
		if i == 0 {
			bound = in.p.Bound()
		} else {
			bound = bound.Extend(in.p)
		}
		nodes = append(nodes, in)
	}
	// 四叉树要求边界有面积
	idx.tree = quadtree.New(bound.Pad(1e-6))
	for _, in := range nodes {
		if err := idx.tree.Add(in); err != nil {
			return nil, fmt.Errorf("节点 %d 加入索引失败: %w", in.id, err)
		}
	}
	return idx, nil
}

func (idx *NodeIndex) scaled(x, y float64) orb.Point {
	return orb.Point{x * idx.xScale, y}
}

// Nearest 返回离 (x, y) 最近的节点及距离 (米或投影单位)
func (idx *NodeIndex) Nearest(x, y float64) (int64, float64) {
	p := idx.scaled(x, y)
	if !idx.geographic {
		found := idx.tree.Find(p).(indexedNode)
		return found.id, utils.Euclidean(x, y, found.raw.X(), found.raw.Y())
	}

	bestID, bestDist := int64(0), math.Inf(1)
	for _, c := range idx.tree.KNearest(nil, p, nearestCandidates) {
		n := c.(indexedNode)
		d := utils.GreatCircle(y, x, n.raw.Y(), n.raw.X())
		if d < bestDist || (d == bestDist && n.id < bestID) {
			bestID, bestDist = n.id, d
		}
	}
	return bestID, bestDist
}

// NearestNode 离给定坐标最近的节点 (经纬度图传 lon/lat，投影图传 x/y)
func NearestNode(g *Graph, x, y float64) (int64, float64, error) {
	idx, err := NewNodeIndex(g)
	if err != nil {
		return 0, 0, err
	}
	id, dist := idx.Nearest(x, y)
	return id, dist, nil
}

// NearestNodes 批量查找最近节点
func NearestNodes(g *Graph, xs, ys []float64) ([]int64, []float64, error) {
	if len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("坐标数量不一致: x=%d y=%d", len(xs), len(ys))
	}
	idx, err := NewNodeIndex(g)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, len(xs))
	dists := make([]float64, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			return nil, nil, fmt.Errorf("第 %d 个坐标无效", i)
		}
		ids[i], dists[i] = idx.Nearest(xs[i], ys[i])
	}
	return ids, dists, nil
}
