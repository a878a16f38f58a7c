package algo

import (
	"math"

	"street-network/model"
)

// Noise DBSCAN 噪声点标签
const Noise = -1

// SpatialIndex 网格空间索引，格子边长等于邻域半径，邻域查询只看 3x3 个格子
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // 格子 ID -> 点下标
}

// NewSpatialIndex 创建空间索引
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build 建立索引
func (si *SpatialIndex) Build(points []model.PointXY) {
	si.Grid = make(map[int64][]int, len(points))
	for i, p := range points {
		id := cellID(si.cell(p.X), si.cell(p.Y))
		si.Grid[id] = append(si.Grid[id], i)
	}
}

func (si *SpatialIndex) cell(v float64) int64 {
	return int64(math.Floor(v / si.CellSize))
}

// cellID 用 zigzag 编码处理负坐标，再用 Szudzik 配对函数得到唯一 ID
func cellID(cx, cy int64) int64 {
	zigzag := func(v int64) int64 {
		if v >= 0 {
			return 2 * v
		}
		return -2*v - 1
	}
	a, b := zigzag(cx), zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// RegionQuery 返回与 points[idx] 距离不超过 eps 的所有点 (含自身)，按下标升序
func (si *SpatialIndex) RegionQuery(points []model.PointXY, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps
	cx, cy := si.cell(p.X), si.cell(p.Y)

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.Grid[cellID(cx+dx, cy+dy)] {
				q := points[j]
				ddx, ddy := q.X-p.X, q.Y-p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, j)
				}
			}
		}
	}
	sortInts(neighbors)
	return neighbors
}

func sortInts(a []int) {
	// 邻域通常很小，插入排序足够
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

// DBSCAN 平面坐标上的密度聚类
// 返回每个点的簇标签: 按发现顺序从 0 编号，噪声为 -1
// 邻域包含点本身，邻居数 >= minPts 的点为核心点
func DBSCAN(points []model.PointXY, eps float64, minPts int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}

	labels := make([]int, n) // 0=未访问, -1=噪声, >0=簇编号
	clusterID := 0

	cellSize := eps
	if cellSize <= 0 {
		cellSize = 1
	}
	index := NewSpatialIndex(cellSize)
	index.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := index.RegionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = Noise
			continue
		}
		clusterID++
		expandCluster(points, index, labels, i, neighbors, clusterID, eps, minPts)
	}

	out := make([]int, n)
	for i, l := range labels {
		if l == Noise {
			out[i] = Noise
		} else {
			out[i] = l - 1
		}
	}
	return out
}

// expandCluster 队列方式扩展簇，噪声点被核心点触达后成为边界点
func expandCluster(points []model.PointXY, si *SpatialIndex, labels []int,
	seed int, neighbors []int, clusterID int, eps float64, minPts int) {

	labels[seed] = clusterID
	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]
		if labels[idx] == Noise {
			labels[idx] = clusterID
		}
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = clusterID
		next := si.RegionQuery(points, idx, eps)
		if len(next) >= minPts {
			neighbors = append(neighbors, next...)
		}
	}
}
