package algo

import (
	"context"
	"fmt"
	"log"

	"street-network/model"
	streetosm "street-network/osm"
	"street-network/utils"

	"github.com/paulmach/osm"
)

var (
	onewayValues   = map[string]bool{"yes": true, "true": true, "1": true, "-1": true, "reverse": true, "T": true, "F": true}
	reversedValues = map[string]bool{"-1": true, "reverse": true, "T": true}
)

// BuildOptions 路网构建参数
type BuildOptions struct {
	NetworkType   string
	Bidirectional bool // 所有道路视为双向
	Simplify      bool
	RetainAll     bool // false 时只保留最大弱连通分量
}

// bidirectional 步行网络默认双向
func (o BuildOptions) bidirectional() bool {
	return o.Bidirectional || o.NetworkType == "walk"
}

// isOneway 判断路径是否单行
func isOneway(tags osm.Tags, bidirectional bool) bool {
	if bidirectional {
		return false
	}
	if onewayValues[tags.Find("oneway")] {
		return true
	}
	return tags.Find("junction") == "roundabout"
}

func single(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// FromOSM 由 Overpass 返回的路径和节点构建有向多重图
// 双向道路生成正反两条边，反向边 Reversed 为 true
func FromOSM(data *osm.OSM, opts BuildOptions) (*Graph, error) {
	g := NewGraph()
	g.Name = "unnamed"

	coords := make(map[osm.NodeID]*osm.Node, len(data.Nodes))
	for _, n := range data.Nodes {
		coords[n.ID] = n
	}

	bidirectional := opts.bidirectional()
	for _, w := range data.Ways {
		// 只保留坐标齐全的节点
		var path []int64
		for _, wn := range w.Nodes {
			n, ok := coords[wn.ID]
			if !ok {
				continue
			}
			id := int64(n.ID)
			if _, exists := g.Nodes[id]; !exists {
				g.AddNode(&model.Node{
					ID:      id,
					X:       n.Lon,
					Y:       n.Lat,
					Highway: n.Tags.Find("highway"),
					Ref:     n.Tags.Find("ref"),
				})
			}
			path = append(path, id)
		}
		if len(path) < 2 {
			continue
		}

		oneway := isOneway(w.Tags, bidirectional)
		if oneway && reversedValues[w.Tags.Find("oneway")] {
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
		}

		template := model.Edge{
			OSMIDs:   []int64{int64(w.ID)},
			Highway:  single(w.Tags.Find("highway")),
			Name:     single(w.Tags.Find("name")),
			MaxSpeed: single(w.Tags.Find("maxspeed")),
			Lanes:    single(w.Tags.Find("lanes")),
			Ref:      single(w.Tags.Find("ref")),
			Oneway:   oneway,
		}

		for i := 1; i < len(path); i++ {
			u, v := path[i-1], path[i]
			forward := template.Clone()
			forward.U, forward.V = u, v
			forward.Reversed = []bool{false}
			g.AddEdge(forward)

			if !oneway {
				backward := template.Clone()
				backward.U, backward.V = v, u
				backward.Reversed = []bool{true}
				g.AddEdge(backward)
			}
		}
	}

	if len(g.Nodes) == 0 || g.NumEdges() == 0 {
		return nil, fmt.Errorf("构建路网失败: %w", ErrEmptyGraph)
	}

	AddEdgeLengths(g)
	return g, nil
}

// AddEdgeLengths 以端点间大圆距离作为边长度
func AddEdgeLengths(g *Graph) {
	for _, e := range g.Edges() {
		if e.HasGeometry() {
			e.Length = utils.LineLength(e.Geometry, !g.IsProjected())
			continue
		}
		e.Length = g.NodeDistance(e.U, e.V)
	}
}

// GraphFromPlace 下载地名范围内的路网并构建图
// 步骤: 地理编码 -> Overpass -> 建图 -> 多边形裁剪 -> 最大连通分量 -> 简化 -> 统计道路数
func GraphFromPlace(ctx context.Context, client *streetosm.Client, place string, opts BuildOptions) (*Graph, error) {
	boundary, data, err := client.NetworkFromPlace(ctx, place, opts.NetworkType)
	if err != nil {
		return nil, err
	}
	log.Printf("下载完成: %d 个节点, %d 条路径", len(data.Nodes), len(data.Ways))

	g, err := FromOSM(data, opts)
	if err != nil {
		return nil, err
	}
	g.Name = place

	g = TruncatePolygon(g, boundary)
	if !opts.RetainAll {
		g = LargestComponent(g, false)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("%s 范围内没有路网: %w", place, ErrEmptyGraph)
	}

	if opts.Simplify {
		if err := Simplify(g); err != nil {
			return nil, err
		}
	}
	SetStreetCounts(g)

	log.Printf("路网构建完成: %d 个节点, %d 条边", len(g.Nodes), g.NumEdges())
	return g, nil
}
