package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"street-network/algo"
	"street-network/model"
)

// Options 路网绘图参数
type Options struct {
	BgColor    color.Color
	EdgeColor  color.Color
	EdgeWidth  float64 // 点 (pt)
	EdgeColors []color.Color
	NodeColor  color.Color
	NodeSize   float64 // 点 (pt)，0 表示不画节点
}

// OptionsFromConfig 由配置生成绘图参数
func OptionsFromConfig(cfg model.PlotConfig) (Options, error) {
	opts := Options{EdgeWidth: cfg.EdgeWidth, NodeSize: cfg.NodeSize}
	var err error
	if opts.BgColor, err = ParseColor(cfg.BgColor); err != nil {
		return Options{}, err
	}
	if opts.EdgeColor, err = ParseColor(cfg.EdgeColor); err != nil {
		return Options{}, err
	}
	if opts.NodeColor, err = ParseColor(cfg.NodeColor); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// PlotGraph 绘制路网: 边为折线，节点为圆点，隐藏坐标轴
func PlotGraph(g *algo.Graph, opts Options) (*plot.Plot, error) {
	if len(g.Nodes) == 0 {
		return nil, algo.ErrEmptyGraph
	}
	edges := g.Edges()
	if opts.EdgeColors != nil && len(opts.EdgeColors) != len(edges) {
		return nil, fmt.Errorf("边颜色数量 %d 与边数 %d 不一致", len(opts.EdgeColors), len(edges))
	}
	if opts.EdgeColor == nil {
		opts.EdgeColor = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	}
	if opts.EdgeWidth <= 0 {
		opts.EdgeWidth = 1
	}

	p := plot.New()
	if opts.BgColor != nil {
		p.BackgroundColor = opts.BgColor
	}
	p.HideAxes()

	for i, e := range edges {
		c := opts.EdgeColor
		if opts.EdgeColors != nil {
			if opts.EdgeColors[i] == nil {
				continue
			}
			c = opts.EdgeColors[i]
		}
		line, err := plotter.NewLine(lineXYs(g.EdgeGeometry(e)))
		if err != nil {
			return nil, fmt.Errorf("边 (%d, %d, %d): %w", e.U, e.V, e.Key, err)
		}
		line.Color = c
		line.Width = vg.Points(opts.EdgeWidth)
		p.Add(line)
	}

	if opts.NodeSize > 0 {
		pts := make(plotter.XYs, 0, len(g.Nodes))
		for _, id := range g.NodeIDs() {
			n := g.Nodes[id]
			pts = append(pts, plotter.XY{X: n.X, Y: n.Y})
		}
		if err := addScatter(p, pts, opts.NodeColor, opts.NodeSize); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func lineXYs(ls orb.LineString) plotter.XYs {
	xys := make(plotter.XYs, len(ls))
	for i, pt := range ls {
		xys[i] = plotter.XY{X: pt.X(), Y: pt.Y()}
	}
	return xys
}

func addScatter(p *plot.Plot, pts plotter.XYs, c color.Color, size float64) error {
	if c == nil {
		c = color.White
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(size / 2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	return nil
}

// AddRoute 在图上叠加一条路径 (沿边的几何)
func AddRoute(p *plot.Plot, g *algo.Graph, route []int64, c color.Color, width float64) error {
	if len(route) < 2 {
		return errors.New("路径至少需要两个节点")
	}
	edges, err := g.RouteEdges(route, algo.WeightLength)
	if err != nil {
		return err
	}

	var xys plotter.XYs
	for i, e := range edges {
		geom := g.EdgeGeometry(e)
		// 无向图中边的存储方向可能与行进方向相反
		if e.U != route[i] {
			geom = geom.Clone()
			geom.Reverse()
		}
		seg := lineXYs(geom)
		if i > 0 {
			seg = seg[1:]
		}
		xys = append(xys, seg...)
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(width)
	p.Add(line)
	return nil
}

// AddPoints 叠加兴趣点 (面取质心)，要素坐标须与图一致
func AddPoints(p *plot.Plot, features []model.Feature, c color.Color, size, alpha float64) error {
	pts := make(plotter.XYs, 0, len(features))
	for _, f := range features {
		var pt orb.Point
		switch geom := f.Geometry.(type) {
		case orb.Point:
			pt = geom
		case orb.Polygon, orb.MultiPolygon:
			pt, _ = planar.CentroidArea(geom)
		default:
			continue
		}
		pts = append(pts, plotter.XY{X: pt.X(), Y: pt.Y()})
	}
	if len(pts) == 0 {
		return nil
	}
	if c == nil {
		c = color.NRGBA{R: 0xff, A: 0xff}
	}
	return addScatter(p, pts, withAlpha(c, alpha), size)
}

// AspectHeight 按数据范围计算图片高度，经纬度图按纬度做 cos 修正
func AspectHeight(g *algo.Graph, width float64) float64 {
	var b orb.Bound
	first := true
	for _, n := range g.Nodes {
		pt := orb.Point{n.X, n.Y}
		if first {
			b, first = pt.Bound(), false
			continue
		}
		b = b.Extend(pt)
	}
	dx, dy := b.Max.X()-b.Min.X(), b.Max.Y()-b.Min.Y()
	if !g.IsProjected() {
		lat := (b.Max.Y() + b.Min.Y()) / 2
		dx *= math.Cos(lat * math.Pi / 180)
	}
	if dx <= 0 || dy <= 0 {
		return width
	}
	return width * dy / dx
}

// Save 按扩展名保存为 png / svg / pdf，宽高单位为厘米
func Save(p *plot.Plot, path string, width, height float64) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("不支持的图片格式: %s", path)
	}
	if err := p.Save(vg.Length(width)*vg.Centimeter, vg.Length(height)*vg.Centimeter, path); err != nil {
		return fmt.Errorf("保存图片失败: %w", err)
	}
	return nil
}
