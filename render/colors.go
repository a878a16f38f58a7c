package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"street-network/algo"
	"street-network/model"
)

// DefaultCmap 默认色带，接近 matplotlib 的 inferno
const DefaultCmap = "blackbody"

// ColorMap 按名称返回色带
func ColorMap(name string) (palette.ColorMap, error) {
	switch strings.ToLower(name) {
	case "", DefaultCmap, "inferno":
		return moreland.BlackBody(), nil
	case "extended-blackbody":
		return moreland.ExtendedBlackBody(), nil
	case "kindlmann", "viridis":
		return moreland.Kindlmann(), nil
	case "extended-kindlmann":
		return moreland.ExtendedKindlmann(), nil
	case "bluered", "coolwarm":
		return moreland.SmoothBlueRed(), nil
	}
	return nil, fmt.Errorf("不支持的色带: %q", name)
}

// ParseColor 解析 #rrggbb / #rrggbbaa / #rgb 颜色
func ParseColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("颜色格式错误: %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("颜色格式错误: %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// withAlpha 设置透明度 (0~1)
func withAlpha(c color.Color, alpha float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if alpha >= 0 && alpha <= 1 {
		n.A = uint8(math.Round(alpha * 255))
	}
	return n
}

// edgeValue 边的数值属性，没有数据时返回 false
func edgeValue(e *model.Edge, attr string) (float64, bool) {
	var v float64
	switch attr {
	case "length":
		v = e.Length
	case "travel_time":
		v = e.TravelTime
	case "speed_kph":
		v = e.SpeedKPH
	case "edge_centrality":
		v = e.Centrality
	default:
		return 0, false
	}
	if math.IsNaN(v) || (attr != "edge_centrality" && v <= 0) {
		return 0, false
	}
	return v, true
}

// EdgeColorsByAttr 按边属性在 min..max 之间线性映射到色带
// 返回值与 g.Edges() 顺序一致，没有数据的边为 nil (不绘制)
func EdgeColorsByAttr(g *algo.Graph, attr, cmap string) ([]color.Color, error) {
	switch attr {
	case "length", "travel_time", "speed_kph", "edge_centrality":
	default:
		return nil, fmt.Errorf("不支持的边属性: %q", attr)
	}
	cm, err := ColorMap(cmap)
	if err != nil {
		return nil, err
	}

	edges := g.Edges()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range edges {
		if v, ok := edgeValue(e, attr); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	colors := make([]color.Color, len(edges))
	if math.IsInf(lo, 1) {
		return colors, nil
	}
	if hi == lo {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)

	for i, e := range edges {
		v, ok := edgeValue(e, attr)
		if !ok {
			continue
		}
		c, err := cm.At(v)
		if err != nil {
			return nil, fmt.Errorf("边 (%d, %d, %d) 取色失败: %w", e.U, e.V, e.Key, err)
		}
		colors[i] = c
	}
	return colors, nil
}
