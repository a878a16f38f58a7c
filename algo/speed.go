package algo

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"street-network/model"
)

// ErrNoSpeeds 图中没有任何限速信息且未提供默认车速
var ErrNoSpeeds = errors.New("路网没有 maxspeed 数据, 必须提供 hwy_speeds 或 fallback")

// mph 转 km/h 的系数
const mphToKph = 1.61

var maxSpeedPattern = regexp.MustCompile(`^([0-9][\.,0-9]+?)(?:[ ]?(?:km/h|kmh|kph|mph|knots))?$`)

// CleanMaxSpeed 解析单个 maxspeed 取值为 km/h
// 支持 "50", "50 km/h", "30 mph", 以及 "40;50" 多值 (取平均)
func CleanMaxSpeed(value string) (float64, bool) {
	parts := strings.Split(value, ";")
	if len(parts) > 1 {
		return meanSpeed(parts)
	}

	value = strings.TrimSpace(value)
	m := maxSpeedPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	kph, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(value, "mph") {
		kph *= mphToKph
	}
	return kph, true
}

// meanSpeed 多个取值全部有效时返回平均值
func meanSpeed(values []string) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		kph, ok := CleanMaxSpeed(v)
		if !ok {
			return 0, false
		}
		sum += kph
	}
	return sum / float64(len(values)), true
}

// edgeMaxSpeed 边的限速 (简化合并后可能有多个取值)
func edgeMaxSpeed(e *model.Edge) (float64, bool) {
	return meanSpeed(e.MaxSpeed)
}

// AddEdgeSpeeds 为每条边写入 SpeedKPH
// 有 maxspeed 的边直接使用；其余依次使用 hwySpeeds[道路等级]、同等级边平均车速、fallback、各等级车速的平均值
func AddEdgeSpeeds(g *Graph, hwySpeeds map[string]float64, fallback float64) error {
	known := make(map[*model.Edge]float64)
	byType := make(map[string][]float64)
	var all []float64
	for _, e := range g.Edges() {
		if kph, ok := edgeMaxSpeed(e); ok {
			known[e] = kph
			byType[e.FirstHighway()] = append(byType[e.FirstHighway()], kph)
			all = append(all, kph)
		}
	}

	if len(all) == 0 && len(hwySpeeds) == 0 && fallback <= 0 {
		return ErrNoSpeeds
	}

	typeMean := make(map[string]float64, len(byType))
	for t, speeds := range byType {
		typeMean[t] = mean(speeds)
	}

	// 兜底车速为各道路等级车速的平均值，hwySpeeds 覆盖同等级的实测均值
	levels := make(map[string]float64, len(typeMean)+len(hwySpeeds))
	for t, kph := range typeMean {
		levels[t] = kph
	}
	for t, kph := range hwySpeeds {
		if kph > 0 {
			levels[t] = kph
		}
	}
	var perLevel []float64
	for _, kph := range levels {
		perLevel = append(perLevel, kph)
	}
	sort.Float64s(perLevel)
	overall := mean(perLevel)

	for _, e := range g.Edges() {
		if kph, ok := known[e]; ok {
			e.SpeedKPH = kph
			continue
		}
		hwy := e.FirstHighway()
		switch {
		case hwySpeeds[hwy] > 0:
			e.SpeedKPH = hwySpeeds[hwy]
		case typeMean[hwy] > 0:
			e.SpeedKPH = typeMean[hwy]
		case fallback > 0:
			e.SpeedKPH = fallback
		case overall > 0:
			e.SpeedKPH = overall
		default:
			return fmt.Errorf("道路等级 %q 无法推算车速: %w", hwy, ErrNoSpeeds)
		}
	}
	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AddEdgeTravelTimes 根据长度和车速写入通行时间 (秒)
func AddEdgeTravelTimes(g *Graph) error {
	for _, e := range g.Edges() {
		if e.SpeedKPH <= 0 {
			return fmt.Errorf("边 (%d, %d, %d) 没有车速, 请先推算车速", e.U, e.V, e.Key)
		}
		// km/h -> m/s
		e.TravelTime = e.Length / (e.SpeedKPH * 1000 / 3600)
	}
	return nil
}
