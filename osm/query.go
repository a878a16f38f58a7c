package osm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

// 各路网类型对应的 Overpass 路径过滤条件
var networkFilters = map[string]string{
	"drive": `["highway"]["area"!~"yes"]["access"!~"private"]` +
		`["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|no|path|pedestrian|planned|platform|proposed|raceway|razed|service|steps|track"]` +
		`["motor_vehicle"!~"no"]["motorcar"!~"no"]` +
		`["service"!~"alley|driveway|emergency_access|parking|parking_aisle|private"]`,
	"drive_service": `["highway"]["area"!~"yes"]["access"!~"private"]` +
		`["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|no|path|pedestrian|planned|platform|proposed|raceway|razed|steps|track"]` +
		`["motor_vehicle"!~"no"]["motorcar"!~"no"]` +
		`["service"!~"emergency_access|parking|parking_aisle|private"]`,
	"walk": `["highway"]["area"!~"yes"]["access"!~"private"]` +
		`["highway"!~"abandoned|bus_guideway|construction|cycleway|motor|no|planned|platform|proposed|raceway|razed"]` +
		`["foot"!~"no"]["service"!~"private"]`,
	"bike": `["highway"]["area"!~"yes"]["access"!~"private"]` +
		`["highway"!~"abandoned|bus_guideway|construction|corridor|elevator|escalator|footway|motor|no|planned|platform|proposed|raceway|razed|steps"]` +
		`["bicycle"!~"no"]["service"!~"private"]`,
	"all": `["highway"]["area"!~"yes"]["access"!~"private"]` +
		`["highway"!~"abandoned|construction|no|planned|platform|proposed|raceway|razed"]` +
		`["service"!~"private"]`,
}

// NetworkTypes 支持的路网类型
func NetworkTypes() []string {
	types := make([]string, 0, len(networkFilters))
	for t := range networkFilters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NetworkFilter 返回路网类型的 Overpass 过滤条件
func NetworkFilter(networkType string) (string, error) {
	f, ok := networkFilters[networkType]
	if !ok {
		return "", fmt.Errorf("未知的路网类型 %q, 可选: %s", networkType, strings.Join(NetworkTypes(), ", "))
	}
	return f, nil
}

// bbox Overpass 的 (south,west,north,east) 范围
func bbox(b orb.Bound) string {
	return fmt.Sprintf("(%.7f,%.7f,%.7f,%.7f)", b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
}

// NetworkQuery 构造下载路网的 Overpass QL，结果包含路径及其全部节点
func NetworkQuery(filter string, b orb.Bound, timeout int) string {
	return fmt.Sprintf("[out:xml][timeout:%d];(way%s%s;>;);out;", timeout, filter, bbox(b))
}

// tagSelectors 将标签条件展开为 Overpass 选择器，每个选择器之间是 "或" 关系
func tagSelectors(tags map[string][]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var selectors []string
	for _, k := range keys {
		values := tags[k]
		if len(values) == 0 {
			selectors = append(selectors, fmt.Sprintf("[%q]", k))
			continue
		}
		for _, v := range values {
			selectors = append(selectors, fmt.Sprintf("[%q=%q]", k, v))
		}
	}
	return selectors
}

// FeaturesQuery 构造按标签查询要素的 Overpass QL
// 路径和关系会递归展开到节点，以便组装几何
func FeaturesQuery(tags map[string][]string, b orb.Bound, timeout int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:xml][timeout:%d];(", timeout)
	box := bbox(b)
	for _, sel := range tagSelectors(tags) {
		for _, element := range []string{"node", "way", "relation"} {
			sb.WriteString(element + sel + box + ";")
		}
	}
	sb.WriteString(");(._;>;);out;")
	return sb.String()
}
