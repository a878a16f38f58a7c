package db

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"street-network/algo"
	"street-network/model"
)

// batchSize 批量插入的大小
const batchSize = 100

// ErrNotConnected 未初始化数据库
var ErrNotConnected = errors.New("数据库未连接")

func conn() (*gorm.DB, error) {
	if DB == nil {
		return nil, ErrNotConnected
	}
	return DB, nil
}

// NetworkRecords 将图转为待写入的节点和边记录
func NetworkRecords(networkID uint, g *algo.Graph) ([]NodeRecord, []EdgeRecord, error) {
	nodes, edges, err := algo.ToTables(g)
	if err != nil {
		return nil, nil, err
	}
	nodeRecords := make([]NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		nodeRecords = append(nodeRecords, nodeToRecord(networkID, n))
	}
	edgeRecords := make([]EdgeRecord, 0, len(edges))
	for _, e := range edges {
		edgeRecords = append(edgeRecords, edgeToRecord(networkID, e))
	}
	return nodeRecords, edgeRecords, nil
}

// SaveGraph 将路网写入数据库，返回网络记录
func SaveGraph(place, networkType string, g *algo.Graph) (*NetworkRecord, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}

	network := &NetworkRecord{
		Place:       place,
		NetworkType: networkType,
		CRS:         g.CRS,
		Directed:    g.Directed,
		Simplified:  g.Simplified,
		NodeCount:   len(g.Nodes),
		EdgeCount:   g.NumEdges(),
	}

	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(network).Error; err != nil {
			return fmt.Errorf("写入路网记录失败: %w", err)
		}
		nodes, edges, err := NetworkRecords(network.ID, g)
		if err != nil {
			return err
		}
		if err := tx.CreateInBatches(nodes, batchSize).Error; err != nil {
			return fmt.Errorf("导入节点失败: %w", err)
		}
		if err := tx.CreateInBatches(edges, batchSize).Error; err != nil {
			return fmt.Errorf("导入边失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("路网 %d 已入库: %d 个节点, %d 条边", network.ID, network.NodeCount, network.EdgeCount)
	return network, nil
}

// LatestNetwork 返回某地最近一次入库的路网，place 为空时不限地点
func LatestNetwork(place string) (*NetworkRecord, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}
	var network NetworkRecord
	q := tx.Order("created_at DESC")
	if place != "" {
		q = q.Where("place = ?", place)
	}
	if err := q.First(&network).Error; err != nil {
		return nil, fmt.Errorf("查询路网失败: %w", err)
	}
	return &network, nil
}

// ListNetworks 列出所有入库的路网 (新的在前)
func ListNetworks() ([]NetworkRecord, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}
	var networks []NetworkRecord
	if err := tx.Order("created_at DESC").Find(&networks).Error; err != nil {
		return nil, fmt.Errorf("查询路网列表失败: %w", err)
	}
	return networks, nil
}

// LoadGraph 从数据库读取路网并重建图
func LoadGraph(networkID uint) (*algo.Graph, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}

	var network NetworkRecord
	if err := tx.First(&network, networkID).Error; err != nil {
		return nil, fmt.Errorf("查询路网 %d 失败: %w", networkID, err)
	}
	var nodes []NodeRecord
	if err := tx.Where("network_id = ?", networkID).Order("osm_id").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("读取节点失败: %w", err)
	}
	var edges []EdgeRecord
	if err := tx.Where("network_id = ?", networkID).Order("id").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("读取边失败: %w", err)
	}

	g, err := GraphFromRecords(network, nodes, edges)
	if err != nil {
		return nil, err
	}
	log.Printf("从数据库加载路网 %d: %d 个节点, %d 条边", networkID, len(g.Nodes), g.NumEdges())
	return g, nil
}

// GraphFromRecords 由数据库记录重建图
func GraphFromRecords(network NetworkRecord, nodeRecords []NodeRecord, edgeRecords []EdgeRecord) (*algo.Graph, error) {
	nodes := make([]model.Node, 0, len(nodeRecords))
	for _, r := range nodeRecords {
		nodes = append(nodes, recordToNode(r))
	}
	edges := make([]model.Edge, 0, len(edgeRecords))
	for _, r := range edgeRecords {
		e, err := recordToEdge(r)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return algo.FromTables(nodes, edges, algo.GraphMeta{
		CRS:        network.CRS,
		Name:       network.Place,
		Directed:   network.Directed,
		Simplified: network.Simplified,
	})
}

// SaveFeatures 覆盖写入某地的兴趣点
func SaveFeatures(place string, features []model.Feature) error {
	tx, err := conn()
	if err != nil {
		return err
	}
	records := make([]FeatureRecord, 0, len(features))
	for _, f := range features {
		r, err := featureToRecord(place, f)
		if err != nil {
			return fmt.Errorf("序列化要素 %s 失败: %w", f.Key(), err)
		}
		records = append(records, r)
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("place = ?", place).Delete(&FeatureRecord{}).Error; err != nil {
			return fmt.Errorf("清理旧要素失败: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
			return fmt.Errorf("导入要素失败: %w", err)
		}
		return nil
	})
}

// LoadFeatures 读取某地的兴趣点
func LoadFeatures(place string) ([]model.Feature, error) {
	tx, err := conn()
	if err != nil {
		return nil, err
	}
	var records []FeatureRecord
	if err := tx.Where("place = ?", place).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("读取要素失败: %w", err)
	}
	features := make([]model.Feature, 0, len(records))
	for _, r := range records {
		f, err := recordToFeature(r)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}
