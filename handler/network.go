package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"street-network/algo"
	"street-network/db"
	"street-network/export"
)

// Importer 下载地名对应的路网并入库，由 serve 命令注入
var Importer func(ctx context.Context, place, networkType string) (*db.NetworkRecord, error)

// NetworkRequest 路网导入请求
type NetworkRequest struct {
	Place       string `json:"place" binding:"required"`
	NetworkType string `json:"network_type"`
}

// computeStats 投影到 UTM 后计算统计，结果缓存到下次 SetGraph
func computeStats() (*algo.Stats, error) {
	statsMu.Lock()
	defer statsMu.Unlock()
	if statsCache != nil {
		return statsCache, nil
	}

	projected := Graph
	if !Graph.IsProjected() {
		var err error
		projected, err = algo.ProjectGraph(Graph, "")
		if err != nil {
			return nil, err
		}
	}
	area, err := algo.NodesConvexHullArea(projected)
	if err != nil {
		return nil, err
	}
	stats, err := algo.BasicStats(projected, area, CleanIntTol)
	if err != nil {
		return nil, err
	}
	statsCache = &stats
	return statsCache, nil
}

// GetStats 路网基本统计
func GetStats(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	stats, err := computeStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "统计失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetStores 去重后的门店 (GeoJSON)
func GetStores(c *gin.Context) {
	fc := export.FeaturesGeoJSON(Features)
	data, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// ImportNetwork 下载并入库一个地名的路网 (需要登录)
func ImportNetwork(c *gin.Context) {
	var req NetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}
	if req.NetworkType == "" {
		req.NetworkType = "drive"
	}
	if Importer == nil || !db.Connected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "数据库未连接"})
		return
	}

	network, err := Importer(c.Request.Context(), req.Place, req.NetworkType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "导入路网失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "导入成功",
		"network_id": network.ID,
		"place":      network.Place,
		"nodes":      network.NodeCount,
		"edges":      network.EdgeCount,
	})
}
