package handler

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"street-network/algo"
	"street-network/model"
)

// 全局对象 (应在 serve 命令中初始化)，请求期间只读
var (
	Graph    *algo.Graph
	Features []model.Feature

	// CleanIntTol 统计接口使用的路口合并容差 (米)
	CleanIntTol = 15.0

	index *algo.NodeIndex

	statsMu    sync.Mutex
	statsCache *algo.Stats
)

// SetGraph 设置服务使用的路网并建立最近节点索引
func SetGraph(g *algo.Graph) error {
	idx, err := algo.NewNodeIndex(g)
	if err != nil {
		return fmt.Errorf("建立节点索引失败: %w", err)
	}
	Graph = g
	index = idx

	statsMu.Lock()
	statsCache = nil
	statsMu.Unlock()
	return nil
}

// SetupRoutes 配置路由
func SetupRoutes(r *gin.Engine) {
	// CORS 跨域中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "ok",
		})
	})

	api := r.Group("/api")
	{
		// 公开接口 (无需认证)
		api.POST("/login", Login)
		api.POST("/register", Register)

		// 路网相关接口
		api.POST("/route", FindRoute)
		api.GET("/nodes", GetNodes)
		api.GET("/nodes/search", SearchNodes)
		api.GET("/nodes/:id", GetNodeByID)
		api.GET("/stats", GetStats)
		api.GET("/stores", GetStores)

		authorized := api.Group("/")
		authorized.Use(AuthMiddleware())
		{
			authorized.POST("/networks", ImportNetwork)
		}
	}
}

// graphLoaded 路网未加载时直接返回 503
func graphLoaded(c *gin.Context) bool {
	if Graph == nil || index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "路网数据未加载"})
		return false
	}
	return true
}
