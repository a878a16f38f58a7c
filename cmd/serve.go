package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/db"
	"street-network/handler"
	"street-network/model"
)

var serveNoDB bool

// loadServeGraph 优先读取数据库中最近的路网，没有时在线下载
func loadServeGraph(ctx context.Context, cfg *model.Config) (*algo.Graph, error) {
	if db.Connected() {
		network, err := db.LatestNetwork(cfg.Place)
		if err == nil {
			fmt.Println("正在从数据库构建图...")
			return db.LoadGraph(network.ID)
		}
		log.Printf("数据库中没有 %s 的路网: %v", cfg.Place, err)
	}

	g, err := downloadGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db.Connected() {
		if _, err := db.SaveGraph(cfg.Place, cfg.NetworkType, g); err != nil {
			log.Printf("路网入库失败: %v", err)
		}
	}
	return g, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve routing, node search, stats and stores over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		// 1. 初始化数据库，不可用时继续运行 (用户保存在内存中)
		if !serveNoDB {
			if err := db.InitDB(cfg.Database); err != nil {
				log.Printf("数据库不可用: %v", err)
			}
		}

		// 2. 加载路网
		g, err := loadServeGraph(ctx, cfg)
		if err != nil {
			return err
		}
		if err := addTravelTimes(g, cfg); err != nil {
			if !errors.Is(err, algo.ErrNoSpeeds) {
				return err
			}
			log.Printf("跳过通行时间计算: %v", err)
		}
		fmt.Printf("地图加载成功! 节点数: %d\n", len(g.Nodes))

		// 3. 将图对象传递给 handler
		handler.Configure(cfg.Server)
		handler.CleanIntTol = cfg.Stats.CleanIntTol
		if err := handler.SetGraph(g); err != nil {
			return err
		}
		if db.Connected() {
			features, err := db.LoadFeatures(cfg.Place)
			if err != nil {
				log.Printf("读取门店失败: %v", err)
			}
			handler.Features = features
		}
		handler.Importer = func(ctx context.Context, place, networkType string) (*db.NetworkRecord, error) {
			c := *cfg
			c.Place, c.NetworkType = place, networkType
			return importPlace(ctx, &c, true)
		}

		// 4. 启动服务器
		r := gin.Default()
		handler.SetupRoutes(r)

		fmt.Println("\n服务器启动中...")
		fmt.Printf("监听地址: %s\n", cfg.Server.Addr)
		fmt.Println("API 文档:")
		fmt.Println("  - POST   /api/login          - 用户登录")
		fmt.Println("  - POST   /api/register       - 用户注册")
		fmt.Println("  - POST   /api/route          - 路径规划")
		fmt.Println("  - GET    /api/nodes          - 获取所有节点")
		fmt.Println("  - GET    /api/nodes/:id      - 获取指定节点")
		fmt.Println("  - GET    /api/nodes/search   - 按道路名搜索节点")
		fmt.Println("  - GET    /api/stats          - 路网统计")
		fmt.Println("  - GET    /api/stores         - 门店 (GeoJSON)")
		fmt.Println("  - POST   /api/networks       - 导入路网 (需要登录)")
		fmt.Println("\n按 Ctrl+C 退出")

		return r.Run(cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	serveCmd.Flags().BoolVar(&serveNoDB, "no-db", false, "run without PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}
