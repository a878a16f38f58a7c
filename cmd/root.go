package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"street-network/algo"
	"street-network/export"
	"street-network/model"
	"street-network/osm"
)

var (
	cfgFile   string
	graphFile string
)

var rootCmd = &cobra.Command{
	Use:   "streetnet",
	Short: "Street network toolkit built on OpenStreetMap",
	Long: `streetnet downloads the street network of a place from OpenStreetMap,
routes over it, computes network statistics and edge centrality, deduplicates
store locations with DBSCAN, and exports graphs and tables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml/json/toml)")
	rootCmd.PersistentFlags().StringVar(&graphFile, "load-graphml", "", "load the network from a GraphML file instead of downloading it")
	rootCmd.PersistentFlags().String("place", "", "place name to geocode, e.g. \"Berkeley County, South Carolina, USA\"")
	rootCmd.PersistentFlags().String("network-type", "", "network type: drive, drive_service, walk, bike, all, all_private")
	rootCmd.PersistentFlags().Bool("bidirectional", false, "treat every street as two-way")
	rootCmd.PersistentFlags().Bool("retain-all", false, "keep every component instead of the largest one")

	bindFlag("place", rootCmd.PersistentFlags().Lookup("place"))
	bindFlag("network_type", rootCmd.PersistentFlags().Lookup("network-type"))
	bindFlag("network.bidirectional", rootCmd.PersistentFlags().Lookup("bidirectional"))
	bindFlag("network.retain_all", rootCmd.PersistentFlags().Lookup("retain-all"))
}

// Execute 运行命令行，出错时以非零状态退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlag 将命令行参数绑定到配置项
func bindFlag(key string, flag *pflag.Flag) {
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// loadConfig 合并默认值、配置文件、环境变量和命令行参数
func loadConfig() (*model.Config, error) {
	cfg, err := model.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return cfg, nil
}

func buildOptions(cfg *model.Config) algo.BuildOptions {
	return algo.BuildOptions{
		NetworkType:   cfg.NetworkType,
		Bidirectional: cfg.Network.Bidirectional,
		Simplify:      cfg.Network.Simplify,
		RetainAll:     cfg.Network.RetainAll,
	}
}

// downloadGraph 下载配置中地名的路网，指定 --load-graphml 时从文件读取
func downloadGraph(ctx context.Context, cfg *model.Config) (*algo.Graph, error) {
	if graphFile != "" {
		g, err := export.LoadGraphML(graphFile)
		if err != nil {
			return nil, err
		}
		fmt.Printf("从 %s 加载路网: %d 个节点, %d 条边\n", graphFile, len(g.Nodes), g.NumEdges())
		return g, nil
	}
	client, err := osm.NewClient(cfg.OSM)
	if err != nil {
		return nil, err
	}
	fmt.Printf("正在下载 %s 的 %s 路网...\n", cfg.Place, cfg.NetworkType)
	g, err := algo.GraphFromPlace(ctx, client, cfg.Place, buildOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("下载路网失败: %w", err)
	}
	fmt.Printf("路网加载成功! 节点数: %d, 边数: %d\n", len(g.Nodes), g.NumEdges())
	return g, nil
}

// downloadFeatures 下载配置中地名满足标签条件的兴趣点
func downloadFeatures(ctx context.Context, cfg *model.Config) ([]model.Feature, error) {
	client, err := osm.NewClient(cfg.OSM)
	if err != nil {
		return nil, err
	}
	tags := model.ParseTags(cfg.Cluster.Tags)
	features, err := client.FeaturesFromPlace(ctx, cfg.Place, tags)
	if err != nil {
		return nil, fmt.Errorf("下载兴趣点失败: %w", err)
	}
	return features, nil
}

// addTravelTimes 推算车速并计算通行时间
func addTravelTimes(g *algo.Graph, cfg *model.Config) error {
	if err := algo.AddEdgeSpeeds(g, cfg.Speeds.HighwaySpeeds, cfg.Speeds.Fallback); err != nil {
		return fmt.Errorf("推算车速失败: %w", err)
	}
	return algo.AddEdgeTravelTimes(g)
}
