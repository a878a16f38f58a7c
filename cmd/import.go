package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/db"
	"street-network/model"
	"street-network/osm"
)

var importStores bool

// importPlace 下载路网 (可选门店) 并写入数据库
func importPlace(ctx context.Context, cfg *model.Config, withStores bool) (*db.NetworkRecord, error) {
	g, err := downloadGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}
	network, err := db.SaveGraph(cfg.Place, cfg.NetworkType, g)
	if err != nil {
		return nil, err
	}
	if !withStores {
		return network, nil
	}

	features, err := downloadFeatures(ctx, cfg)
	if errors.Is(err, osm.ErrEmptyResult) {
		log.Printf("%s 没有匹配的门店", cfg.Place)
		return network, nil
	}
	if err != nil {
		return nil, err
	}
	deduped, _, err := algo.DedupeFeatures(features, cfg.Cluster.Eps, cfg.Cluster.MinSamples)
	if err != nil {
		return nil, err
	}
	if err := db.SaveFeatures(cfg.Place, deduped); err != nil {
		return nil, err
	}
	fmt.Printf("门店已入库: %d 个\n", len(deduped))
	return network, nil
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download the network (and stores) and save them to PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := db.InitDB(cfg.Database); err != nil {
			return err
		}
		network, err := importPlace(cmd.Context(), cfg, importStores)
		if err != nil {
			return err
		}
		fmt.Printf("路网已入库, ID: %d\n", network.ID)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importStores, "stores", true, "also import deduplicated stores")
	rootCmd.AddCommand(importCmd)
}
