package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/export"
	"street-network/model"
	"street-network/output"
	"street-network/render"
)

var storesFlags struct {
	plot    string
	geojson string
	save    bool
}

// printReport 打印几何类型与有效性统计
func printReport(r algo.GeometryStats) {
	fmt.Printf("要素总数: %d\n", r.Total)
	fmt.Printf("null 几何: %d, 非 null 几何: %d (其中空集 %d)\n", r.Null, r.NonNull, r.Empty)
	types := make([]string, 0, len(r.ByType))
	for t := range r.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-15s %d\n", t, r.ByType[t])
	}
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Download store locations and merge duplicates with DBSCAN",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		features, err := downloadFeatures(ctx, cfg)
		if err != nil {
			return err
		}
		printReport(algo.GeometryReport(features))

		deduped, labels, err := algo.DedupeFeatures(features, cfg.Cluster.Eps, cfg.Cluster.MinSamples)
		if err != nil {
			return err
		}
		clusters := make(map[int]bool)
		for _, l := range labels {
			clusters[l] = true
		}
		fmt.Printf("共 %d 个簇\n", len(clusters))
		fmt.Printf("门店从 %d 个减少到 %d 个\n", len(labels), len(deduped))

		after := algo.GeometryReport(deduped)
		fmt.Printf("去重后 null 几何: %d, 非 null 几何: %d\n", after.Null, after.NonNull)

		if storesFlags.geojson != "" {
			if err := export.SaveGeoJSON(storesFlags.geojson, export.FeaturesGeoJSON(deduped)); err != nil {
				return err
			}
			fmt.Printf("GeoJSON 已保存: %s\n", storesFlags.geojson)
		}
		if storesFlags.save {
			if err := saveFeatures(cmd, cfg, deduped); err != nil {
				return err
			}
		}

		if storesFlags.plot != "" {
			g, err := downloadGraph(ctx, cfg)
			if err != nil {
				return err
			}
			p, err := centralityPlot(g, cfg.Plot)
			if err != nil {
				return err
			}
			c, err := render.ParseColor("#ff0000")
			if err != nil {
				return err
			}
			if err := render.AddPoints(p, deduped, c, 4, 0.5); err != nil {
				return err
			}
			return savePlot(p, g, cfg.Plot, storesFlags.plot)
		}
		return nil
	},
}

func saveFeatures(cmd *cobra.Command, cfg *model.Config, features []model.Feature) error {
	runID := output.NewRunID()
	dest, err := output.NewDestination(cfg.Output, runID)
	if err != nil {
		return err
	}
	if err := output.WriteFeatures(dest, runID, features); err != nil {
		_ = dest.Close()
		return err
	}
	return output.Finish(cmd.Context(), dest, cfg.Output, runID)
}

func init() {
	storesCmd.Flags().StringSlice("tag", nil, "tag filter key=value or key (repeatable, default brand=Walmart)")
	storesCmd.Flags().Float64("eps", 500, "DBSCAN radius in metres (EPSG:3857)")
	storesCmd.Flags().Int("min-samples", 1, "DBSCAN minimum cluster size")
	bindFlag("cluster.tags", storesCmd.Flags().Lookup("tag"))
	bindFlag("cluster.eps", storesCmd.Flags().Lookup("eps"))
	bindFlag("cluster.min_samples", storesCmd.Flags().Lookup("min-samples"))

	storesCmd.Flags().StringVar(&storesFlags.plot, "plot", "", "save stores over the centrality-coloured network")
	storesCmd.Flags().StringVar(&storesFlags.geojson, "geojson", "", "save deduplicated stores as GeoJSON")
	storesCmd.Flags().BoolVar(&storesFlags.save, "save", false, "write deduplicated stores to the configured output")
	rootCmd.AddCommand(storesCmd)
}
