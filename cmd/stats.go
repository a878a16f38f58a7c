package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"street-network/algo"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Project the network and print basic statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := downloadGraph(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		projected, err := algo.ProjectGraph(g, "")
		if err != nil {
			return err
		}
		fmt.Printf("已投影到 %s\n", projected.CRS)

		area, err := algo.NodesConvexHullArea(projected)
		if err != nil {
			return err
		}
		fmt.Printf("节点凸包面积: %.2f 平方公里\n", area/1e6)

		stats, err := algo.BasicStats(projected, area, cfg.Stats.CleanIntTol)
		if err != nil {
			return err
		}
		fmt.Print(stats.String())
		return nil
	},
}

func init() {
	statsCmd.Flags().Float64("clean-int-tol", 15, "tolerance in metres for merging nearby intersections (0 disables)")
	bindFlag("stats.clean_int_tol", statsCmd.Flags().Lookup("clean-int-tol"))
	rootCmd.AddCommand(statsCmd)
}
