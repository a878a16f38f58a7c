package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var centralityPlotPath string

var centralityCmd = &cobra.Command{
	Use:   "centrality",
	Short: "Colour edges by closeness centrality of the line graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := downloadGraph(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		p, err := centralityPlot(g, cfg.Plot)
		if err != nil {
			return err
		}

		best, bestScore := -1, -1.0
		for i, e := range g.Edges() {
			if e.Centrality > bestScore {
				best, bestScore = i, e.Centrality
			}
		}
		if best >= 0 {
			e := g.Edges()[best]
			fmt.Printf("中心性最高的边: (%d, %d, %d) %v  %.4f\n", e.U, e.V, e.Key, e.Name, e.Centrality)
		}
		return savePlot(p, g, cfg.Plot, centralityPlotPath)
	},
}

func init() {
	centralityCmd.Flags().StringVar(&centralityPlotPath, "plot", "centrality.png", "output figure path")
	centralityCmd.Flags().String("cmap", "blackbody", "colormap: blackbody, extended-blackbody, kindlmann, extended-kindlmann, bluered")
	bindFlag("plot.cmap", centralityCmd.Flags().Lookup("cmap"))
	rootCmd.AddCommand(centralityCmd)
}
