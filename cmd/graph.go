package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/export"
)

var graphFlags struct {
	plot    string
	graphml string
	gpkg    string
	geojson string
	convert bool
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Download a place's street network and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := downloadGraph(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		if graphFlags.convert {
			if err := printConversions(g); err != nil {
				return err
			}
		}
		if graphFlags.plot != "" {
			p, err := plainPlot(g, cfg.Plot)
			if err != nil {
				return err
			}
			if err := savePlot(p, g, cfg.Plot, graphFlags.plot); err != nil {
				return err
			}
		}
		if graphFlags.graphml != "" {
			if err := export.SaveGraphML(g, graphFlags.graphml); err != nil {
				return err
			}
			fmt.Printf("GraphML 已保存: %s\n", graphFlags.graphml)
		}
		if graphFlags.gpkg != "" {
			if err := export.SaveGeoPackage(g, graphFlags.gpkg); err != nil {
				return err
			}
			fmt.Printf("GeoPackage 已保存: %s\n", graphFlags.gpkg)
		}
		if graphFlags.geojson != "" {
			nodesPath := graphFlags.geojson + "_nodes.geojson"
			edgesPath := graphFlags.geojson + "_edges.geojson"
			if err := export.SaveGeoJSON(nodesPath, export.NodesGeoJSON(g)); err != nil {
				return err
			}
			if err := export.SaveGeoJSON(edgesPath, export.EdgesGeoJSON(g)); err != nil {
				return err
			}
			fmt.Printf("GeoJSON 已保存: %s, %s\n", nodesPath, edgesPath)
		}
		return nil
	},
}

// printConversions 打印有向/无向/表格之间转换的结果
func printConversions(g *algo.Graph) error {
	gu := algo.ToUndirected(g)
	fmt.Printf("无向多重图: %d 个节点, %d 条边\n", len(gu.Nodes), gu.NumEdges())

	gd, err := algo.ToDigraph(g, algo.WeightLength)
	if err != nil {
		return err
	}
	fmt.Printf("有向简单图: %d 个节点, %d 条边\n", len(gd.Nodes), gd.NumEdges())

	nodes, edges, err := algo.ToTables(g)
	if err != nil {
		return err
	}
	fmt.Printf("节点表 %d 行, 边表 %d 行\n", len(nodes), len(edges))

	g2, err := algo.FromTables(nodes, edges, g.Meta())
	if err != nil {
		return err
	}
	fmt.Printf("由表格重建: %d 个节点, %d 条边\n", len(g2.Nodes), g2.NumEdges())
	return nil
}

func init() {
	graphCmd.Flags().StringVar(&graphFlags.plot, "plot", "", "save a figure of the network (png/svg/pdf)")
	graphCmd.Flags().StringVar(&graphFlags.graphml, "graphml", "", "save the graph as GraphML")
	graphCmd.Flags().StringVar(&graphFlags.gpkg, "gpkg", "", "save nodes and edges as a GeoPackage")
	graphCmd.Flags().StringVar(&graphFlags.geojson, "geojson", "", "save <prefix>_nodes.geojson and <prefix>_edges.geojson")
	graphCmd.Flags().BoolVar(&graphFlags.convert, "convert", false, "print undirected/digraph/table conversion summary")
	rootCmd.AddCommand(graphCmd)
}
