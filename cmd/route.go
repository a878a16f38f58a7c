package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/model"
	"street-network/output"
	"street-network/render"
	"street-network/utils"
)

var routeFlags struct {
	orig       string
	dest       string
	weight     string
	plot       string
	routeColor string
	save       bool
}

// parseLatLng 解析 "lat,lng"
func parseLatLng(s string) (float64, float64, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("坐标格式应为 lat,lng: %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("纬度无效: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("经度无效: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("坐标超出范围: %q", s)
	}
	return lat, lng, nil
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find the shortest path between two lat/lng points",
	RunE: func(cmd *cobra.Command, args []string) error {
		origLat, origLng, err := parseLatLng(routeFlags.orig)
		if err != nil {
			return err
		}
		destLat, destLng, err := parseLatLng(routeFlags.dest)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := downloadGraph(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := addTravelTimes(g, cfg); err != nil {
			return err
		}

		ids, _, err := algo.NearestNodes(g, []float64{origLng, destLng}, []float64{origLat, destLat})
		if err != nil {
			return err
		}
		orig, dest := ids[0], ids[1]
		fmt.Printf("起点节点: %d, 终点节点: %d\n", orig, dest)

		result, err := g.Route(orig, dest, routeFlags.weight)
		if err != nil {
			return err
		}
		fmt.Print(g.FormatPath(result))

		roadMeters, err := g.RouteLength(result.Path)
		if err != nil {
			return err
		}
		o, d := g.Nodes[orig], g.Nodes[dest]
		airMeters := utils.GreatCircle(o.Y, o.X, d.Y, d.X)
		fmt.Printf("道路距离: %.0f 米\n", math.Round(roadMeters))
		fmt.Printf("直线距离: %.0f 米\n", math.Round(airMeters))

		if routeFlags.save {
			if err := saveRoute(cmd.Context(), cfg.Output, result); err != nil {
				return err
			}
		}

		if routeFlags.plot != "" && len(result.Path) > 1 {
			p, err := centralityPlot(g, cfg.Plot)
			if err != nil {
				return err
			}
			c, err := render.ParseColor(routeFlags.routeColor)
			if err != nil {
				return err
			}
			if err := render.AddRoute(p, g, result.Path, c, 4); err != nil {
				return err
			}
			return savePlot(p, g, cfg.Plot, routeFlags.plot)
		}
		return nil
	},
}

// saveRoute 将路径逐段写入表格输出
func saveRoute(ctx context.Context, cfg model.OutputConfig, result algo.PathResult) error {
	runID := output.NewRunID()
	dest, err := output.NewDestination(cfg, runID)
	if err != nil {
		return err
	}
	if err := output.WriteRoute(dest, runID, result); err != nil {
		_ = dest.Close()
		return err
	}
	return output.Finish(ctx, dest, cfg, runID)
}

func init() {
	routeCmd.Flags().StringVar(&routeFlags.orig, "orig", "33.12943,-80.12053", "origin as lat,lng")
	routeCmd.Flags().StringVar(&routeFlags.dest, "dest", "33.11436,-80.12757", "destination as lat,lng")
	routeCmd.Flags().StringVar(&routeFlags.weight, "weight", algo.WeightTravelTime, "edge weight: length or travel_time")
	routeCmd.Flags().StringVar(&routeFlags.plot, "plot", "", "save the route over the centrality-coloured network")
	routeCmd.Flags().StringVar(&routeFlags.routeColor, "route-color", "#ff0000", "route colour")
	routeCmd.Flags().BoolVar(&routeFlags.save, "save", false, "write route segments to the configured output")
	rootCmd.AddCommand(routeCmd)
}
