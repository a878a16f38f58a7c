package cmd

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"

	"street-network/algo"
	"street-network/model"
	"street-network/render"
)

// savePlot 保存图片，配置高度为 0 时按路网范围计算
func savePlot(p *plot.Plot, g *algo.Graph, cfg model.PlotConfig, path string) error {
	height := cfg.Height
	if height <= 0 {
		height = render.AspectHeight(g, cfg.Width)
	}
	if err := render.Save(p, path, cfg.Width, height); err != nil {
		return err
	}
	fmt.Printf("图片已保存: %s\n", path)
	return nil
}

// plainPlot 单色路网图
func plainPlot(g *algo.Graph, cfg model.PlotConfig) (*plot.Plot, error) {
	opts, err := render.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return render.PlotGraph(g, opts)
}

// centralityPlot 计算线图接近中心性，并按中心性给边着色
func centralityPlot(g *algo.Graph, cfg model.PlotConfig) (*plot.Plot, error) {
	fmt.Println("正在计算边的接近中心性...")
	algo.EdgeClosenessCentrality(g, os.Stderr)

	colors, err := render.EdgeColorsByAttr(g, "edge_centrality", cfg.Cmap)
	if err != nil {
		return nil, err
	}
	opts, err := render.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.EdgeColors = colors
	opts.NodeSize = 0
	return render.PlotGraph(g, opts)
}
