package topology

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"dialectical-topology/internal/dataset"
)

// ChartRenderer draws the worldview and flow lenses as standalone ECharts
// pages.
type ChartRenderer struct {
	svc        *Service
	assetsHost string
}

// NewChartRenderer returns a renderer reading fixtures through svc. An empty
// assetsHost uses the go-echarts default.
func NewChartRenderer(svc *Service, assetsHost string) *ChartRenderer {
	return &ChartRenderer{svc: svc, assetsHost: assetsHost}
}

// Worldviews writes a radar of both debaters' positions on every dimension.
func (c *ChartRenderer) Worldviews(ctx context.Context, w io.Writer) error {
	o, err := c.svc.loader.Ontology(ctx)
	if err != nil {
		return err
	}
	return c.page(worldviewRadar(o, c.assetsHost)).Render(w)
}

// Flow writes the emotional arc of the conversation as a line chart.
func (c *ChartRenderer) Flow(ctx context.Context, w io.Writer) error {
	f, err := c.svc.loader.Flow(ctx)
	if err != nil {
		return err
	}
	return c.page(emotionalArc(f, c.assetsHost)).Render(w)
}

func (c *ChartRenderer) page(ch components.Charter) *components.Page {
	page := components.NewPage()
	if c.assetsHost != "" {
		page.SetAssetsHost(c.assetsHost)
	}
	page.AddCharts(ch)
	return page
}

func worldviewRadar(o *dataset.Ontology, assetsHost string) *charts.Radar {
	indicators := make([]*opts.Indicator, 0, len(o.Dimensions))
	for _, d := range o.Dimensions {
		indicators = append(indicators, &opts.Indicator{Name: d.Label, Max: 1})
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Worldview Map", Width: "900px", Height: "720px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Worldview Map", Subtitle: fmt.Sprintf("dimensions=%d", len(o.Dimensions))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators, Shape: "polygon"}),
	)

	for _, sp := range []dataset.Speaker{dataset.SpeakerMarcus, dataset.SpeakerDemartini} {
		values := make([]float64, 0, len(o.Dimensions))
		for _, d := range o.Dimensions {
			pos, _ := d.PositionOf(sp)
			values = append(values, pos.Position)
		}
		radar.AddSeries(sp.Name(), []opts.RadarData{{Name: sp.Name(), Value: values}},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: sp.Tone().Hex()}))
	}
	return radar
}

func emotionalArc(f *dataset.Flow, assetsHost string) *charts.Line {
	x := make([]string, 0, len(f.EmotionalArc.Trajectory))
	y := make([]opts.LineData, 0, len(f.EmotionalArc.Trajectory))
	for _, p := range f.EmotionalArc.Trajectory {
		x = append(x, dataset.FormatTime(p.Time))
		y = append(y, opts.LineData{Name: p.Note, Value: p.Intensity})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Dialectical Flow", Width: "100%", Height: "480px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Emotional Arc", Subtitle: f.EmotionalArc.Description}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "intensity"}),
	)
	line.SetXAxis(x).
		AddSeries("intensity", y,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: dataset.ToneConvergence.Hex()}))
	return line
}
