package main

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// writeReport renders an interactive HTML page with the cross-track and
// steer time series plus a plan-view scatter of the driven path.
func writeReport(path, scenarioName string, samples []sample) error {
	xAxis := make([]string, len(samples))
	xteData := make([]opts.LineData, len(samples))
	steerData := make([]opts.LineData, len(samples))
	pathData := make([]opts.ScatterData, len(samples))
	for i, s := range samples {
		xAxis[i] = fmt.Sprintf("%.1f", s.T)
		xteData[i] = opts.LineData{Value: s.XTE}
		steerData[i] = opts.LineData{Value: s.Steer}
		pathData[i] = opts.ScatterData{Value: []interface{}{s.E, s.N}}
	}

	xteLine := charts.NewLine()
	xteLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "guidesim " + scenarioName, Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cross-Track Error",
			Subtitle: fmt.Sprintf("scenario=%s samples=%d", scenarioName, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "XTE (m)"}),
	)
	xteLine.SetXAxis(xAxis).AddSeries("xte", xteData)

	steerLine := charts.NewLine()
	steerLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Steer Command"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Steer (rad)"}),
	)
	steerLine.SetXAxis(xAxis).AddSeries("steer", steerData)

	pathScatter := charts.NewScatter()
	pathScatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Driven Path"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Easting (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Northing (m)"}),
	)
	pathScatter.AddSeries("vehicle", pathData)

	page := components.NewPage()
	page.AddCharts(xteLine, steerLine, pathScatter)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}
