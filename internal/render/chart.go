package render

import (
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
	"github.com/numpex/exa-di-g5k-dashboard/internal/trend"
	"github.com/numpex/exa-di-g5k-dashboard/pkg/alg/stats"
)

const (
	chartWidth  = "100%"
	chartHeight = "460px"

	lineWidth          = 2
	axisLabelFontSize  = 10
	axisLabelRotate    = 45
	dataZoomEndPercent = 100

	timeLabelLayout = "2006-01-02 15:04"
)

// Series colors, shared across charts so raw and trend read the same way
// everywhere on a page.
const (
	rawSeriesColor   = "#0369a1" // sky-700.
	trendSeriesColor = "#c2410c" // orange-700.
)

const trendSeriesName = "step trend"

// TimingChart plots one timing series against its revision timestamps and
// overlays the piecewise-constant step trend computed at threshold. The raw
// series carries name in tooltips and the legend.
func TimingChart(name string, labels []string, series []float64, threshold float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "0"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate:   axisLabelRotate,
				FontSize: axisLabelFontSize,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
		charts.WithGridOpts(opts.Grid{
			Left: "5%", Right: "5%",
			Top: "40", Bottom: "18%",
			ContainLabel: opts.Bool(true),
		}),
	)

	line.SetXAxis(labels)
	line.AddSeries(name, lineData(series),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: rawSeriesColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	// The trend series holds segment means, so a step line only breaks at
	// segment boundaries.
	line.AddSeries(trendSeriesName, lineData(trend.DetectSteps(series, threshold)),
		charts.WithLineChartOpts(opts.LineChart{Step: "end"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: trendSeriesColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	return line
}

// HistoryPage assembles the chart page of one configuration file: one chart
// per timing field plus their sum, each with its step-trend overlay. The
// total series segments at the compute threshold, compute time being the
// dominant term.
func HistoryPage(filePath string, hist history.History, initialThreshold, computeThreshold float64) *Page {
	labels := timeLabels(hist.Times())

	initial := hist.Series(results.FieldInitialTime)
	compute := hist.Series(results.FieldComputeTime)
	total := hist.TotalSeries(results.FieldInitialTime, results.FieldComputeTime)

	page := NewPage(filePath, fmt.Sprintf("%d revisions", len(hist)))
	page.Add(
		Section{
			Title:    "Initialization time",
			Subtitle: sectionNote(results.FieldInitialTime, initial, initialThreshold),
			Chart:    TimingChart(results.FieldInitialTime, labels, initial, initialThreshold),
		},
		Section{
			Title:    "Compute time",
			Subtitle: sectionNote(results.FieldComputeTime, compute, computeThreshold),
			Chart:    TimingChart(results.FieldComputeTime, labels, compute, computeThreshold),
		},
		Section{
			Title:    "Total time",
			Subtitle: sectionNote("initial_time + compute_time", total, computeThreshold),
			Chart:    TimingChart(results.FieldTotalTime, labels, total, computeThreshold),
		},
	)

	return page
}

// sectionNote summarizes one chart section: the series plotted, its spread
// over the history, and the threshold the step trend was computed at.
func sectionNote(series string, values []float64, threshold float64) string {
	if len(values) == 0 {
		return fmt.Sprintf("%s per revision, step trend at threshold %g", series, threshold)
	}

	mean, stddev := stats.MeanStdDev(values)

	return fmt.Sprintf("%s per revision, mean %.4g ± %.3g s, step trend at threshold %g",
		series, mean, stddev, threshold)
}

// timeLabels formats entry timestamps for the x axis.
func timeLabels(times []time.Time) []string {
	labels := make([]string, len(times))

	for i, ts := range times {
		labels[i] = ts.Format(timeLabelLayout)
	}

	return labels
}

// lineData wraps a numeric series for echarts.
func lineData(series []float64) []opts.LineData {
	data := make([]opts.LineData, len(series))

	for i, v := range series {
		data[i] = opts.LineData{Value: v}
	}

	return data
}
