// Package report renders forecasts with gonum/plot.
//
// The chart builders in charts.go are shared by the PDF reports and the
// dashboard SVG endpoints. Renderer produces the two multipage reports:
// one population page per region, and one GDP plus sector page per
// region with economic data.
package report
