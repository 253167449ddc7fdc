package registry

// Category classifies a transform type, per spec §3.8. It drives dispatch in
// both the execution kernels (C6) and the card-grouping post-pass (C7).
type Category int

const (
	CategoryDataSource Category = iota
	CategoryMath
	CategoryTrend
	CategoryMomentum
	CategoryVolatility
	CategoryVolume
	CategoryPriceAction
	CategoryScalar
	CategoryControlFlow
	CategoryFactor
	CategoryReporter
	CategoryEventMarker
	CategoryML
	CategoryPortfolio
	CategoryExecutor
	CategoryUtility
	CategoryAggregate
)

var categoryNames = map[Category]string{
	CategoryDataSource:  "DataSource",
	CategoryMath:        "Math",
	CategoryTrend:       "Trend",
	CategoryMomentum:    "Momentum",
	CategoryVolatility:  "Volatility",
	CategoryVolume:      "Volume",
	CategoryPriceAction: "PriceAction",
	CategoryScalar:      "Scalar",
	CategoryControlFlow: "ControlFlow",
	CategoryFactor:      "Factor",
	CategoryReporter:    "Reporter",
	CategoryEventMarker: "EventMarker",
	CategoryML:          "ML",
	CategoryPortfolio:   "Portfolio",
	CategoryExecutor:    "Executor",
	CategoryUtility:     "Utility",
	CategoryAggregate:   "Aggregate",
}

// String renders the category name, falling back to "Unknown" for any value
// outside the declared set — grounded on the table-lookup-with-fallback
// shape of the teacher's queue.GetJobDescription.
func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "Unknown"
}

// PlotKind is the optional chart-rendering hint a transform's metadata may
// declare; consumed only by internal/chartmeta, never by execution.
type PlotKind int

const (
	PlotKindNone PlotKind = iota
	PlotKindLine
	PlotKindArea
	PlotKindHistogram
	PlotKindCandlestick
	PlotKindScatter
	PlotKindHeatmap
	PlotKindTable
	PlotKindMarker
)

var plotKindNames = map[PlotKind]string{
	PlotKindNone:        "None",
	PlotKindLine:        "Line",
	PlotKindArea:        "Area",
	PlotKindHistogram:   "Histogram",
	PlotKindCandlestick: "Candlestick",
	PlotKindScatter:     "Scatter",
	PlotKindHeatmap:     "Heatmap",
	PlotKindTable:       "Table",
	PlotKindMarker:      "Marker",
}

func (p PlotKind) String() string {
	if s, ok := plotKindNames[p]; ok {
		return s
	}
	return "Unknown"
}
