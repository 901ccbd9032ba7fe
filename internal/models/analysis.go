package models

// ChartType selects how the dashboard renders the chart data.
type ChartType string

const (
	ChartTypeArea ChartType = "area"
	ChartTypeBar  ChartType = "bar"
	ChartTypeLine ChartType = "line"
	ChartTypePie  ChartType = "pie"
)

// Trend is the direction attached to a KPI.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// InsightType categorizes a finding.
type InsightType string

const (
	InsightProblem     InsightType = "problem"
	InsightOpportunity InsightType = "opportunity"
	InsightInfo        InsightType = "info"
)

// Kpi is a labeled metric with a formatted value and a directional trend.
type Kpi struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend Trend  `json:"trend,omitempty"`
}

// Insight is a short categorized finding with a recommended action.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
}

// ChartPoint is one category/value pair on the dashboard chart.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MaxChartPoints is the chart size contract given to the model.
const MaxChartPoints = 7

// AnalysisResult is the canonical output of one analysis run. Replaced
// wholesale on a new analysis or reset, never partially mutated.
type AnalysisResult struct {
	Summary            string       `json:"summary"`
	Kpis               []Kpi        `json:"kpis"`
	Insights           []Insight    `json:"insights"`
	ChartData          []ChartPoint `json:"chartData"`
	ChartType          ChartType    `json:"chartType"`
	SuggestedQuestions []string     `json:"suggestedQuestions"`
}

// FillDefaults replaces absent optional fields so downstream consumers never
// observe nil collections or an empty chart type.
func (r *AnalysisResult) FillDefaults() {
	if r.Kpis == nil {
		r.Kpis = []Kpi{}
	}
	if r.Insights == nil {
		r.Insights = []Insight{}
	}
	if r.ChartData == nil {
		r.ChartData = []ChartPoint{}
	}
	if r.SuggestedQuestions == nil {
		r.SuggestedQuestions = []string{}
	}
	if r.ChartType == "" {
		r.ChartType = ChartTypeArea
	}
	if len(r.ChartData) > MaxChartPoints {
		r.ChartData = r.ChartData[:MaxChartPoints]
	}
}
