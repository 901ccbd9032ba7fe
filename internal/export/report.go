// Package export composes the dashboard snapshot and a chat digest into a
// paginated report. It consumes AnalysisResult and ChatMessage only.
package export

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/insightflow/backend/internal/models"
)

// MaxDigestTurns is how many of the most recent chat turns the report keeps.
const MaxDigestTurns = 6

// TurnsPerPage fixes the conversation pagination.
const TurnsPerPage = 3

// lineCharLimit keeps one digest line printable on a report page.
const lineCharLimit = 400

// ChartSpec describes the chart to render on the dashboard page.
type ChartSpec struct {
	Type   models.ChartType    `json:"type" msgpack:"type"`
	Points []models.ChartPoint `json:"points" msgpack:"points"`
}

// DashboardPage is the first page of the report.
type DashboardPage struct {
	Summary  string           `json:"summary" msgpack:"summary"`
	Kpis     []models.Kpi     `json:"kpis" msgpack:"kpis"`
	Insights []models.Insight `json:"insights" msgpack:"insights"`
	Chart    ChartSpec        `json:"chart" msgpack:"chart"`
}

// ConversationPage is one page of the chat digest.
type ConversationPage struct {
	Number int      `json:"number" msgpack:"number"`
	Lines  []string `json:"lines" msgpack:"lines"`
}

// Report is the full export artifact.
type Report struct {
	Title        string             `json:"title" msgpack:"title"`
	GeneratedAt  time.Time          `json:"generatedAt" msgpack:"generatedAt"`
	Dashboard    *DashboardPage     `json:"dashboard,omitempty" msgpack:"dashboard,omitempty"`
	Conversation []ConversationPage `json:"conversation,omitempty" msgpack:"conversation,omitempty"`
}

// Compose builds a report from the last analysis and chat history. Either
// input may be empty; the report carries whatever exists.
func Compose(result *models.AnalysisResult, messages []models.ChatMessage) *Report {
	report := &Report{
		Title:       "InsightFlow Report",
		GeneratedAt: time.Now(),
	}

	if result != nil {
		report.Dashboard = &DashboardPage{
			Summary:  result.Summary,
			Kpis:     result.Kpis,
			Insights: result.Insights,
			Chart: ChartSpec{
				Type:   result.ChartType,
				Points: result.ChartData,
			},
		}
	}

	report.Conversation = paginate(digest(messages))
	return report
}

// Msgpack serializes the report compactly for download.
func (r *Report) Msgpack() ([]byte, error) {
	return msgpack.Marshal(r)
}

func digest(messages []models.ChatMessage) []string {
	if len(messages) > MaxDigestTurns {
		messages = messages[len(messages)-MaxDigestTurns:]
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "You"
		if msg.Role == models.RoleAssistant {
			speaker = "Advisor"
		}
		text := msg.Text
		if len(text) > lineCharLimit {
			text = text[:lineCharLimit] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, text))
	}
	return lines
}

func paginate(lines []string) []ConversationPage {
	var pages []ConversationPage
	for start := 0; start < len(lines); start += TurnsPerPage {
		end := start + TurnsPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, ConversationPage{
			Number: len(pages) + 1,
			Lines:  lines[start:end],
		})
	}
	return pages
}
