package analysis

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/backend/internal/ai"
	"github.com/insightflow/backend/internal/models"
	"github.com/insightflow/backend/internal/testutil"
)

func textFile(name, content string) *models.UploadedFile {
	return &models.UploadedFile{
		ID:       "id-" + name,
		Name:     name,
		Type:     "text/plain",
		MimeType: "text/plain",
		Content:  content,
	}
}

func TestAnalyzeNoFilesFailsBeforeNetworkCall(t *testing.T) {
	fake := &testutil.FakeAI{}
	o := New(fake)

	_, err := o.Analyze(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoValidFiles)
	assert.Zero(t, fake.StructuredCalls())
}

func TestAnalyzeMissingCredential(t *testing.T) {
	o := New(nil)
	_, err := o.Analyze(context.Background(), []*models.UploadedFile{textFile("a.txt", "x")}, nil)
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	fake := &testutil.FakeAI{
		StructuredText: `{"summary":"ok","kpis":[],"insights":[],"chartData":[{"name":"Q1","value":100}],"chartType":"bar","suggestedQuestions":[]}`,
	}
	o := New(fake)

	var stages []string
	files := []*models.UploadedFile{textFile("revenue.txt", "Revenue: 100, 200, 150")}
	result, err := o.Analyze(context.Background(), files, func(stage string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	assert.Equal(t, models.ChartTypeBar, result.ChartType)
	require.Len(t, result.ChartData, 1)
	assert.Equal(t, "Q1", result.ChartData[0].Name)
	assert.Equal(t, 100.0, result.ChartData[0].Value)

	// One text part plus the instruction part, content unmodified.
	req := fake.LastStructured()
	require.Len(t, req.Parts, 2)
	assert.Contains(t, req.Parts[0].Text, "FILE: revenue.txt\nRevenue: 100, 200, 150\n---")
	assert.NotContains(t, req.Parts[0].Text, TruncationMarker)
	assert.Equal(t, ai.DashboardPrompt, req.Parts[1].Text)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Equal(t, int32(8192), req.MaxOutputTokens)

	require.NotEmpty(t, stages)
	assert.Equal(t, "Reading documents...", stages[0])
	assert.Contains(t, stages, "Processing revenue.txt...")
	assert.Equal(t, "Generating strategic intelligence...", stages[len(stages)-1])
}

func TestAnalyzeTruncatesLongFiles(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	o := New(fake)

	long := strings.Repeat("x", MaxFileChars+500)
	_, err := o.Analyze(context.Background(), []*models.UploadedFile{textFile("big.txt", long)}, nil)
	require.NoError(t, err)

	part := fake.LastStructured().Parts[0].Text
	// Strip the label and trailing separator to isolate the content block.
	body := strings.TrimSuffix(strings.TrimPrefix(part, "FILE: big.txt\n"), "\n---")
	assert.True(t, strings.HasSuffix(body, TruncationMarker))
	assert.Equal(t, MaxFileChars+len(TruncationMarker), len(body))
}

func TestAnalyzeImageSentInline(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	o := New(fake)

	img := &models.UploadedFile{
		ID:       "img",
		Name:     "chart.png",
		Type:     "image/png",
		MimeType: "image/png",
		Content:  "iVBORw0KGgo=", // base64 of the PNG magic prefix
	}
	_, err := o.Analyze(context.Background(), []*models.UploadedFile{img}, nil)
	require.NoError(t, err)

	req := fake.LastStructured()
	require.Len(t, req.Parts, 2)
	assert.NotNil(t, req.Parts[0].Inline)
	assert.Equal(t, "image/png", req.Parts[0].MIMEType)
}

func TestAnalyzeSurfacesRateLimit(t *testing.T) {
	fake := &testutil.FakeAI{StructuredErr: ai.ErrRateLimited}
	o := New(fake)

	_, err := o.Analyze(context.Background(), []*models.UploadedFile{textFile("a.txt", "x")}, nil)
	assert.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"truncated", `{"summary":"cut of`, ai.ErrTruncated},
		{"garbage", `the model rambled with no json`, ai.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &testutil.FakeAI{StructuredText: tt.raw}
			o := New(fake)
			_, err := o.Analyze(context.Background(), []*models.UploadedFile{textFile("a.txt", "x")}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAnalyzeTruncationKeepsValidUTF8(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	o := New(fake)

	// The cap lands mid-rune for this content; the cut must back off to a
	// rune boundary instead of shipping a split sequence.
	long := "xx" + strings.Repeat("€", MaxFileChars)
	_, err := o.Analyze(context.Background(), []*models.UploadedFile{textFile("big.txt", long)}, nil)
	require.NoError(t, err)

	part := fake.LastStructured().Parts[0].Text
	assert.True(t, utf8.ValidString(part))
	body := strings.TrimSuffix(strings.TrimPrefix(part, "FILE: big.txt\n"), "\n---")
	assert.True(t, strings.HasSuffix(body, TruncationMarker))
	assert.LessOrEqual(t, len(body), MaxFileChars+len(TruncationMarker))
}
