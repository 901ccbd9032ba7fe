package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysispkg "github.com/insightflow/backend/internal/analysis"
	"github.com/insightflow/backend/internal/models"
	"github.com/insightflow/backend/internal/testutil"
)

// blockingAnalyzer holds the run open until its gate closes, so tests can
// observe the in-flight state deterministically.
type blockingAnalyzer struct {
	fake *testutil.FakeAI
	gate chan struct{}
}

func (b blockingAnalyzer) Analyze(ctx context.Context, files []*models.UploadedFile, onProgress analysispkg.ProgressFunc) (*models.AnalysisResult, error) {
	<-b.gate
	return analysispkg.New(b.fake).Analyze(ctx, files, onProgress)
}

func newTestManager(fake *testutil.FakeAI) *Manager {
	return NewManager(analysispkg.New(fake), nil)
}

func addTextFile(t *testing.T, m *Manager, name, content string) {
	t.Helper()
	require.NoError(t, m.AddFile(&models.UploadedFile{
		ID: "id-" + name, Name: name, MimeType: "text/plain", Content: content,
	}))
}

func waitForRun(t *testing.T, m *Manager) *models.AnalysisRun {
	t.Helper()
	for i := 0; i < 50; i++ {
		run, ok := m.Run()
		require.True(t, ok)
		if run.Finished() {
			return run
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("run did not finish")
	return nil
}

func TestStartAnalysisLifecycle(t *testing.T) {
	fake := &testutil.FakeAI{
		StructuredText: `{"summary":"ok","chartType":"bar","chartData":[{"name":"Q1","value":100}]}`,
	}
	m := newTestManager(fake)
	addTextFile(t, m, "a.txt", "Revenue: 100")

	run, err := m.StartAnalysis()
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)

	final := waitForRun(t, m)
	assert.Equal(t, models.RunStatusComplete, final.Status)
	assert.Equal(t, 100.0, final.Progress)

	result := m.Result()
	require.NotNil(t, result)
	assert.Equal(t, models.ChartTypeBar, result.ChartType)
}

func TestStartAnalysisWithoutFiles(t *testing.T) {
	m := newTestManager(&testutil.FakeAI{})
	_, err := m.StartAnalysis()
	assert.ErrorIs(t, err, analysispkg.ErrNoValidFiles)
}

func TestStartAnalysisRejectsConcurrentRun(t *testing.T) {
	block := make(chan struct{})
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	m := NewManager(blockingAnalyzer{fake: fake, gate: block}, nil)
	addTextFile(t, m, "a.txt", "x")

	_, err := m.StartAnalysis()
	require.NoError(t, err)

	_, err = m.StartAnalysis()
	assert.ErrorIs(t, err, ErrAnalysisActive)

	close(block)
	waitForRun(t, m)

	// A finished run can be superseded.
	_, err = m.StartAnalysis()
	assert.NoError(t, err)
	waitForRun(t, m)
}

func TestRunErrorRecorded(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `nonsense without braces`}
	m := newTestManager(fake)
	addTextFile(t, m, "a.txt", "x")

	_, err := m.StartAnalysis()
	require.NoError(t, err)

	final := waitForRun(t, m)
	assert.Equal(t, models.RunStatusError, final.Status)
	assert.NotEmpty(t, final.Error)
	assert.Nil(t, m.Result())
}

func TestMessagesAppendInOrder(t *testing.T) {
	m := newTestManager(&testutil.FakeAI{})

	m.AppendMessage(models.RoleUser, "hello")
	m.AppendMessage(models.RoleAssistant, "hi")

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestResetClearsEverything(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	m := newTestManager(fake)
	addTextFile(t, m, "a.txt", "x")

	_, err := m.StartAnalysis()
	require.NoError(t, err)
	waitForRun(t, m)
	m.AppendMessage(models.RoleUser, "hello")

	m.Reset()

	assert.Empty(t, m.Files())
	assert.Empty(t, m.Messages())
	assert.Nil(t, m.Result())
	_, ok := m.Run()
	assert.False(t, ok)
}

func TestRemoveFile(t *testing.T) {
	m := newTestManager(&testutil.FakeAI{})
	addTextFile(t, m, "a.txt", "x")
	addTextFile(t, m, "b.txt", "y")

	require.True(t, m.RemoveFile("id-a.txt"))
	assert.False(t, m.RemoveFile("id-a.txt"))

	files := m.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Name)
}

func TestCleanupStaleRun(t *testing.T) {
	fake := &testutil.FakeAI{StructuredText: `{"summary":"ok"}`}
	m := newTestManager(fake)
	addTextFile(t, m, "a.txt", "x")

	_, err := m.StartAnalysis()
	require.NoError(t, err)
	waitForRun(t, m)

	m.CleanupStaleRun(time.Hour)
	_, ok := m.Run()
	assert.True(t, ok, "fresh runs survive cleanup")

	m.CleanupStaleRun(0)
	_, ok = m.Run()
	assert.False(t, ok)
	assert.NotNil(t, m.Result(), "result survives run cleanup")
}
