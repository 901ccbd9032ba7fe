// Package session owns the process-wide session state: uploaded files, the
// last analysis result, the active analysis run and the chat history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insightflow/backend/internal/analysis"
	"github.com/insightflow/backend/internal/models"
)

// MaxFiles bounds the file set to keep analysis requests within model limits.
const MaxFiles = 20

// RunRetention is how long a finished run record stays queryable before the
// background cleanup clears it. The result itself is kept until reset.
const RunRetention = 30 * time.Minute

// ErrAnalysisActive means a run is already in flight; only one orchestrated
// analysis runs at a time.
var ErrAnalysisActive = errors.New("an analysis is already running")

// ErrTooManyFiles rejects uploads past the MaxFiles bound.
var ErrTooManyFiles = fmt.Errorf("file limit reached (max %d)", MaxFiles)

// Analyzer is what the manager needs from the analysis orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, files []*models.UploadedFile, onProgress analysis.ProgressFunc) (*models.AnalysisResult, error)
}

// Notifier receives run snapshots for live status feeds. May be nil.
type Notifier func(run models.AnalysisRun)

// Manager holds all mutable session state behind one mutex. State is only
// mutated in response to a completed step, never concurrently: handlers are
// sequential per operation and the background run goroutine goes through the
// same lock.
type Manager struct {
	mu sync.RWMutex

	files    []*models.UploadedFile
	messages []models.ChatMessage
	result   *models.AnalysisResult
	run      *models.AnalysisRun
	runDone  time.Time

	analyzer Analyzer
	notify   Notifier
}

// NewManager creates an empty session manager.
func NewManager(analyzer Analyzer, notify Notifier) *Manager {
	return &Manager{analyzer: analyzer, notify: notify}
}

// AddFile appends an extracted file to the session in upload order.
func (m *Manager) AddFile(f *models.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.files) >= MaxFiles {
		return ErrTooManyFiles
	}
	m.files = append(m.files, f)
	return nil
}

// Files returns the current file set in upload order.
func (m *Manager) Files() []*models.UploadedFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.UploadedFile, len(m.files))
	copy(out, m.files)
	return out
}

// RemoveFile deletes one file by id.
func (m *Manager) RemoveFile(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.files {
		if f.ID == id {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return true
		}
	}
	return false
}

// Result returns the last analysis result, or nil.
func (m *Manager) Result() *models.AnalysisResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

// Run returns a snapshot of the current run, or nil when none was started.
func (m *Manager) Run() (*models.AnalysisRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.run == nil {
		return nil, false
	}
	snapshot := *m.run
	return &snapshot, true
}

// StartAnalysis snapshots the current files and launches a background run.
// A second start while one is in flight fails with ErrAnalysisActive; the
// empty-batch check runs here so no goroutine is spawned for nothing.
func (m *Manager) StartAnalysis() (*models.AnalysisRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run != nil && !m.run.Finished() {
		return nil, ErrAnalysisActive
	}
	if len(m.files) == 0 {
		return nil, analysis.ErrNoValidFiles
	}

	files := make([]*models.UploadedFile, len(m.files))
	copy(files, m.files)

	run := models.NewAnalysisRun(uuid.New().String(), len(files))
	run.Status = models.RunStatusRunning
	m.run = run

	go m.runAnalysis(run.ID, files)

	snapshot := *run
	return &snapshot, nil
}

func (m *Manager) runAnalysis(runID string, files []*models.UploadedFile) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Analysis %s] PANIC recovered: %v\n", shortID(runID), r)
			m.finishRun(runID, nil, fmt.Errorf("analysis panicked: %v", r), time.Time{})
		}
	}()

	start := time.Now()
	fmt.Printf("[Analysis %s] Starting with %d file(s)\n", shortID(runID), len(files))

	processed := 0
	onProgress := func(stage string) {
		m.mu.Lock()
		if m.run != nil && m.run.ID == runID {
			m.run.Stage = stage
			m.run.Progress = stageProgress(stage, &processed, len(files))
			if m.notify != nil {
				go m.notify(*m.run)
			}
		}
		m.mu.Unlock()
	}

	result, err := m.analyzer.Analyze(context.Background(), files, onProgress)
	m.finishRun(runID, result, err, start)
}

func (m *Manager) finishRun(runID string, result *models.AnalysisResult, err error, start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run == nil || m.run.ID != runID {
		return
	}
	if !start.IsZero() {
		m.run.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	m.runDone = time.Now()

	if err != nil {
		fmt.Printf("[Analysis %s] ERROR: %v\n", shortID(runID), err)
		m.run.Status = models.RunStatusError
		m.run.Error = err.Error()
	} else {
		fmt.Printf("[Analysis %s] Complete in %dms\n", shortID(runID), m.run.ProcessingTimeMs)
		m.run.Status = models.RunStatusComplete
		m.run.Progress = 100
		m.run.Stage = ""
		m.result = result
	}

	if m.notify != nil {
		go m.notify(*m.run)
	}
}

// stageProgress maps orchestrator stages onto a coarse 0-100 scale: reading
// opens at 10, per-file processing spreads to 70, generation sits at 85
// until completion bumps to 100.
func stageProgress(stage string, processed *int, total int) float64 {
	switch {
	case stage == "Reading documents...":
		return 10
	case stage == "Generating strategic intelligence...":
		return 85
	default:
		*processed++
		if total == 0 {
			return 10
		}
		p := 10 + float64(*processed)*60/float64(total)
		if p > 70 {
			p = 70
		}
		return p
	}
}

// Messages returns the chat history in send order.
func (m *Manager) Messages() []models.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// AppendMessage adds one turn to the history and returns it. The caller
// appends the user turn before requesting the assistant reply, so a user
// message is always recorded ahead of its answer.
func (m *Manager) AppendMessage(role models.MessageRole, text string) models.ChatMessage {
	msg := models.NewChatMessage(role, text)
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	return msg
}

// Reset discards all session state: files, result, run and history.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = nil
	m.messages = nil
	m.result = nil
	m.run = nil
	m.runDone = time.Time{}
}

// CleanupStaleRun clears a finished run record older than maxAge. Called
// periodically from main; the analysis result itself survives until reset.
func (m *Manager) CleanupStaleRun(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil || !m.run.Finished() {
		return
	}
	if time.Since(m.runDone) > maxAge {
		fmt.Printf("[Session] Cleared stale run %s\n", shortID(m.run.ID))
		m.run = nil
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
