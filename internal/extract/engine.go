package extract

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Engine prepares the optional supplementary resource bundle used by PDF text
// extraction (encoding tables for documents whose fonts carry no embedded
// text mapping). It is an explicit, idempotent, lazily-initialized singleton:
// construct it once at startup with the configured URLs and timeout, and call
// Init before extracting. Init fetches the bundle from the primary URL into a
// local cache file; on failure it retries against the fallback URL; if both
// fail, extraction simply proceeds without the bundle.
type Engine struct {
	primaryURL  string
	fallbackURL string
	timeout     time.Duration
	cacheDir    string

	once         sync.Once
	mu           sync.RWMutex
	resourcePath string
	initErr      error
}

// DefaultInitTimeout bounds the resource fetch so a slow CDN cannot stall the
// first extraction.
const DefaultInitTimeout = 3 * time.Second

// NewEngine creates an engine. Empty URLs make Init a no-op, which is the
// default for air-gapped deployments.
func NewEngine(primaryURL, fallbackURL string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	return &Engine{
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		timeout:     timeout,
		cacheDir:    os.TempDir(),
	}
}

// Init fetches the resource bundle once. Safe to call from every extraction;
// only the first call does work. The returned error is informational: callers
// are expected to continue without the bundle.
func (e *Engine) Init() error {
	e.once.Do(func() {
		if e.primaryURL == "" {
			return
		}

		path, err := e.fetch(e.primaryURL)
		if err != nil && e.fallbackURL != "" {
			fmt.Printf("[Engine] primary resource fetch failed (%v), trying fallback\n", err)
			path, err = e.fetch(e.fallbackURL)
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			e.initErr = err
			fmt.Printf("[Engine] resource bundle unavailable, extracting without it: %v\n", err)
			return
		}
		e.resourcePath = path
	})

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initErr
}

// Ready reports whether the resource bundle was fetched.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resourcePath != ""
}

// ResourcePath returns the local cache path of the bundle, or "" when the
// engine runs degraded.
func (e *Engine) ResourcePath() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resourcePath
}

func (e *Engine) fetch(url string) (string, error) {
	client := &http.Client{Timeout: e.timeout}
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp(e.cacheDir, "insightflow-pdf-resource-*")
	if err != nil {
		return "", fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("caching resource: %w", err)
	}
	return filepath.Clean(f.Name()), nil
}
