package extract

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineInitNoURLsIsNoop(t *testing.T) {
	e := NewEngine("", "", 0)
	require.NoError(t, e.Init())
	assert.False(t, e.Ready())
}

func TestEngineInitFetchesPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("resource-bytes"))
	}))
	defer srv.Close()

	e := NewEngine(srv.URL, "", time.Second)
	require.NoError(t, e.Init())
	require.True(t, e.Ready())

	data, err := os.ReadFile(e.ResourcePath())
	require.NoError(t, err)
	assert.Equal(t, "resource-bytes", string(data))
	t.Cleanup(func() { os.Remove(e.ResourcePath()) })
}

func TestEngineInitFallsBack(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	var fallbackHits int
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits++
		w.Write([]byte("fallback"))
	}))
	defer good.Close()

	e := NewEngine(bad.URL, good.URL, time.Second)
	require.NoError(t, e.Init())
	assert.True(t, e.Ready())
	assert.Equal(t, 1, fallbackHits)
	t.Cleanup(func() { os.Remove(e.ResourcePath()) })
}

func TestEngineInitIsIdempotent(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("once"))
	}))
	defer srv.Close()

	e := NewEngine(srv.URL, "", time.Second)
	require.NoError(t, e.Init())
	require.NoError(t, e.Init())
	require.NoError(t, e.Init())
	assert.Equal(t, 1, hits)
	t.Cleanup(func() { os.Remove(e.ResourcePath()) })
}

func TestEngineInitBothFailDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewEngine(srv.URL, srv.URL, time.Second)
	assert.Error(t, e.Init())
	assert.False(t, e.Ready())
	// Still usable: a degraded engine must not block extraction.
	assert.Equal(t, "", e.ResourcePath())
}
