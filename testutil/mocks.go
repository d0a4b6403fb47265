// Package testutil provides a mock platform API server for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is one recorded call against the mock server.
type Request struct {
	Path string
	Body map[string]any
}

// MockClubServer creates a test server that mocks platform API responses.
// Handlers are registered per endpoint path (e.g. "/get_channel"); unhandled
// endpoints return 200 with an empty JSON object, matching the platform's
// habit of acknowledging writes with no meaningful body.
type MockClubServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	calls    map[string]int
	requests []Request
}

// NewMockClubServer creates a new mock platform API server.
func NewMockClubServer(t *testing.T) *MockClubServer {
	t.Helper()
	m := &MockClubServer{
		Handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
		m.mu.Lock()
		m.calls[r.URL.Path]++
		m.requests = append(m.requests, Request{Path: r.URL.Path, Body: body})
		m.mu.Unlock()
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(m.Close)
	return m
}

// Calls returns how many requests hit the given endpoint path.
func (m *MockClubServer) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// Requests returns a snapshot of every recorded request in arrival order.
func (m *MockClubServer) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockJSON registers a handler returning the given value as JSON with status 200.
func (m *MockClubServer) MockJSON(path string, v any) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
	}
}

// MockStatus registers a handler returning only the given status code.
func (m *MockClubServer) MockStatus(path string, code int) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

// MockChannel registers a /get_channel handler returning the given room snapshot.
func (m *MockClubServer) MockChannel(channel string, users []map[string]any) {
	m.MockJSON("/get_channel", map[string]any{"channel": channel, "users": users})
}

// MockFeed registers a /get_feed_v3 handler with the given channel snapshots.
func (m *MockClubServer) MockFeed(channels ...map[string]any) {
	items := make([]map[string]any, 0, len(channels))
	for _, ch := range channels {
		items = append(items, map[string]any{"channel": ch})
	}
	m.MockJSON("/get_feed_v3", map[string]any{"items": items})
}
