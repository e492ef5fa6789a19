package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestInDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.db")
	if got := inDir("/data", abs); got != abs {
		t.Errorf("absolute path rewritten: %q", got)
	}
	if got := inDir("/data", "jobwatch.db"); got != filepath.Join("/data", "jobwatch.db") {
		t.Errorf("relative = %q", got)
	}
	if got := inDir("/data", ""); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestShutdownHandlerGuards(t *testing.T) {
	srv := &http.Server{}
	h := shutdownHandler("tok", srv)

	tests := []struct {
		name   string
		method string
		remote string
		token  string
		want   int
	}{
		{"get", http.MethodGet, "127.0.0.1:1", "tok", http.StatusMethodNotAllowed},
		{"remote", http.MethodPost, "203.0.113.9:1", "tok", http.StatusForbidden},
		{"bad token", http.MethodPost, "127.0.0.1:1", "nope", http.StatusUnauthorized},
		{"ok", http.MethodPost, "[::1]:1", "tok", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/shutdown", nil)
		req.RemoteAddr = tt.remote
		req.Header.Set("X-Shutdown-Token", tt.token)
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: code = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}
