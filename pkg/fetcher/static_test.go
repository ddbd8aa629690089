package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// --- StaticFetcher Tests ---

func TestNewStatic_Defaults(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.config.UserAgent != DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", f.config.UserAgent)
	}
	if f.config.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", f.config.Timeout)
	}
	if f.config.MaxBodySize <= 0 {
		t.Error("expected positive default body size")
	}
	if f.Type() != "static" {
		t.Errorf("Type() = %q", f.Type())
	}
}

func TestStaticFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>hi</title></html>"))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{UserAgent: "test-agent/1.0"})
	content, err := f.Fetch(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if content.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", content.StatusCode)
	}
	if string(content.Body) != "<html><title>hi</title></html>" {
		t.Errorf("Body = %q", content.Body)
	}
	if !strings.HasPrefix(content.ContentType, "text/html") {
		t.Errorf("ContentType = %q", content.ContentType)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("server saw user agent %q", gotUA)
	}
}

func TestStaticFetcher_Fetch_OptionsOverrideUserAgent(t *testing.T) {
	var gotUA, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotHeader = r.Header.Get("X-Test")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{UserAgent: "config-agent"})
	_, err := f.Fetch(context.Background(), srv.URL, Options{
		UserAgent: "option-agent",
		Headers:   map[string]string{"X-Test": "yes"},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotUA != "option-agent" {
		t.Errorf("user agent = %q, want option-agent", gotUA)
	}
	if gotHeader != "yes" {
		t.Errorf("X-Test header = %q", gotHeader)
	}
}

func TestStaticFetcher_Fetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{})
	content, err := f.Fetch(context.Background(), srv.URL, Options{})
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if content.StatusCode != http.StatusNotFound {
		t.Errorf("content.StatusCode = %d", content.StatusCode)
	}
}

func TestStaticFetcher_Fetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("landed"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewStatic(StaticConfig{})
	content, err := f.Fetch(context.Background(), srv.URL+"/start", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(content.Body) != "landed" {
		t.Errorf("Body = %q", content.Body)
	}
}

func TestStaticFetcher_Fetch_CapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{})
	content, err := f.Fetch(context.Background(), srv.URL, Options{MaxBodySize: 100})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(content.Body) != 100 {
		t.Errorf("len(Body) = %d, want 100", len(content.Body))
	}
}

func TestStaticFetcher_Fetch_ConfiguredCapBoundsOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		config   int
		perCall  int
		wantSize int
	}{
		{"config smaller than option", 100, 1000, 100},
		{"option smaller than config", 1000, 200, 200},
		{"option unset", 300, 0, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewStatic(StaticConfig{MaxBodySize: tt.config})
			content, err := f.Fetch(context.Background(), srv.URL, Options{MaxBodySize: tt.perCall})
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if len(content.Body) != tt.wantSize {
				t.Errorf("len(Body) = %d, want %d", len(content.Body), tt.wantSize)
			}
		})
	}
}

func TestStaticFetcher_Fetch_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewStatic(StaticConfig{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), url, Options{})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("connection failure should not be a StatusError: %v", err)
	}
}

// --- StatusError Tests ---

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{URL: "https://example.com", StatusCode: 429}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Error() = %q, want status code", err.Error())
	}
}

func TestIsSuccess(t *testing.T) {
	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 404: false} {
		if IsSuccess(code) != want {
			t.Errorf("IsSuccess(%d) = %v", code, !want)
		}
	}
}
