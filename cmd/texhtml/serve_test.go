package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-texhtml"
)

// ---------------------------------------------------------------------------
// TestRouter - HTTP API
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, conv DocumentConverter) *httptest.Server {
	t.Helper()
	env := newTestEnv(t)
	srv := httptest.NewServer(newRouter(conv, env.Environment, time.Minute, 64))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubConverter{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["version"] != Version {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
}

func TestRouter_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		convErr     error
		wantStatus  int
		wantField   string
		wantValue   string
	}{
		{
			name:       "images",
			path:       "/v1/images",
			body:       `{"html":"<p>$x$</p>"}`,
			wantStatus: http.StatusOK,
			wantField:  "html",
			wantValue:  "[images]<p>$x$</p>",
		},
		{
			name:       "markup",
			path:       "/v1/markup",
			body:       `{"html":"<p/>"}`,
			wantStatus: http.StatusOK,
			wantField:  "html",
			wantValue:  "[markup]<p/>",
		},
		{
			name:       "malformed json",
			path:       "/v1/images",
			body:       `{"html":`,
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
		},
		{
			name:       "body too large",
			path:       "/v1/images",
			body:       `{"html":"` + strings.Repeat("x", 100) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantField:  "error",
		},
		{
			name:       "selection not found",
			path:       "/v1/images",
			body:       `{"html":"a","selection":"b"}`,
			convErr:    texhtml.ErrSelectionNotFound,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "error",
			wantValue:  texhtml.ErrSelectionNotFound.Error(),
		},
		{
			name:       "unexpected failure",
			path:       "/v1/markup",
			body:       `{"html":"a"}`,
			convErr:    errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantField:  "error",
			wantValue:  "disk full",
		},
		{
			name:        "wrong content type",
			path:        "/v1/images",
			contentType: "text/plain",
			body:        `{"html":"a"}`,
			wantStatus:  http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &stubConverter{err: tt.convErr})
			ct := tt.contentType
			if ct == "" {
				ct = "application/json"
			}

			resp, err := http.Post(srv.URL+tt.path, ct, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantField == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if _, ok := body[tt.wantField]; !ok {
				t.Errorf("body = %v, want field %q", body, tt.wantField)
			}
			if tt.wantValue != "" && body[tt.wantField] != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantField, body[tt.wantField], tt.wantValue)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{texhtml.ErrSelectionNotFound, http.StatusUnprocessableEntity},
		{texhtml.ErrEmptyDocument, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunServe - Startup validation and shutdown
// ---------------------------------------------------------------------------

func TestRunServeCmd_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"bad request timeout", []string{"--request-timeout", "soon"}},
		{"zero max body", []string{"--max-body", "0"}},
		{"positional args", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			if code := runServeCmd(context.Background(), tt.args, env.Environment); code != ExitUsage {
				t.Errorf("runServeCmd() = %d, want %d", code, ExitUsage)
			}
		})
	}
}

func TestRunServeCmd_MissingProgram(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.missing("dvipng")

	if code := runServeCmd(context.Background(), []string{"--addr", "127.0.0.1:0"}, env.Environment); code != ExitToolchain {
		t.Errorf("runServeCmd() = %d, want %d (stderr: %s)", code, ExitToolchain, env.stderr)
	}
}

func TestRunServeCmd_Shutdown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- runServeCmd(ctx, []string{"--addr", "127.0.0.1:0", "-q"}, env.Environment)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != ExitSuccess {
			t.Errorf("runServeCmd() = %d, want success (stderr: %s)", code, env.stderr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
