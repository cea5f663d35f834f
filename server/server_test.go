package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ByLCY/inkwell/config"
	"github.com/ByLCY/inkwell/snippet"
)

var (
	env     *snippet.Environment
	envOnce sync.Once
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	envOnce.Do(func() { env = snippet.MustSetup() })
	cfg := config.Default()
	cfg.Server.MaxBody = 4096
	return New(env, cfg)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCompileJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"source":"Hello *world*","scale":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var res snippet.CompileResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(res.Image) == 0 || len(res.Diagnostics) != 0 {
		t.Fatalf("expected an image without diagnostics, got %v", res.Diagnostics)
	}
	if !bytes.HasPrefix(res.Image, []byte("\x89PNG")) {
		t.Fatalf("image should be a PNG")
	}
}

func TestCompileDiagnostics(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"source":"#nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("document errors are not HTTP errors, got %d", rec.Code)
	}
	var res snippet.CompileResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Image != nil || len(res.Diagnostics) != 1 || res.Diagnostics[0].Message != "unknown variable: nope" {
		t.Fatalf("unexpected result %+v", res)
	}
	if r := res.Diagnostics[0].Range; r == nil || *r != (snippet.Range{Start: 1, End: 5}) {
		t.Fatalf("unexpected range %+v", r)
	}
}

func TestCompileMsgpack(t *testing.T) {
	s := newTestServer(t)
	payload, err := msgpack.Marshal(map[string]any{"source": "hi", "transparent": true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/compile", bytes.NewReader(payload))
	req.Header.Set("Content-Type", MIMEMsgpack)
	req.Header.Set("Accept", MIMEMsgpack)
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != MIMEMsgpack {
		t.Fatalf("unexpected content type %q", ct)
	}
	var res snippet.CompileResult
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid msgpack: %v", err)
	}
	if len(res.Image) == 0 {
		t.Fatalf("expected an image")
	}
}

func TestCompileRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"source":`, http.StatusBadRequest},
		{"bad scale", `{"source":"x","scale":-2}`, http.StatusBadRequest},
		{"too large", `{"source":"` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(c.body))
		req.Header.Set("Content-Type", "application/json")
		if rec := serve(s, req); rec.Code != c.want {
			t.Fatalf("%s: expected %d, got %d", c.name, c.want, rec.Code)
		}
	}
}
