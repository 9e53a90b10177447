package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DesigningLevers0/tab-to-notes/core/settings"
)

func newTestServer() *Server {
	return New(Config{
		Port:     8080,
		Settings: settings.Default(),
		Version:  "test",
	})
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func postConvert(t *testing.T, s *Server, req ConvertRequest) (*http.Response, ConvertResponse) {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/convert", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleConvert(w, r)

	resp := w.Result()
	var out ConvertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, out
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("expected status ok, got %q", health["status"])
	}
	if health["version"] != "test" {
		t.Errorf("expected version test, got %q", health["version"])
	}
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	s.handleIndex(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<textarea") {
		t.Error("expected page to contain a textarea")
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()

	s.handleIndex(w, r)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Result().StatusCode)
	}
}

func TestHandleConvert(t *testing.T) {
	tests := []struct {
		name string
		req  ConvertRequest
		want []string
	}{
		{
			name: "defaults",
			req:  ConvertRequest{Text: "e|--0--|"},
			want: []string{"|E4|", ""},
		},
		{
			name: "named key transpose",
			req: ConvertRequest{
				Text:    "e|--0--|",
				Options: Options{Transpose: strPtr("Bb")},
			},
			want: []string{"|F#4|", ""},
		},
		{
			name: "semitone transpose",
			req: ConvertRequest{
				Text:    "e|--0--|",
				Options: Options{Transpose: strPtr("3")},
			},
			want: []string{"|G4|", ""},
		},
		{
			name: "flat spelling",
			req: ConvertRequest{
				Text:    "e|--0--|",
				Options: Options{Transpose: strPtr("Bb"), Flats: boolPtr(true)},
			},
			want: []string{"|Gb4|", ""},
		},
		{
			name: "octaves off",
			req: ConvertRequest{
				Text:    "e|--0--|",
				Options: Options{Octaves: boolPtr(false)},
			},
			want: []string{"|E|", ""},
		},
		{
			name: "analysis line",
			req: ConvertRequest{
				Text:    "e|--0--|",
				Options: Options{Chords: boolPtr(true)},
			},
			want: []string{"-", "|E4|", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postConvert(t, newTestServer(), tt.req)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected status 200, got %d", resp.StatusCode)
			}
			if out.Error != "" {
				t.Fatalf("unexpected error: %s", out.Error)
			}
			if !reflect.DeepEqual(out.Lines, tt.want) {
				t.Errorf("expected lines %q, got %q", tt.want, out.Lines)
			}
		})
	}
}

func TestHandleConvertBadTranspose(t *testing.T) {
	req := ConvertRequest{
		Text:    "e|--0--|",
		Options: Options{Transpose: strPtr("H#")},
	}

	resp, out := postConvert(t, newTestServer(), req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", resp.StatusCode)
	}
	if out.Error == "" {
		t.Error("expected an error message")
	}
}

func TestHandleConvertInvalidJSON(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	s.handleConvert(w, r)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestHandleConvertMethodNotAllowed(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodGet, "/api/convert", nil)
	w := httptest.NewRecorder()

	s.handleConvert(w, r)

	if w.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Result().StatusCode)
	}
}

func TestConvertKeepsBaseline(t *testing.T) {
	s := newTestServer()
	req := ConvertRequest{
		Text: "e|--0--|",
		Options: Options{
			Transpose:  strPtr("Bb"),
			Flats:      boolPtr(true),
			Octaves:    boolPtr(false),
			Techniques: boolPtr(false),
			Chords:     boolPtr(true),
		},
	}

	out := s.convert(req)
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}

	base := s.cfg.Settings
	if base.Transpose != 0 {
		t.Errorf("expected baseline transpose 0, got %d", base.Transpose)
	}
	if base.WriteFlats || base.ChordAnalysis {
		t.Error("expected baseline spelling and analysis unchanged")
	}
	if !base.WriteOctaves || !base.WriteTechniques {
		t.Error("expected baseline octaves and techniques unchanged")
	}
}

func TestHandlerRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"index", http.MethodGet, "/", "", http.StatusOK},
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"convert", http.MethodPost, "/api/convert", `{"text":"e|--0--|"}`, http.StatusOK},
		{"convert wrong method", http.MethodGet, "/api/convert", "", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/nonexistent", "", http.StatusNotFound},
	}

	handler := newTestServer().Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("expected X-Content-Type-Options header")
			}
			if !strings.Contains(resp.Header.Get("Content-Security-Policy"), "connect-src") {
				t.Error("expected Content-Security-Policy header")
			}
		})
	}
}

func TestConvertCachesRepeats(t *testing.T) {
	s := newTestServer()
	req := ConvertRequest{Text: "e|--0--|"}

	first := s.convert(req)
	second := s.convert(req)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached response differs: %+v vs %+v", first, second)
	}

	stats := s.responses.Stats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", stats.Hits)
	}
	if stats.Size != 1 {
		t.Errorf("expected 1 cached entry, got %d", stats.Size)
	}

	// A different request misses.
	s.convert(ConvertRequest{Text: "e|--2--|"})
	if got := s.responses.Stats().Size; got != 2 {
		t.Errorf("expected 2 cached entries, got %d", got)
	}
}

func TestConvertDoesNotCacheErrors(t *testing.T) {
	s := newTestServer()
	req := ConvertRequest{
		Text:    "e|--0--|",
		Options: Options{Transpose: strPtr("nonsense")},
	}

	if resp := s.convert(req); resp.Error == "" {
		t.Fatal("expected an error response")
	}
	if got := s.responses.Stats().Size; got != 0 {
		t.Errorf("expected error response not to be cached, got %d entries", got)
	}
}

func TestWebSocketConvert(t *testing.T) {
	s := newTestServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	req := ConvertRequest{Text: "e|--0--|\nB|--1--|"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to write request: %v", err)
	}

	var resp ConvertResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	want := []string{"|[E4_C4]|", ""}
	if !reflect.DeepEqual(resp.Lines, want) {
		t.Errorf("expected lines %q, got %q", want, resp.Lines)
	}

	// Same connection serves follow-up requests with different options.
	req.Options = Options{Octaves: boolPtr(false)}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to write second request: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read second response: %v", err)
	}
	want = []string{"|[E_C]|", ""}
	if !reflect.DeepEqual(resp.Lines, want) {
		t.Errorf("expected lines %q, got %q", want, resp.Lines)
	}
}

func TestWebSocketBadTranspose(t *testing.T) {
	s := newTestServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	req := ConvertRequest{
		Text:    "e|--0--|",
		Options: Options{Transpose: strPtr("nonsense")},
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to write request: %v", err)
	}

	var resp ConvertResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected an in-band error message")
	}
}
