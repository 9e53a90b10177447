package web

import (
	"encoding/json"
	"net/http"

	"github.com/zeebo/blake3"

	"github.com/DesigningLevers0/tab-to-notes/core/document"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
)

// Options are the per-request conversion toggles. Absent fields keep the
// server's configured value.
type Options struct {
	Transpose  *string `json:"transpose,omitempty"`
	Flats      *bool   `json:"flats,omitempty"`
	Octaves    *bool   `json:"octaves,omitempty"`
	Techniques *bool   `json:"techniques,omitempty"`
	Chords     *bool   `json:"chords,omitempty"`
}

// ConvertRequest is one conversion job, over the socket or the HTTP API.
type ConvertRequest struct {
	Text    string  `json:"text"`
	Options Options `json:"options"`
}

// ConvertResponse carries the converted lines, or an error message when
// the request could not be served.
type ConvertResponse struct {
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

// requestKey hashes the decoded request. Marshaling the parsed struct
// canonicalizes field order and whitespace, so equivalent requests from
// the socket and the HTTP API share one key.
func requestKey(req ConvertRequest) ([32]byte, bool) {
	data, err := json.Marshal(req)
	if err != nil {
		return [32]byte{}, false
	}
	return blake3.Sum256(data), true
}

// convert runs one request against a clone of the baseline settings.
// Successful conversions are cached by request hash.
func (s *Server) convert(req ConvertRequest) ConvertResponse {
	key, keyed := requestKey(req)
	if keyed {
		if resp, ok := s.responses.Get(key); ok {
			return resp
		}
	}

	resp := s.convertUncached(req)
	if keyed && resp.Error == "" {
		s.responses.Put(key, resp)
	}
	return resp
}

func (s *Server) convertUncached(req ConvertRequest) ConvertResponse {
	cs := s.cfg.Settings.Clone()
	opts := req.Options
	if opts.Transpose != nil {
		n, err := settings.ParseTranspose(*opts.Transpose)
		if err != nil {
			return ConvertResponse{Error: err.Error()}
		}
		cs.Transpose = n
	}
	if opts.Flats != nil {
		cs.WriteFlats = *opts.Flats
	}
	if opts.Octaves != nil {
		cs.WriteOctaves = *opts.Octaves
	}
	if opts.Techniques != nil {
		cs.WriteTechniques = *opts.Techniques
	}
	if opts.Chords != nil {
		cs.ChordAnalysis = *opts.Chords
	}

	res, err := document.NewProcessor(cs).Process(document.SplitLines([]byte(req.Text)))
	if err != nil {
		return ConvertResponse{Error: err.Error()}
	}
	return ConvertResponse{Lines: res.Lines}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "UI not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ConvertResponse{Error: "invalid request: " + err.Error()})
		return
	}

	resp := s.convert(req)
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
