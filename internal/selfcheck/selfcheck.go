// Package selfcheck verifies conversion properties of a document against
// the pipeline's own intermediate results and reports per-check outcomes.
package selfcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/DesigningLevers0/tab-to-notes/core/document"
	"github.com/DesigningLevers0/tab-to-notes/core/music"
	"github.com/DesigningLevers0/tab-to-notes/core/notation"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/core/tab"
)

// Version is the report format version.
const Version = "1.0.0"

// Status values for reports.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Check types.
const (
	CheckPitchRoundTrip = "PITCH_ROUND_TRIP"
	CheckCoverage       = "CLUSTER_COVERAGE"
	CheckIdempotence    = "IDEMPOTENCE"
	CheckSpelling       = "SPELLING_CONSISTENCY"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	CheckType string   `json:"check_type"`
	Label     string   `json:"label"`
	Pass      bool     `json:"pass"`
	Findings  []string `json:"findings,omitempty"`
}

// Report is the output of a self-check run.
type Report struct {
	ReportVersion string        `json:"report_version"`
	CreatedAt     string        `json:"created_at"`
	Blocks        int           `json:"blocks"`
	Results       []CheckResult `json:"results"`
	Status        string        `json:"status"`
}

// ToJSON serializes the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Format writes the human-readable report.
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "Self-Check Report\n")
	fmt.Fprintf(w, "  Created: %s\n", r.CreatedAt)
	fmt.Fprintf(w, "  Blocks:  %d\n", r.Blocks)
	fmt.Fprintln(w)
	for _, result := range r.Results {
		status := "[PASS]"
		if !result.Pass {
			status = "[FAIL]"
		}
		fmt.Fprintf(w, "  %s %s\n", status, result.Label)
		for _, finding := range result.Findings {
			fmt.Fprintf(w, "    %s\n", finding)
		}
	}
	fmt.Fprintln(w)
	if r.Status == StatusPass {
		fmt.Fprintln(w, "All checks passed!")
	} else {
		fmt.Fprintln(w, "Some checks failed.")
	}
}

// Run converts the document under s and checks that the conversion holds
// its invariants: resolved names match their pitch arithmetic, grouping
// loses no tokens, passthrough output is stable under reprocessing, and
// spelling follows the configured accidental style.
func Run(input []string, s *settings.Settings) (*Report, error) {
	proc := document.NewProcessor(s)

	blocks, err := proc.Blocks(input)
	if err != nil {
		return nil, err
	}
	converted, err := proc.Process(input)
	if err != nil {
		return nil, err
	}

	results := []CheckResult{
		checkPitchRoundTrip(blocks, s),
		checkCoverage(blocks, s),
		checkIdempotence(converted.Lines, s),
		checkSpelling(blocks, s),
	}

	status := StatusPass
	for _, result := range results {
		if !result.Pass {
			status = StatusFail
		}
	}

	return &Report{
		ReportVersion: Version,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Blocks:        len(blocks),
		Results:       results,
		Status:        status,
	}, nil
}

// checkPitchRoundTrip re-derives the pitch class of every fret token from
// string label plus fret plus transpose and confirms the spelled name maps
// back to it.
func checkPitchRoundTrip(blocks [][]notation.StringLine, s *settings.Settings) CheckResult {
	result := CheckResult{
		CheckType: CheckPitchRoundTrip,
		Label:     "resolved names map back to their pitch class",
		Pass:      true,
	}

	for bi, block := range blocks {
		for _, sl := range block {
			tokens, err := tab.ScanLine(sl.Text, s.WriteTechniques)
			if err != nil {
				result.fail("block %d string %s: %v", bi+1, sl.Label, err)
				continue
			}
			class, _, err := music.ParseLabel(sl.Label)
			if err != nil {
				result.fail("block %d string %s: %v", bi+1, sl.Label, err)
				continue
			}
			for _, tok := range tokens {
				if !tok.Numeric() {
					continue
				}
				fret, _ := strconv.Atoi(tok.Value)
				want, _ := music.Normalize(class + fret + s.Transpose)

				name, err := notation.ResolveNote(sl.Label, tok.Value, s)
				if err != nil {
					result.fail("block %d string %s fret %s: %v", bi+1, sl.Label, tok.Value, err)
					continue
				}
				got, ok := music.NoteNumber(name)
				if !ok || got != want {
					result.fail("block %d string %s fret %s: %s resolves to class %d, want %d",
						bi+1, sl.Label, tok.Value, name, got, want)
				}
			}
		}
	}
	return result
}

// checkCoverage confirms grouping places every scanned token in exactly
// one cluster, block by block.
func checkCoverage(blocks [][]notation.StringLine, s *settings.Settings) CheckResult {
	result := CheckResult{
		CheckType: CheckCoverage,
		Label:     "every token lands in exactly one cluster",
		Pass:      true,
	}

	for bi, block := range blocks {
		total := 0
		lines := make([]tab.StringTokens, 0, len(block))
		for _, sl := range block {
			tokens, err := tab.ScanLine(sl.Text, s.WriteTechniques)
			if err != nil {
				result.fail("block %d string %s: %v", bi+1, sl.Label, err)
				continue
			}
			total += len(tokens)
			lines = append(lines, tab.StringTokens{Label: sl.Label, Tokens: tokens})
		}

		placed := 0
		for _, cluster := range tab.GroupByTiming(lines) {
			placed += len(cluster.Members)
		}
		if placed != total {
			result.fail("block %d: %d tokens scanned, %d placed in clusters", bi+1, total, placed)
		}
	}
	return result
}

// checkIdempotence reprocesses the output lines that carry no tuning
// separator; they are passthrough by definition and must come back
// byte-identical. A violation is rendered as a character diff.
func checkIdempotence(output []string, s *settings.Settings) CheckResult {
	result := CheckResult{
		CheckType: CheckIdempotence,
		Label:     "passthrough output is stable under reprocessing",
		Pass:      true,
	}

	var want []string
	for _, line := range output {
		if !strings.Contains(line, s.TuningSeparator) {
			want = append(want, line)
		}
	}
	if len(want) == 0 {
		return result
	}

	reprocessed, err := document.NewProcessor(s).Process(want)
	if err != nil {
		result.fail("reprocessing failed: %v", err)
		return result
	}

	a := strings.Join(want, "\n")
	b := strings.Join(reprocessed.Lines, "\n")
	if a != b {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(a, b, false)
		result.fail("reprocessed lines differ: %s", dmp.DiffPrettyText(diffs))
	}
	return result
}

// checkSpelling confirms every resolved fret name uses the configured
// accidental style. Technique passthrough is out of scope; only numeric
// tokens are resolved.
func checkSpelling(blocks [][]notation.StringLine, s *settings.Settings) CheckResult {
	result := CheckResult{
		CheckType: CheckSpelling,
		Label:     "resolved names follow the accidental style",
		Pass:      true,
	}

	banned := "b"
	style := "sharps"
	if s.WriteFlats {
		banned = "#"
		style = "flats"
	}

	for bi, block := range blocks {
		for _, sl := range block {
			tokens, err := tab.ScanLine(sl.Text, s.WriteTechniques)
			if err != nil {
				result.fail("block %d string %s: %v", bi+1, sl.Label, err)
				continue
			}
			for _, tok := range tokens {
				if !tok.Numeric() {
					continue
				}
				name, err := notation.ResolveNote(sl.Label, tok.Value, s)
				if err != nil {
					result.fail("block %d string %s fret %s: %v", bi+1, sl.Label, tok.Value, err)
					continue
				}
				if strings.Contains(name, banned) {
					result.fail("block %d string %s fret %s: %s breaks %s spelling",
						bi+1, sl.Label, tok.Value, name, style)
				}
			}
		}
	}
	return result
}

func (r *CheckResult) fail(format string, args ...any) {
	r.Pass = false
	r.Findings = append(r.Findings, fmt.Sprintf(format, args...))
}
