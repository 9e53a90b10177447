// Package settings holds the conversion configuration: spelling mode,
// transposition, tuning map, and rendering delimiters. A Settings value is
// built once per run, validated, and threaded read-only through the
// pipeline.
package settings

import (
	"sort"
	"strconv"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
	"github.com/DesigningLevers0/tab-to-notes/core/music"
)

// Settings configures one conversion run.
type Settings struct {
	// Transpose is added to every resolved note, in semitones.
	Transpose int

	// WriteFlats selects flat spelling; the default is sharps.
	WriteFlats bool

	// WriteOctaves appends the octave number to each note name.
	WriteOctaves bool

	// WriteTechniques carries technique markers into the output.
	WriteTechniques bool

	// ChordAnalysis adds an analysis line above each rendered tab line
	// and a legend at the end of the document.
	ChordAnalysis bool

	// PadNaturals trails naturals with a space so columns line up with
	// accidentals.
	PadNaturals bool

	// Chord delimiters for multi-note clusters.
	ChordStart     string
	ChordEnd       string
	ChordSeparator string

	// TuningSeparator splits a tab line's label from its content.
	TuningSeparator string

	// Tuning maps string numbers, counted from the top line, to the pitch
	// label of the open string.
	Tuning map[int]string
}

// transposingKeys maps named instrument keys to their semitone offsets.
var transposingKeys = map[string]int{
	"Bb": 2,
	"Eb": 9,
	"F":  7,
	"A":  3,
}

// Default returns the standard-tuning six-string configuration.
func Default() *Settings {
	return &Settings{
		WriteOctaves:    true,
		WriteTechniques: true,
		ChordStart:      "[",
		ChordEnd:        "]",
		ChordSeparator:  "_",
		TuningSeparator: "|",
		Tuning: map[int]string{
			1: "E4",
			2: "B3",
			3: "G3",
			4: "D3",
			5: "A3",
			6: "E2",
		},
	}
}

// Clone returns a deep copy, so per-request overlays never touch the
// baseline.
func (s *Settings) Clone() *Settings {
	out := *s
	out.Tuning = make(map[int]string, len(s.Tuning))
	for n, label := range s.Tuning {
		out.Tuning[n] = label
	}
	return &out
}

// DropD retunes string 6 to D2.
func (s *Settings) DropD() {
	s.Tuning[6] = "D2"
}

// Validate rejects configurations the pipeline cannot run with: an empty
// tuning separator, string numbers below 1, or tuning labels that do not
// parse as pitches.
func (s *Settings) Validate() error {
	if s.TuningSeparator == "" {
		return errors.NewValidation("tuning_separator", "must not be empty")
	}

	numbers := make([]int, 0, len(s.Tuning))
	for n := range s.Tuning {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "tuning",
				Value:   strconv.Itoa(n),
				Message: "string numbers are counted from 1",
			}
		}
		label := s.Tuning[n]
		if _, _, err := music.ParseLabel(label); err != nil {
			return &errors.ValidationError{
				Field:   "tuning",
				Value:   label,
				Message: "unrecognized tuning label for string " + strconv.Itoa(n),
				Err:     err,
			}
		}
	}
	return nil
}

// ParseTranspose interprets a transpose argument: first as a named
// instrument key (Bb, Eb, F, A — exact spelling), then as a semitone
// count, negatives included.
func ParseTranspose(v string) (int, error) {
	if offset, ok := transposingKeys[v]; ok {
		return offset, nil
	}
	offset, err := strconv.Atoi(v)
	if err != nil {
		return 0, &errors.ValidationError{
			Field:   "transpose",
			Value:   v,
			Message: "not a named instrument key or a semitone count",
			Err:     err,
		}
	}
	return offset, nil
}
