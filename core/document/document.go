// Package document scans text documents for tablature blocks and rewrites
// each block as pitch notation, passing every other line through unchanged.
package document

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DesigningLevers0/tab-to-notes/core/chord"
	"github.com/DesigningLevers0/tab-to-notes/core/music"
	"github.com/DesigningLevers0/tab-to-notes/core/notation"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
)

// Processor drives the conversion of whole documents.
type Processor struct {
	Settings *settings.Settings
}

// NewProcessor returns a Processor over the given settings.
func NewProcessor(s *settings.Settings) *Processor {
	return &Processor{Settings: s}
}

// Result holds the converted document lines, the chord-type labels the
// conversion used, and the number of tab blocks found.
type Result struct {
	Lines  []string
	Used   map[string]struct{}
	Blocks int
}

// blockState accumulates one tab block as an insertion-ordered label to
// content mapping. Re-adding a label replaces its content in place.
type blockState struct {
	keys    []string
	content map[string]string
}

func newBlockState() *blockState {
	return &blockState{content: make(map[string]string)}
}

func (b *blockState) set(key, content string) {
	if _, ok := b.content[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.content[key] = content
}

func (b *blockState) lines() []notation.StringLine {
	out := make([]notation.StringLine, 0, len(b.keys))
	for _, key := range b.keys {
		out = append(out, notation.StringLine{Label: key, Text: b.content[key]})
	}
	return out
}

// walk scans lines in document order, handing each completed tab block to
// onBlock and each passthrough line to onLine. An open block flushes
// before the line that interrupted it, and again at end of input; the
// returned flag reports whether that final flush fired.
func (p *Processor) walk(lines []string, onBlock func([]notation.StringLine) error, onLine func(string)) (bool, error) {
	s := p.Settings
	sep := s.TuningSeparator

	inTab := false
	stringNr := 0
	block := newBlockState()

	flush := func() error {
		if !inTab {
			return nil
		}
		if err := onBlock(block.lines()); err != nil {
			return err
		}
		inTab = false
		stringNr = 0
		block = newBlockState()
		return nil
	}

	for _, line := range lines {
		if !strings.Contains(line, sep) {
			if err := flush(); err != nil {
				return false, err
			}
			onLine(line)
			continue
		}

		head := strings.TrimSpace(strings.SplitN(line, sep, 2)[0])
		switch {
		case music.IsNoteName(head):
			inTab = true
			stringNr++
			content := stripContent(line, sep)
			if s.WriteOctaves {
				label, ok := s.Tuning[stringNr]
				if !ok {
					logging.Warn("no tuning entry for string, skipping line",
						"string", stringNr, "label", head)
					continue
				}
				block.set(label, content)
			} else {
				block.set(head+strconv.Itoa(stringNr), content)
			}

		case head == "" && strings.HasPrefix(line, sep):
			inTab = true
			stringNr++
			label, ok := s.Tuning[stringNr]
			if !ok {
				logging.Warn("no tuning entry for string, skipping line",
					"string", stringNr)
				continue
			}
			content := stripContent(line, sep)
			if s.WriteOctaves {
				block.set(label, content)
			} else {
				block.set(label+strconv.Itoa(stringNr), content)
			}

		default:
			if err := flush(); err != nil {
				return false, err
			}
			onLine(line)
		}
	}

	open := inTab
	if err := flush(); err != nil {
		return false, err
	}
	return open, nil
}

// Process converts a document given as lines without terminators. Lines
// carrying the tuning separator and a recognized (or absent) string label
// collect into the current block; anything else flushes the block and
// passes through.
func (p *Processor) Process(lines []string) (*Result, error) {
	res := &Result{Used: make(map[string]struct{})}

	open, err := p.walk(lines,
		func(block []notation.StringLine) error {
			rendered, err := notation.RenderBlock(block, p.Settings)
			if err != nil {
				return err
			}
			res.Lines = append(res.Lines, rendered.Lines...)
			for label := range rendered.Used {
				res.Used[label] = struct{}{}
			}
			res.Blocks++
			return nil
		},
		func(line string) {
			res.Lines = append(res.Lines, line)
		})
	if err != nil {
		return nil, err
	}

	// A block open at end of input still renders. Its lines are always
	// newline-terminated in the output, even when the source was not.
	if open {
		res.Lines = append(res.Lines, "")
	}

	if p.Settings.ChordAnalysis {
		res.Lines = append(res.Lines, chord.BuildLegend(res.Used)...)
	}
	return res, nil
}

// Blocks returns the tab blocks found in the document, in document order,
// without rendering them.
func (p *Processor) Blocks(lines []string) ([][]notation.StringLine, error) {
	var blocks [][]notation.StringLine
	_, err := p.walk(lines,
		func(block []notation.StringLine) error {
			blocks = append(blocks, block)
			return nil
		},
		func(string) {})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// stripContent extracts a tab line's playable content: everything after
// the first separator, space-trimmed, minus the final rune (the closing
// bar) when non-empty.
func stripContent(line, sep string) string {
	after := strings.SplitN(line, sep, 2)[1]
	trimmed := strings.TrimSpace(after)
	if trimmed == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(trimmed)
	return trimmed[:len(trimmed)-size]
}
