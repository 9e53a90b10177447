// Package tab scans ASCII tablature lines into positioned tokens and groups
// them across strings into timing clusters.
package tab

import (
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

// Token is one lexical item from a tab string line: a fret number or a
// technique marker. Start and End are 0-based byte columns, End inclusive.
type Token struct {
	Value string
	Start int
	End   int
}

// Width returns the number of columns the token spans.
func (t Token) Width() int {
	return t.End - t.Start + 1
}

// Numeric reports whether the token is a fret number rather than a
// technique marker.
func (t Token) Numeric() bool {
	if t.Value == "" {
		return false
	}
	for _, r := range t.Value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// tabLexer tiles a tab line completely: digit runs are fret candidates,
// hyphen runs are rests, plus runs are ignored, and any other run is a
// technique marker. A "+" is never part of a technique token.
var tabLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Fret", Pattern: `\d+`},
	{Name: "Rest", Pattern: `-+`},
	{Name: "Plus", Pattern: `\++`},
	{Name: "Technique", Pattern: `[^-\d+]+`},
})

var (
	tabSymbols    = tabLexer.Symbols()
	fretType      = tabSymbols["Fret"]
	techniqueType = tabSymbols["Technique"]
)

// ScanLine tokenizes the content region of one tab string line. Fret
// tokens are always collected; technique tokens only when techniques is
// true, and only at start columns not already claimed by a fret token.
// The result is ordered by start column.
func ScanLine(line string, techniques bool) ([]Token, error) {
	lex, err := tabLexer.Lex("", strings.NewReader(line))
	if err != nil {
		return nil, errors.Wrap(err, "lex tab line")
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Wrap(err, "lex tab line")
	}

	var tokens []Token
	claimed := make(map[int]bool)
	for _, tok := range raw {
		if tok.Type != fretType {
			continue
		}
		start := tok.Pos.Offset
		claimed[start] = true
		tokens = append(tokens, Token{
			Value: tok.Value,
			Start: start,
			End:   start + len(tok.Value) - 1,
		})
	}
	if techniques {
		for _, tok := range raw {
			if tok.Type != techniqueType {
				continue
			}
			start := tok.Pos.Offset
			if claimed[start] {
				continue
			}
			tokens = append(tokens, Token{
				Value: tok.Value,
				Start: start,
				End:   start + len(tok.Value) - 1,
			})
		}
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Start < tokens[j].Start
	})
	return tokens, nil
}
