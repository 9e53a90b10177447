package music

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

// labelGrammar is the participle grammar for string tuning labels.
// Examples: "E", "E4", "Bb3", "d#2"
//
//nolint:govet // participle grammar tags are not standard struct tags
type labelGrammar struct {
	Note   string `@Note`
	Octave *int   `@Int?`
}

// labelLexer tokenizes a note letter with optional accidental, then an
// optional octave number. Note is tried before Int so "b" binds as an
// accidental, not a stray letter.
var labelLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Note", Pattern: `[A-Ga-g][#bB]?`},
	{Name: "Int", Pattern: `[0-9]+`},
})

var labelParser = participle.MustBuild[labelGrammar](
	participle.Lexer(labelLexer),
)

// ParseLabel parses a string tuning label into a pitch class and octave.
// The note name is matched case-insensitively against both spellings, so
// "Bb3", "bb3" and "A#3" all resolve to class 10, octave 3. A label with
// no octave digits reports octave 0. Unrecognized labels return a
// ParseError.
func ParseLabel(s string) (class, octave int, err error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, 0, errors.NewParse("pitch label", "", "empty label")
	}

	parsed, perr := labelParser.ParseString("", trimmed)
	if perr != nil {
		return 0, 0, &errors.ParseError{
			Format:  "pitch label",
			Message: "invalid label " + strconv.Quote(trimmed),
			Err:     perr,
		}
	}

	class, ok := ClassFold(parsed.Note)
	if !ok {
		// Spellings like "Cb" or "E#" lex but name no table entry.
		return 0, 0, errors.NewParse("pitch label", "", "unknown note name "+strconv.Quote(parsed.Note))
	}

	if parsed.Octave != nil {
		octave = *parsed.Octave
	}
	return class, octave, nil
}
