// Package notation resolves tokens to pitch names and renders timing
// clusters as output lines.
package notation

import (
	"strconv"
	"strings"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
	"github.com/DesigningLevers0/tab-to-notes/core/music"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
)

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveNote renders one token value struck on a string. Technique
// markers pass through verbatim. Fret numbers are added to the string's
// open pitch and the transpose offset, reduced to a pitch class, and
// spelled per settings; the octave is the label's octave plus however many
// octaves the sum crossed.
func ResolveNote(label, value string, s *settings.Settings) (string, error) {
	if !isNumeric(value) {
		return value, nil
	}

	class, baseOctave, err := music.ParseLabel(label)
	if err != nil {
		return "", errors.Wrapf(err, "resolve fret %s on string %q", value, label)
	}
	fret, err := strconv.Atoi(value)
	if err != nil {
		return "", &errors.ParseError{
			Format:  "fret number",
			Message: strconv.Quote(value),
			Err:     err,
		}
	}

	pitchClass, shift := music.Normalize(class + fret + s.Transpose)

	name := music.SharpName(pitchClass)
	if s.WriteFlats {
		name = music.FlatName(pitchClass)
	}
	if s.WriteOctaves {
		name += strconv.Itoa(baseOctave + shift)
	}
	if s.PadNaturals && !strings.ContainsAny(name, "#b") {
		name += " "
	}
	return name, nil
}
