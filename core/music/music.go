// Package music holds the pitch-class tables and arithmetic used to turn
// string/fret positions into note names.
package music

import "strings"

// NoteCount is the number of pitch classes in an octave.
const NoteCount = 12

// sharpNames and flatNames are indexed by pitch class.
var sharpNames = [NoteCount]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatNames = [NoteCount]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// sharpClasses and flatClasses map canonical spellings back to pitch classes.
var (
	sharpClasses = make(map[string]int, NoteCount)
	flatClasses  = make(map[string]int, NoteCount)
)

func init() {
	for class, name := range sharpNames {
		sharpClasses[name] = class
	}
	for class, name := range flatNames {
		flatClasses[name] = class
	}
}

// SharpName returns the sharp spelling of a pitch class (0-11).
func SharpName(class int) string {
	return sharpNames[class]
}

// FlatName returns the flat spelling of a pitch class (0-11).
func FlatName(class int) string {
	return flatNames[class]
}

// Class resolves a canonical note name to its pitch class. The sharp table
// is consulted first, then the flat table. Lookup is exact: "C#" and "Db"
// match, "c#" does not.
func Class(name string) (int, bool) {
	if class, ok := sharpClasses[name]; ok {
		return class, true
	}
	if class, ok := flatClasses[name]; ok {
		return class, true
	}
	return 0, false
}

// ClassFold resolves a note name to its pitch class ignoring case, so that
// "bb" and "BB" both resolve like "Bb".
func ClassFold(name string) (int, bool) {
	upper := strings.ToUpper(name)
	if class, ok := sharpClasses[upper]; ok {
		return class, true
	}
	for flat, class := range flatClasses {
		if strings.ToUpper(flat) == upper {
			return class, true
		}
	}
	return 0, false
}

// IsNoteName reports whether s is a bare note name in either spelling,
// ignoring case. Octave digits disqualify: "E" is a note name, "E4" is not.
func IsNoteName(s string) bool {
	_, ok := ClassFold(s)
	return ok
}

// NoteNumber resolves a rendered note (octave digits allowed) to its pitch
// class. Strings that do not name a note, such as technique markers, report
// ok false.
func NoteNumber(note string) (int, bool) {
	var b strings.Builder
	for _, r := range note {
		if r < '0' || r > '9' {
			b.WriteRune(r)
		}
	}
	return Class(strings.TrimSpace(b.String()))
}

// Normalize reduces an unbounded semitone count to a pitch class and an
// octave shift so that n = 12*shift + class, with class always in 0-11.
// Negative inputs floor toward lower octaves: Normalize(-1) is (11, -1).
func Normalize(n int) (class, shift int) {
	class = n % NoteCount
	if class < 0 {
		class += NoteCount
	}
	shift = (n - class) / NoteCount
	return class, shift
}
