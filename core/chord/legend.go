package chord

import (
	"sort"
	"strings"
)

// Abbreviation ties a full interval name to the short label printed in
// analysis lines and its legend description.
type Abbreviation struct {
	Name   string
	Abbrev string
	Desc   string
}

// Catalog lists every interval the classifier can name, in interval order.
var Catalog = []Abbreviation{
	{"unison", "1", "Unison (same note)"},
	{"minor 2nd", "m2", "Minor second"},
	{"major 2nd", "M2", "Major second"},
	{"minor 3rd", "m3", "Minor third"},
	{"major 3rd", "M3", "Major third"},
	{"perfect 4th", "P4", "Perfect fourth"},
	{"tritone", "TT", "Tritone (augmented 4th/diminished 5th)"},
	{"perfect 5th", "P5", "Perfect fifth (Power chord)"},
	{"minor 6th", "m6", "Minor sixth"},
	{"major 6th", "M6", "Major sixth"},
	{"minor 7th", "m7", "Minor seventh"},
	{"major 7th", "M7", "Major seventh"},
}

var catalog = func() map[string]Abbreviation {
	m := make(map[string]Abbreviation, len(Catalog))
	for _, ab := range Catalog {
		m[ab.Name] = ab
	}
	return m
}()

// LegendHeader opens the legend block appended to analyzed documents.
const LegendHeader = "--- Chord/Interval Legend ---"

// Chord-quality legend entries, keyed by the marker that lights them.
const (
	symMinor      = "m=Minor"
	symMajor      = "maj=Major"
	symDiminished = "dim=Diminished"
	symAugmented  = "aug=Augmented"
	symPower      = "5=Power chord"
	symSuspended  = "sus=Suspended"
)

// Symbols lists every chord-quality legend entry, in catalog order.
var Symbols = []string{
	symMinor, symMajor, symDiminished, symAugmented, symPower, symSuspended,
}

// BuildLegend renders the legend for the chord-type labels used in a
// document. Interval entries match by abbreviation or full-name substring;
// chord-symbol notes match by marker substring, so a label like "Cmaj"
// lights both maj=Major and m=Minor. Returns nil when nothing was used.
// The first line is the header and the last is empty, so the joined block
// ends with a newline.
func BuildLegend(used map[string]struct{}) []string {
	if len(used) == 0 {
		return nil
	}

	itemSet := make(map[string]struct{})
	for chordType := range used {
		for _, ab := range Catalog {
			if strings.Contains(chordType, ab.Abbrev) || strings.Contains(chordType, ab.Name) {
				itemSet[ab.Abbrev+": "+ab.Desc] = struct{}{}
			}
		}
	}

	symbolSet := make(map[string]struct{})
	for chordType := range used {
		if strings.Contains(chordType, "maj") {
			symbolSet[symMajor] = struct{}{}
		}
		if strings.Contains(chordType, "m") && chordType != "maj" {
			symbolSet[symMinor] = struct{}{}
		}
		if strings.Contains(chordType, "dim") {
			symbolSet[symDiminished] = struct{}{}
		}
		if strings.Contains(chordType, "aug") {
			symbolSet[symAugmented] = struct{}{}
		}
		if strings.Contains(chordType, "5") {
			symbolSet[symPower] = struct{}{}
		}
		if strings.Contains(chordType, "sus") {
			symbolSet[symSuspended] = struct{}{}
		}
	}

	lines := []string{LegendHeader}
	lines = append(lines, sortedKeys(itemSet)...)
	if len(symbolSet) > 0 {
		lines = append(lines, "Chord symbols: "+strings.Join(sortedKeys(symbolSet), ", "))
	}
	lines = append(lines, "")
	return lines
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
