// Package chord identifies interval and chord patterns within timing
// clusters and builds the document legend for the labels it hands out.
package chord

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DesigningLevers0/tab-to-notes/core/music"
)

// intervalNames maps semitone distances to full interval names.
var intervalNames = map[int]string{
	0:  "unison",
	1:  "minor 2nd",
	2:  "major 2nd",
	3:  "minor 3rd",
	4:  "major 3rd",
	5:  "perfect 4th",
	6:  "tritone",
	7:  "perfect 5th",
	8:  "minor 6th",
	9:  "major 6th",
	10: "minor 7th",
	11: "major 7th",
}

// shortIntervals holds the compact spellings used in generic chord
// listings. There is deliberately no entry for 0.
var shortIntervals = map[int]string{
	1:  "m2",
	2:  "M2",
	3:  "m3",
	4:  "M3",
	5:  "P4",
	6:  "TT",
	7:  "P5",
	8:  "m6",
	9:  "M6",
	10: "m7",
	11: "M7",
}

// Analyze classifies the resolved strings of one timing cluster. Technique
// markers and anything else that names no pitch are ignored; the surviving
// pitch classes are deduplicated in first-seen order and sorted. The result
// lists candidate labels in discovery order, or nil when there is nothing
// to say.
func Analyze(notes []string) []string {
	if len(notes) < 2 {
		return nil
	}

	var classes []int
	for _, note := range notes {
		num, ok := music.NoteNumber(note)
		if !ok {
			continue
		}
		seen := false
		for _, c := range classes {
			if c == num {
				seen = true
				break
			}
		}
		if !seen {
			classes = append(classes, num)
		}
	}
	sort.Ints(classes)

	switch len(classes) {
	case 0:
		return nil
	case 1:
		return []string{"unison"}
	case 2:
		return analyzeInterval(classes)
	default:
		return analyzeTriad(classes)
	}
}

// interval is the ascending semitone distance from b up to a.
func interval(a, b int) int {
	d := (a - b) % music.NoteCount
	if d < 0 {
		d += music.NoteCount
	}
	return d
}

func contains(intervals []int, n int) bool {
	for _, v := range intervals {
		if v == n {
			return true
		}
	}
	return false
}

func analyzeInterval(classes []int) []string {
	d := interval(classes[1], classes[0])
	name, ok := intervalNames[d]
	if !ok {
		return []string{"interval(" + strconv.Itoa(d) + ")"}
	}
	if ab, ok := catalog[name]; ok {
		return []string{ab.Abbrev}
	}
	return []string{name}
}

func analyzeTriad(classes []int) []string {
	var results []string

	for _, root := range classes {
		var intervals []int
		for _, class := range classes {
			if class != root {
				intervals = append(intervals, interval(class, root))
			}
		}
		sort.Ints(intervals)
		rootName := music.SharpName(root)

		switch {
		case contains(intervals, 3) && contains(intervals, 7):
			results = append(results, rootName+"m")
		case contains(intervals, 4) && contains(intervals, 7):
			results = append(results, rootName+"maj")
		case contains(intervals, 3) && contains(intervals, 6):
			results = append(results, rootName+"dim")
		case contains(intervals, 4) && contains(intervals, 8):
			results = append(results, rootName+"aug")
		case len(intervals) == 1 && intervals[0] == 7:
			results = append(results, rootName+"5")
		case len(intervals) == 1 && intervals[0] == 4:
			results = append(results, rootName+"(M3)")
		case len(intervals) == 1 && intervals[0] == 3:
			results = append(results, rootName+"(m3)")
		}
	}

	if len(results) == 0 {
		// No root produced a triad; fall back to the lowest note.
		root := classes[0]
		rootName := music.SharpName(root)
		var intervals []int
		for _, class := range classes[1:] {
			intervals = append(intervals, interval(class, root))
		}

		switch {
		case contains(intervals, 5) && contains(intervals, 7):
			results = append(results, rootName+"sus4")
		case contains(intervals, 2) && contains(intervals, 7):
			results = append(results, rootName+"sus2")
		default:
			parts := make([]string, len(intervals))
			for i, d := range intervals {
				if short, ok := shortIntervals[d]; ok {
					parts[i] = short
				} else {
					parts[i] = strconv.Itoa(d)
				}
			}
			results = append(results, rootName+"("+strings.Join(parts, "+")+")")
		}
	}

	return results
}
