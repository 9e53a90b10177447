package notation

import (
	"sort"
	"strings"

	"github.com/DesigningLevers0/tab-to-notes/core/chord"
	"github.com/DesigningLevers0/tab-to-notes/core/errors"
	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/core/tab"
)

// StringLine is one labeled line of a tab block, label and content already
// split by the document scanner.
type StringLine struct {
	Label string
	Text  string
}

// Rendered is one block's output: its lines (analysis line first when
// enabled) and the chord-type labels consumed for the document legend.
type Rendered struct {
	Lines []string
	Used  map[string]struct{}
}

// RenderBlock converts one tab block: each string line is scanned, tokens
// are grouped across strings into timing clusters, and the clusters are
// rendered left to right into a single note line between bar delimiters.
func RenderBlock(block []StringLine, s *settings.Settings) (*Rendered, error) {
	lines := make([]tab.StringTokens, 0, len(block))
	for _, sl := range block {
		tokens, err := tab.ScanLine(sl.Text, s.WriteTechniques)
		if err != nil {
			return nil, errors.Wrapf(err, "scan string %q", sl.Label)
		}
		lines = append(lines, tab.StringTokens{Label: sl.Label, Tokens: tokens})
	}

	clusters := tab.GroupByTiming(lines)
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Key < clusters[j].Key
	})

	parts, analysis, used, err := renderClusters(clusters, s)
	if err != nil {
		return nil, err
	}

	out := &Rendered{Used: used}
	if s.ChordAnalysis && len(analysis) > 0 {
		out.Lines = append(out.Lines, strings.Join(analysis, " "))
	}
	out.Lines = append(out.Lines, "|"+strings.Join(parts, "--")+"|")
	return out, nil
}

// renderClusters resolves every cluster member and formats the per-cluster
// strings: bare for a single member, bracketed and separated for several,
// a dash for none, with a trailing ? on uncertain alignments. Columns
// spanned by emitted members are marked covered; a cluster keyed at a
// covered column is skipped.
func renderClusters(clusters []tab.Cluster, s *settings.Settings) (parts, analysis []string, used map[string]struct{}, err error) {
	used = make(map[string]struct{})
	covered := make(map[int]bool)

	for _, cluster := range clusters {
		if covered[cluster.Key] {
			continue
		}

		var members []string
		uncertain := false
		for _, m := range cluster.Members {
			if m.Uncertain {
				uncertain = true
			}
			note, rerr := ResolveNote(m.Label, m.Token.Value, s)
			if rerr != nil {
				return nil, nil, nil, rerr
			}
			members = append(members, note)
			for col := m.Token.Start; col <= m.Token.End; col++ {
				covered[col] = true
			}
		}

		if s.ChordAnalysis {
			if labels := chord.Analyze(members); len(labels) > 0 {
				if len(labels) > 2 {
					labels = labels[:2]
				}
				analysis = append(analysis, strings.Join(labels, "/"))
				for _, label := range labels {
					used[label] = struct{}{}
				}
			} else {
				analysis = append(analysis, "-")
			}
		}

		var part string
		switch {
		case len(members) == 1:
			part = members[0]
		case len(members) > 1:
			part = s.ChordStart + strings.Join(members, s.ChordSeparator) + s.ChordEnd
		default:
			part = "-"
		}
		if uncertain {
			part += "?"
		}
		parts = append(parts, part)
	}
	return parts, analysis, used, nil
}
