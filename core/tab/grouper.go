package tab

import "sort"

// StringTokens pairs one string's label with its scanned tokens, in block
// order top to bottom.
type StringTokens struct {
	Label  string
	Tokens []Token
}

// Placed is a token assigned to a timing cluster.
type Placed struct {
	Label     string
	Token     Token
	Uncertain bool
}

// Cluster holds tokens judged to be struck together. Key is the start
// column of the founding token; Members are in join order, founder first.
type Cluster struct {
	Key     int
	Members []Placed
}

// Uncertain reports whether any member carries an uncertain alignment.
func (c *Cluster) Uncertain() bool {
	for _, m := range c.Members {
		if m.Uncertain {
			return true
		}
	}
	return false
}

func overlaps(a, b Token) bool {
	return a.Start <= b.End && b.Start <= a.End
}

func nearAligned(a, b Token) bool {
	return abs(a.Start-b.Start) <= 1 || abs(a.End-b.End) <= 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// GroupByTiming partitions the tokens of a tab block into timing clusters.
// Tokens are flattened line by line in block order, stable-sorted by start
// column, and placed one at a time: a token joins the first cluster, in
// creation order, holding a member whose span overlaps it or whose start
// or end column is within one column of its own. A token matching no
// cluster founds a new one at its start column.
//
// A joining token is flagged uncertain when it starts strictly before the
// matched member, spans a single column, and the matched member spans
// more than one. Every token lands in exactly one cluster.
func GroupByTiming(lines []StringTokens) []Cluster {
	type placed struct {
		label string
		tok   Token
	}
	var all []placed
	for _, line := range lines {
		for _, tok := range line.Tokens {
			all = append(all, placed{line.Label, tok})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tok.Start < all[j].tok.Start
	})

	var clusters []Cluster
	for _, p := range all {
		joined := false
		for ci := range clusters {
			for _, m := range clusters[ci].Members {
				if !overlaps(p.tok, m.Token) && !nearAligned(p.tok, m.Token) {
					continue
				}
				uncertain := p.tok.Start < m.Token.Start &&
					p.tok.Width() == 1 && m.Token.Width() > 1
				clusters[ci].Members = append(clusters[ci].Members, Placed{
					Label:     p.label,
					Token:     p.tok,
					Uncertain: uncertain,
				})
				joined = true
				break
			}
			if joined {
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{
				Key: p.tok.Start,
				Members: []Placed{{
					Label: p.label,
					Token: p.tok,
				}},
			})
		}
	}
	return clusters
}
