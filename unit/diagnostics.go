package unit

import (
	"strings"

	"github.com/unitsys/resolver/util"
)

// maxSuggestions is the cap on "did you mean?" candidates named in the
// specification.
const maxSuggestions = 11

// suggest returns up to maxSuggestions dictionary names closest to
// name under case-insensitive Levenshtein distance, ascending.
func (d *dictionary) suggest(name string) []string {
	lower := strings.ToLower(name)

	type candidate struct {
		name string
		dist int
	}
	candidates := make([]candidate, 0, len(d.names))
	for _, n := range d.names {
		candidates = append(candidates, candidate{name: n, dist: levenshtein(lower, strings.ToLower(n))})
	}

	// simple insertion sort by distance then name: dictionaries are
	// small enough (thousands of entries at most) that this is not a
	// hot path worth a full sort.Slice allocation pattern beyond what
	// it already does.
	for i := 1; i < len(candidates); i++ {
		j := i
		for j > 0 && (candidates[j-1].dist > candidates[j].dist ||
			(candidates[j-1].dist == candidates[j].dist && candidates[j-1].name > candidates[j].name)) {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
			j--
		}
	}

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	return util.TransformSlice(candidates, func(c candidate) string { return c.name })
}

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
