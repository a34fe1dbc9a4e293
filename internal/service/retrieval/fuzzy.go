package retrieval

import "strings"

const (
	// minMatchLength drops queries (and query tokens) shorter than two
	// characters; they carry no signal for approximate matching.
	minMatchLength = 2

	// maxDistance is the acceptance threshold on the combined item
	// distance. Items above it are discarded; the reported score is the
	// complement of the distance.
	maxDistance = 0.4

	// distanceFloor keeps an exact field match from zeroing the weighted
	// product outright.
	distanceFloor = 0.001
)

// containmentDistance is the normalized semi-global edit distance of
// pattern against text: the minimum number of edits needed to align the
// whole pattern anywhere inside text, divided by the pattern length.
// 0 means the pattern occurs verbatim; 1 means no resemblance. Where the
// match sits inside the field is irrelevant.
func containmentDistance(pattern, text string) float64 {
	p := []rune(pattern)
	t := []rune(text)
	if len(p) == 0 || len(t) == 0 {
		return 1
	}

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	// Row zero stays all zeros: the alignment may start at any position
	// in text for free.

	for i := 1; i <= len(p); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, min(prev[j]+1, curr[j-1]+1))
		}
		prev, curr = curr, prev
	}

	best := prev[0]
	for _, v := range prev[1:] {
		if v < best {
			best = v
		}
	}

	d := float64(best) / float64(len(p))
	if d > 1 {
		d = 1
	}
	return d
}

// fieldDistance matches the query against one field, taking the best
// alignment over the full query and each of its tokens. Inputs are
// expected to be lowercased already.
func fieldDistance(query string, tokens []string, text string) float64 {
	if text == "" {
		return 1
	}

	best := containmentDistance(query, text)
	for _, tok := range tokens {
		if d := containmentDistance(tok, text); d < best {
			best = d
		}
	}
	return best
}

// queryTokens splits a lowercased query into match tokens, dropping
// fragments below the minimum match length.
func queryTokens(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(query) {
		if len([]rune(tok)) >= minMatchLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
