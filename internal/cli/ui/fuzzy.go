package ui

import (
	"sort"
	"strings"
)

const (
	maxSuggestionDistance = 3
	maxSuggestions        = 3
)

// FindSimilar returns up to three candidates within edit distance three of
// target, closest first. Used for "did you mean" hints on unknown annotation
// type and declaration names.
func FindSimilar(target string, candidates []string) []string {
	type scored struct {
		value    string
		distance int
	}
	var matches []scored
	for _, candidate := range candidates {
		dist := editDistance(strings.ToLower(target), strings.ToLower(candidate))
		if dist <= maxSuggestionDistance {
			matches = append(matches, scored{value: candidate, distance: dist})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// editDistance is the Levenshtein distance computed over two rolling rows.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
