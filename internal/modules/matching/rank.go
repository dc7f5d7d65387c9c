// README: Ranking of scored candidates.
package matching

import "sort"

// Rank drops zero-scored results and orders the rest by score, highest first.
// Ties keep retrieval order.
func Rank(results []MatchResult) []MatchResult {
	out := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.MatchScore > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}
