// Package roulette resolves "what do we watch" draws. Two strategies share
// one Selector contract: Uniform picks a random element of an ad-hoc list,
// Weighted deterministically picks the current leaderboard leader. The two
// are intentionally distinct and must not be merged.
package roulette

import (
	"sort"

	"movie-roulette/internal/models"
)

// Rank orders candidates by vote score descending, then vote count
// descending, then nomination time ascending, then id. Skipped candidates are
// excluded. The result is a pure function of the input; repeated calls on
// unchanged input return identical sequences.
func Rank(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !candidate.Skipped {
			ranked = append(ranked, candidate)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.VoteScore != b.VoteScore {
			return a.VoteScore > b.VoteScore
		}
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return ranked
}
