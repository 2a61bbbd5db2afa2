package roulette

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"movie-roulette/internal/models"
)

// Selector resolves a draw over a candidate set.
type Selector interface {
	Draw(candidates []models.Candidate) (models.Candidate, error)
}

// Uniform selects a uniformly random candidate with no score weighting. Used
// for ad-hoc movie lists outside a session.
type Uniform struct{}

func (Uniform) Draw(candidates []models.Candidate) (models.Candidate, error) {
	if len(candidates) == 0 {
		return models.Candidate{}, models.ErrNoCandidates
	}
	index, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return models.Candidate{}, fmt.Errorf("draw randomness: %w", err)
	}
	return candidates[index.Int64()], nil
}

// Weighted selects the current leaderboard leader. The draw is deterministic;
// the roulette look is presentation only. A tie at the top resolves to the
// earliest-nominated candidate.
type Weighted struct{}

func (Weighted) Draw(candidates []models.Candidate) (models.Candidate, error) {
	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return models.Candidate{}, models.ErrNoCandidates
	}
	return ranked[0], nil
}
