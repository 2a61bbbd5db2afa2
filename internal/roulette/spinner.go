package roulette

import (
	"context"
	"time"

	"movie-roulette/internal/models"
	"movie-roulette/internal/overlay"

	"go.uber.org/zap"
)

// DefaultSpinDelay is the presentation pause between starting a draw and
// revealing the winner. Pacing only, not correctness.
const DefaultSpinDelay = 2 * time.Second

// Spinner runs the presentation side of a draw: it flags the shared channel
// as spinning, waits out the delay, then publishes the winner and records it
// in the history log.
type Spinner struct {
	bridge  *overlay.Bridge
	history *overlay.History
	delay   time.Duration
	log     *zap.Logger
}

func NewSpinner(bridge *overlay.Bridge, history *overlay.History, delay time.Duration, log *zap.Logger) *Spinner {
	if delay <= 0 {
		delay = DefaultSpinDelay
	}
	return &Spinner{bridge: bridge, history: history, delay: delay, log: log}
}

// Spin performs one draw over the given candidates. The winner is decided up
// front; the delay is pure presentation. If ctx is cancelled during the delay
// the spin is abandoned: nothing is published or recorded, and the stale
// spinning flag is overwritten by the next publish or clear.
func (s *Spinner) Spin(ctx context.Context, selector Selector, candidates []models.Candidate) (models.DrawOutcome, error) {
	if len(candidates) == 0 {
		return models.DrawOutcome{}, models.ErrNoCandidates
	}
	winner, err := selector.Draw(candidates)
	if err != nil {
		return models.DrawOutcome{}, err
	}
	return s.Reveal(ctx, winner.MovieTitle)
}

// Reveal runs the presentation around an already-decided winner: it flags the
// channel as spinning, waits out the delay, then publishes the outcome and
// records it in the history log. The winner itself is never recomputed here,
// so what observers see is exactly what the caller committed. Cancellation
// mid-delay publishes and records nothing.
func (s *Spinner) Reveal(ctx context.Context, winner string) (models.DrawOutcome, error) {
	if err := s.bridge.Publish(ctx, models.DrawOutcome{InProgress: true}); err != nil {
		return models.DrawOutcome{}, err
	}
	select {
	case <-ctx.Done():
		return models.DrawOutcome{}, ctx.Err()
	case <-time.After(s.delay):
	}
	outcome := models.DrawOutcome{
		Winner: winner,
		At:     time.Now().UTC(),
	}
	if err := s.bridge.Publish(ctx, outcome); err != nil {
		return models.DrawOutcome{}, err
	}
	if _, err := s.history.Record(ctx, outcome.Winner); err != nil {
		s.log.Error("record draw history failed", zap.String("winner", outcome.Winner), zap.Error(err))
	}
	s.log.Info("draw revealed", zap.String("winner", outcome.Winner))
	return outcome, nil
}
