// Package overlay propagates draw outcomes to read-only display surfaces. An
// overlay embedded in broadcast software cannot hold a live push connection,
// so the bridge writes the result to a shared durable key-value channel and
// consumers poll it at a fixed interval.
package overlay

import (
	"context"
	"time"

	"movie-roulette/internal/kv"
	"movie-roulette/internal/models"

	"go.uber.org/zap"
)

// Well-known channel keys. Readers only ever read them; the draw-performing
// surface is the single writer.
const (
	KeyLastWinner = "roulette_last"
	KeySpinning   = "roulette_spinning"
)

// Bridge publishes draw outcomes through a kv.Channel and lets consumers
// observe them by polling.
type Bridge struct {
	channel kv.Channel
	log     *zap.Logger
}

func NewBridge(channel kv.Channel, log *zap.Logger) *Bridge {
	return &Bridge{channel: channel, log: log}
}

// Publish writes the outcome to the channel. The spinning flag is stored as
// "true" while a draw is in progress and removed otherwise; the winner key is
// only written when there is a winner.
func (b *Bridge) Publish(ctx context.Context, outcome models.DrawOutcome) error {
	if outcome.InProgress {
		if err := b.channel.Put(ctx, KeySpinning, "true"); err != nil {
			return err
		}
	} else if err := b.channel.Delete(ctx, KeySpinning); err != nil {
		return err
	}
	if outcome.Winner != "" {
		return b.channel.Put(ctx, KeyLastWinner, outcome.Winner)
	}
	return nil
}

// Clear removes both keys, returning the channel to the idle state.
func (b *Bridge) Clear(ctx context.Context) error {
	if err := b.channel.Delete(ctx, KeySpinning); err != nil {
		return err
	}
	return b.channel.Delete(ctx, KeyLastWinner)
}

// Read performs one atomic poll of both keys.
func (b *Bridge) Read(ctx context.Context) (models.DrawOutcome, error) {
	winner, _, err := b.channel.Get(ctx, KeyLastWinner)
	if err != nil {
		return models.DrawOutcome{}, err
	}
	spinning, present, err := b.channel.Get(ctx, KeySpinning)
	if err != nil {
		return models.DrawOutcome{}, err
	}
	return models.DrawOutcome{
		Winner:     winner,
		InProgress: present && spinning == "true",
		At:         time.Now().UTC(),
	}, nil
}

// Observe polls the channel every interval and sends an outcome only when the
// winner or the in-progress flag changed since the last tick. The loop stops,
// and the returned channel closes, when ctx is cancelled. Cancellation only
// takes effect at tick boundaries; each tick is a single atomic read.
func (b *Bridge) Observe(ctx context.Context, interval time.Duration) <-chan models.DrawOutcome {
	out := make(chan models.DrawOutcome, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var last *models.DrawOutcome
		poll := func() {
			outcome, err := b.Read(ctx)
			if err != nil {
				b.log.Warn("overlay poll failed", zap.Error(err))
				return
			}
			if last != nil && last.Winner == outcome.Winner && last.InProgress == outcome.InProgress {
				return
			}
			last = &outcome
			select {
			case out <- outcome:
			case <-ctx.Done():
			}
		}
		poll()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()
	return out
}
