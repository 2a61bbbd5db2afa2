package roulette

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-roulette/internal/kv"
	"movie-roulette/internal/models"
	"movie-roulette/internal/overlay"
	"movie-roulette/internal/store"

	"go.uber.org/zap"
)

func newTestSpinner(t *testing.T) (*Spinner, *overlay.Bridge, *overlay.History) {
	t.Helper()
	log := zap.NewNop()
	bridge := overlay.NewBridge(kv.NewMemoryChannel(), log)
	history := overlay.NewHistory(store.NewMemory(), "test_history", 50)
	return NewSpinner(bridge, history, time.Millisecond, log), bridge, history
}

func TestSpinPublishesOutcomeAndRecordsHistory(t *testing.T) {
	spinner, bridge, history := newTestSpinner(t)
	ctx := context.Background()

	outcome, err := spinner.Spin(ctx, Uniform{}, []models.Candidate{{MovieTitle: "Inception"}})
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if outcome.Winner != "Inception" || outcome.InProgress {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}

	read, err := bridge.Read(ctx)
	if err != nil {
		t.Fatalf("read channel: %v", err)
	}
	if read.Winner != "Inception" || read.InProgress {
		t.Fatalf("channel not finalized: %#v", read)
	}

	entries, err := history.List(ctx)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Inception" {
		t.Fatalf("unexpected history: %#v", entries)
	}
}

func TestRevealCarriesCommittedWinnerVerbatim(t *testing.T) {
	spinner, bridge, history := newTestSpinner(t)
	ctx := context.Background()

	outcome, err := spinner.Reveal(ctx, "Parasita")
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if outcome.Winner != "Parasita" || outcome.InProgress {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}

	read, err := bridge.Read(ctx)
	if err != nil {
		t.Fatalf("read channel: %v", err)
	}
	if read.Winner != "Parasita" {
		t.Fatalf("channel must carry the committed winner, got %q", read.Winner)
	}
	entries, err := history.List(ctx)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Parasita" {
		t.Fatalf("history must carry the committed winner, got %#v", entries)
	}
}

func TestSpinEmptyCandidates(t *testing.T) {
	spinner, _, _ := newTestSpinner(t)
	_, err := spinner.Spin(context.Background(), Uniform{}, nil)
	if !errors.Is(err, models.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestSpinAbandonedMidDelayRecordsNothing(t *testing.T) {
	log := zap.NewNop()
	bridge := overlay.NewBridge(kv.NewMemoryChannel(), log)
	history := overlay.NewHistory(store.NewMemory(), "test_history", 50)
	spinner := NewSpinner(bridge, history, 200*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := spinner.Spin(ctx, Uniform{}, []models.Candidate{{MovieTitle: "Matrix"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	entries, err := history.List(context.Background())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("abandoned spin must not record history, got %#v", entries)
	}
	read, err := bridge.Read(context.Background())
	if err != nil {
		t.Fatalf("read channel: %v", err)
	}
	if read.Winner != "" {
		t.Fatalf("abandoned spin must not publish a winner, got %q", read.Winner)
	}
}
