package overlay

import (
	"context"
	"testing"
	"time"

	"movie-roulette/internal/kv"
	"movie-roulette/internal/models"

	"go.uber.org/zap"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	return NewBridge(kv.NewMemoryChannel(), zap.NewNop())
}

func waitOutcome(t *testing.T, ch <-chan models.DrawOutcome) models.DrawOutcome {
	t.Helper()
	select {
	case outcome, ok := <-ch:
		if !ok {
			t.Fatal("observe channel closed unexpectedly")
		}
		return outcome
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outcome")
	}
	return models.DrawOutcome{}
}

func TestPublishThenRead(t *testing.T) {
	bridge := newTestBridge(t)
	ctx := context.Background()

	if err := bridge.Publish(ctx, models.DrawOutcome{Winner: "Inception"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	outcome, err := bridge.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if outcome.Winner != "Inception" || outcome.InProgress {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
}

func TestObserveYieldsOnlyChanges(t *testing.T) {
	bridge := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bridge.Observe(ctx, 5*time.Millisecond)

	// First tick reports the idle state.
	first := waitOutcome(t, ch)
	if !first.Idle() {
		t.Fatalf("expected idle first outcome, got %#v", first)
	}

	if err := bridge.Publish(context.Background(), models.DrawOutcome{Winner: "Inception"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	second := waitOutcome(t, ch)
	if second.Winner != "Inception" {
		t.Fatalf("expected Inception, got %#v", second)
	}

	// Unchanged channel stays silent.
	select {
	case extra := <-ch:
		t.Fatalf("expected no further outcomes, got %#v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestObserveSeesSpinningFlagToggle(t *testing.T) {
	bridge := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bridge.Observe(ctx, 5*time.Millisecond)
	waitOutcome(t, ch) // idle

	if err := bridge.Publish(context.Background(), models.DrawOutcome{InProgress: true}); err != nil {
		t.Fatalf("publish spinning: %v", err)
	}
	spinning := waitOutcome(t, ch)
	if !spinning.InProgress {
		t.Fatalf("expected in-progress outcome, got %#v", spinning)
	}

	if err := bridge.Publish(context.Background(), models.DrawOutcome{Winner: "Matrix"}); err != nil {
		t.Fatalf("publish winner: %v", err)
	}
	final := waitOutcome(t, ch)
	if final.InProgress || final.Winner != "Matrix" {
		t.Fatalf("expected finalized Matrix, got %#v", final)
	}
}

func TestClearReturnsChannelToIdle(t *testing.T) {
	bridge := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bridge.Publish(context.Background(), models.DrawOutcome{Winner: "Matrix"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ch := bridge.Observe(ctx, 5*time.Millisecond)
	if got := waitOutcome(t, ch); got.Winner != "Matrix" {
		t.Fatalf("expected Matrix, got %#v", got)
	}

	if err := bridge.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	idle := waitOutcome(t, ch)
	if !idle.Idle() {
		t.Fatalf("expected idle after clear, got %#v", idle)
	}
}

func TestObserveStopsOnCancel(t *testing.T) {
	bridge := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch := bridge.Observe(ctx, 5*time.Millisecond)
	waitOutcome(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A final in-flight outcome is acceptable; the channel must close next.
			if _, ok := <-ch; ok {
				t.Fatal("observe channel still open after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("observe channel did not close after cancel")
	}
}
