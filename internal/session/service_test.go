package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-roulette/internal/changefeed"
	"movie-roulette/internal/models"
	"movie-roulette/internal/store"

	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewService(mem, changefeed.New(), zap.NewNop())
	t.Cleanup(svc.Close)
	return svc, mem
}

func createVotingSession(t *testing.T, svc *Service, host string) models.Session {
	t.Helper()
	ctx := context.Background()
	created, err := svc.CreateSession(ctx, host, CreateParams{Title: "Noite do Cinema", AllowSuggestions: true})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	started, err := svc.StartVoting(ctx, created.ID, host, 10)
	if err != nil {
		t.Fatalf("start voting: %v", err)
	}
	return started
}

func TestCreateSessionRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateSession(context.Background(), "", CreateParams{})
	if !errors.Is(err, models.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "host-1", CreateParams{AllowSuggestions: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != models.StatusWaiting {
		t.Fatalf("expected waiting, got %s", created.Status)
	}

	started, err := svc.StartVoting(ctx, created.ID, "host-1", 15)
	if err != nil {
		t.Fatalf("start voting: %v", err)
	}
	if started.Status != models.StatusVoting {
		t.Fatalf("expected voting, got %s", started.Status)
	}
	if started.VotingStartedAt == nil || started.VotingEndsAt == nil {
		t.Fatal("voting window timestamps not set")
	}
	if got := started.VotingEndsAt.Sub(*started.VotingStartedAt); got != 15*time.Minute {
		t.Fatalf("expected 15 minute window, got %s", got)
	}

	if _, err := svc.AddCandidate(ctx, created.ID, "viewer-1", "Matrix"); err != nil {
		t.Fatalf("add candidate: %v", err)
	}

	resolved, err := svc.Resolve(ctx, created.ID, "host-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != models.StatusStreaming {
		t.Fatalf("expected streaming, got %s", resolved.Status)
	}
	if resolved.SelectedCandidateID == nil || resolved.SelectedMovieTitle != "Matrix" {
		t.Fatalf("winner not recorded: %#v", resolved)
	}
	if resolved.VotingEndsAt != nil {
		t.Fatal("voting_ends_at must be cleared outside the voting phase")
	}

	ended, err := svc.End(ctx, created.ID, "host-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != models.StatusEnded || ended.EndedAt == nil {
		t.Fatalf("session not ended: %#v", ended)
	}
}

func TestSkippingStatesIsRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "host-1", CreateParams{AllowSuggestions: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddCandidate(ctx, created.ID, "host-1", "Matrix"); err != nil {
		t.Fatalf("add candidate: %v", err)
	}

	// waiting -> streaming directly.
	if _, err := svc.Resolve(ctx, created.ID, "host-1"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	// waiting -> ended directly.
	if _, err := svc.End(ctx, created.ID, "host-1"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	after, err := svc.Session(ctx, created.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Status != models.StatusWaiting {
		t.Fatalf("failed transition must leave status unchanged, got %s", after.Status)
	}

	// Double voting start.
	if _, err := svc.StartVoting(ctx, created.ID, "host-1", 10); err != nil {
		t.Fatalf("start voting: %v", err)
	}
	if _, err := svc.StartVoting(ctx, created.ID, "host-1", 10); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second start, got %v", err)
	}
}

func TestTransitionsAreHostOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateSession(ctx, "host-1", CreateParams{AllowSuggestions: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.StartVoting(ctx, created.ID, "viewer-1", 10); !errors.Is(err, models.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

func TestResolveWithoutCandidatesLeavesVoting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")

	_, err := svc.Resolve(ctx, started.ID, "host-1")
	if !errors.Is(err, models.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	after, err := svc.Session(ctx, started.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Status != models.StatusVoting {
		t.Fatalf("failed resolve must leave session in voting, got %s", after.Status)
	}

	// Retry succeeds once a movie is nominated.
	if _, err := svc.AddCandidate(ctx, started.ID, "viewer-1", "Parasita"); err != nil {
		t.Fatalf("add candidate: %v", err)
	}
	if _, err := svc.Resolve(ctx, started.ID, "host-1"); err != nil {
		t.Fatalf("retry resolve: %v", err)
	}
}

func TestDuplicateNominationRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")

	if _, err := svc.AddCandidate(ctx, started.ID, "viewer-1", "Matrix"); err != nil {
		t.Fatalf("first nomination: %v", err)
	}
	_, err := svc.AddCandidate(ctx, started.ID, "viewer-2", "Matrix")
	if !errors.Is(err, models.ErrDuplicateCandidate) {
		t.Fatalf("expected ErrDuplicateCandidate, got %v", err)
	}
}

func TestSuggestionsClosedToViewers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateSession(ctx, "host-1", CreateParams{AllowSuggestions: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddCandidate(ctx, created.ID, "viewer-1", "Matrix"); !errors.Is(err, models.ErrSuggestionsClosed) {
		t.Fatalf("expected ErrSuggestionsClosed, got %v", err)
	}
	// The host can always nominate.
	if _, err := svc.AddCandidate(ctx, created.ID, "host-1", "Matrix"); err != nil {
		t.Fatalf("host nomination: %v", err)
	}
}

func TestCastVoteReplacesPriorVote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")
	candidate, err := svc.AddCandidate(ctx, started.ID, "viewer-1", "Matrix")
	if err != nil {
		t.Fatalf("add candidate: %v", err)
	}

	if _, err := svc.CastVote(ctx, started.ID, "viewer-1", candidate.ID, models.VoteUp, 1); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := svc.CastVote(ctx, started.ID, "viewer-1", candidate.ID, models.VoteUp, 3); err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if _, err := svc.CastVote(ctx, started.ID, "viewer-1", candidate.ID, models.VoteDown, 2); err != nil {
		t.Fatalf("third vote: %v", err)
	}

	candidates, err := svc.Candidates(ctx, started.ID)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	// Only the latest vote counts: one downvote of weight 2.
	if candidates[0].VoteCount != 1 {
		t.Fatalf("expected vote_count 1, got %d", candidates[0].VoteCount)
	}
	if candidates[0].VoteScore != -2 {
		t.Fatalf("expected vote_score -2, got %d", candidates[0].VoteScore)
	}

	votes, err := svc.UserVotes(ctx, started.ID, "viewer-1")
	if err != nil {
		t.Fatalf("user votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Type != models.VoteDown || votes[0].Weight != 2 {
		t.Fatalf("expected single replaced vote, got %#v", votes)
	}
}

func TestCastVoteValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")
	candidate, err := svc.AddCandidate(ctx, started.ID, "viewer-1", "Matrix")
	if err != nil {
		t.Fatalf("add candidate: %v", err)
	}

	if _, err := svc.CastVote(ctx, started.ID, "", candidate.ID, models.VoteUp, 1); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := svc.CastVote(ctx, started.ID, "viewer-1", "missing", models.VoteUp, 1); !errors.Is(err, models.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for unknown candidate, got %v", err)
	}

	other := createVotingSession(t, svc, "host-2")
	if _, err := svc.CastVote(ctx, other.ID, "viewer-1", candidate.ID, models.VoteUp, 1); !errors.Is(err, models.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for cross-session vote, got %v", err)
	}
}

func TestLeaderboardRankingScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")

	matrix, err := svc.AddCandidate(ctx, started.ID, "host-1", "Matrix")
	if err != nil {
		t.Fatalf("add Matrix: %v", err)
	}
	parasita, err := svc.AddCandidate(ctx, started.ID, "host-1", "Parasita")
	if err != nil {
		t.Fatalf("add Parasita: %v", err)
	}

	for _, voter := range []string{"voter-a", "voter-b"} {
		if _, err := svc.CastVote(ctx, started.ID, voter, matrix.ID, models.VoteUp, 1); err != nil {
			t.Fatalf("vote Matrix: %v", err)
		}
	}
	if _, err := svc.CastVote(ctx, started.ID, "voter-c", parasita.ID, models.VoteUp, 1); err != nil {
		t.Fatalf("vote Parasita: %v", err)
	}

	ranked, err := svc.Leaderboard(ctx, started.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].MovieTitle != "Matrix" || ranked[0].VoteScore != 2 {
		t.Fatalf("expected Matrix with score 2 first, got %q score %d", ranked[0].MovieTitle, ranked[0].VoteScore)
	}
	if ranked[1].MovieTitle != "Parasita" || ranked[1].VoteScore != 1 {
		t.Fatalf("expected Parasita with score 1 second, got %q score %d", ranked[1].MovieTitle, ranked[1].VoteScore)
	}

	resolved, err := svc.Resolve(ctx, started.ID, "host-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.SelectedMovieTitle != "Matrix" {
		t.Fatalf("weighted draw must pick Matrix, got %q", resolved.SelectedMovieTitle)
	}
}

func TestSkipVoteThresholdExcludesCandidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateSession(ctx, "host-1", CreateParams{AllowSuggestions: true, SkipVoteThreshold: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.StartVoting(ctx, created.ID, "host-1", 10); err != nil {
		t.Fatalf("start voting: %v", err)
	}
	bad, err := svc.AddCandidate(ctx, created.ID, "viewer-1", "Filme Ruim")
	if err != nil {
		t.Fatalf("add candidate: %v", err)
	}
	good, err := svc.AddCandidate(ctx, created.ID, "viewer-1", "Matrix")
	if err != nil {
		t.Fatalf("add candidate: %v", err)
	}

	if _, err := svc.CastVote(ctx, created.ID, "viewer-1", bad.ID, models.VoteDown, 1); err != nil {
		t.Fatalf("downvote 1: %v", err)
	}
	if _, err := svc.CastVote(ctx, created.ID, "viewer-2", bad.ID, models.VoteDown, 1); err != nil {
		t.Fatalf("downvote 2: %v", err)
	}
	if _, err := svc.CastVote(ctx, created.ID, "viewer-3", good.ID, models.VoteUp, 1); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	ranked, err := svc.Leaderboard(ctx, created.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(ranked) != 1 || ranked[0].MovieTitle != "Matrix" {
		t.Fatalf("skipped candidate must be excluded, got %#v", ranked)
	}
}

func TestVotesRejectedAfterResolution(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	started := createVotingSession(t, svc, "host-1")
	candidate, err := svc.AddCandidate(ctx, started.ID, "viewer-1", "Matrix")
	if err != nil {
		t.Fatalf("add candidate: %v", err)
	}
	if _, err := svc.Resolve(ctx, started.ID, "host-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.CastVote(ctx, started.ID, "viewer-1", candidate.ID, models.VoteUp, 1); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after resolution, got %v", err)
	}
}
