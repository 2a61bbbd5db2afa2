// Package session owns the watch-session lifecycle: the waiting → voting →
// streaming → ended state machine, the vote ledger and the candidate
// registry. All writes route through the store; every mutation is echoed to
// the changefeed and the session event log.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"movie-roulette/internal/changefeed"
	"movie-roulette/internal/models"
	"movie-roulette/internal/roulette"
	"movie-roulette/internal/store"

	"go.uber.org/zap"
)

// DefaultVotingMinutes is used when a session is created without an explicit
// voting window length.
const DefaultVotingMinutes = 10

type Service struct {
	store    store.Store
	feed     *changefeed.Feed
	selector roulette.Selector
	log      *zap.Logger

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func NewService(st store.Store, feed *changefeed.Feed, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		feed:     feed,
		selector: roulette.Weighted{},
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// CreateParams carries the host-settable session options.
type CreateParams struct {
	Title                 string
	VotingDurationMinutes int
	AllowSuggestions      bool
	SkipVoteThreshold     int
}

func (s *Service) CreateSession(ctx context.Context, hostID string, params CreateParams) (models.Session, error) {
	if hostID == "" {
		return models.Session{}, models.ErrNotAuthenticated
	}
	minutes := params.VotingDurationMinutes
	if minutes <= 0 {
		minutes = DefaultVotingMinutes
	}
	session := models.Session{
		HostID:                hostID,
		Title:                 strings.TrimSpace(params.Title),
		Status:                models.StatusWaiting,
		VotingDurationMinutes: minutes,
		AllowSuggestions:      params.AllowSuggestions,
		SkipVoteThreshold:     params.SkipVoteThreshold,
	}
	if err := s.store.CreateSession(ctx, &session); err != nil {
		return models.Session{}, err
	}
	s.appendEvent(ctx, session.ID, "session_created", EventPayload{HostID: hostID, Status: string(session.Status)})
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableSessions, Kind: changefeed.KindInsert,
		SessionID: session.ID, Payload: session,
	})
	s.log.Info("session created", zap.String("session_id", session.ID), zap.String("host_id", hostID))
	return session, nil
}

func (s *Service) Session(ctx context.Context, id string) (models.Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Service) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	return s.store.ActiveSessions(ctx)
}

// StartVoting moves the session from waiting to voting and opens a timed
// window. An empty candidate list is allowed; resolution will then fail until
// movies are nominated. Host only.
func (s *Service) StartVoting(ctx context.Context, sessionID, hostID string, minutes int) (models.Session, error) {
	if hostID == "" {
		return models.Session{}, models.ErrNotAuthenticated
	}
	now := time.Now().UTC()
	updated, err := s.store.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		if session.HostID != hostID {
			return models.ErrNotHost
		}
		if session.Status != models.StatusWaiting {
			return fmt.Errorf("%s -> voting: %w", session.Status, models.ErrInvalidTransition)
		}
		if minutes > 0 {
			session.VotingDurationMinutes = minutes
		}
		endsAt := now.Add(time.Duration(session.VotingDurationMinutes) * time.Minute)
		session.Status = models.StatusVoting
		session.VotingStartedAt = &now
		session.VotingEndsAt = &endsAt
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.scheduleResolveTimer(updated)
	s.appendEvent(ctx, sessionID, "voting_started", EventPayload{
		HostID: hostID, Status: string(updated.Status),
	})
	s.publishSessionUpdate(updated)
	s.log.Info("voting started",
		zap.String("session_id", sessionID),
		zap.Timep("ends_at", updated.VotingEndsAt))
	return updated, nil
}

// Resolve closes the voting window: it draws the leaderboard leader and moves
// the session to streaming. An empty initiator marks a system (timer) call;
// otherwise only the host may resolve. When no candidates exist the session
// stays in voting and the call is safely retryable.
func (s *Service) Resolve(ctx context.Context, sessionID, initiator string) (models.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	if initiator != "" && initiator != session.HostID {
		return models.Session{}, models.ErrNotHost
	}
	if session.Status != models.StatusVoting {
		return models.Session{}, fmt.Errorf("%s -> streaming: %w", session.Status, models.ErrInvalidTransition)
	}
	candidates, err := s.store.SessionCandidates(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	winner, err := s.selector.Draw(candidates)
	if err != nil {
		return models.Session{}, err
	}
	updated, err := s.store.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		if session.Status != models.StatusVoting {
			return fmt.Errorf("%s -> streaming: %w", session.Status, models.ErrInvalidTransition)
		}
		session.Status = models.StatusStreaming
		session.SelectedCandidateID = &winner.ID
		session.SelectedMovieTitle = winner.MovieTitle
		session.VotingEndsAt = nil
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.cancelResolveTimer(sessionID)
	if _, err := s.store.UpdateCandidate(ctx, winner.ID, func(candidate *models.Candidate) error {
		candidate.Selected = true
		return nil
	}); err != nil {
		s.log.Error("mark selected candidate failed",
			zap.String("candidate_id", winner.ID), zap.Error(err))
	}
	reason := "host"
	if initiator == "" {
		reason = "timeout"
	}
	s.appendEvent(ctx, sessionID, "session_resolved", EventPayload{
		Winner: winner.MovieTitle, CandidateID: winner.ID, Reason: reason,
	})
	s.publishSessionUpdate(updated)
	s.log.Info("session resolved",
		zap.String("session_id", sessionID),
		zap.String("winner", winner.MovieTitle),
		zap.String("reason", reason))
	return updated, nil
}

// End moves the session from streaming to ended. Host only.
func (s *Service) End(ctx context.Context, sessionID, hostID string) (models.Session, error) {
	if hostID == "" {
		return models.Session{}, models.ErrNotAuthenticated
	}
	now := time.Now().UTC()
	updated, err := s.store.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		if session.HostID != hostID {
			return models.ErrNotHost
		}
		if session.Status != models.StatusStreaming {
			return fmt.Errorf("%s -> ended: %w", session.Status, models.ErrInvalidTransition)
		}
		session.Status = models.StatusEnded
		session.EndedAt = &now
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.cancelResolveTimer(sessionID)
	s.appendEvent(ctx, sessionID, "session_ended", EventPayload{HostID: hostID})
	s.publishSessionUpdate(updated)
	s.log.Info("session ended", zap.String("session_id", sessionID))
	return updated, nil
}

// AddCandidate nominates a movie into the session. Viewers may nominate only
// while the session allows suggestions; the host always can. Nominations are
// accepted until the session resolves.
func (s *Service) AddCandidate(ctx context.Context, sessionID, userID, title string) (models.Candidate, error) {
	if userID == "" {
		return models.Candidate{}, models.ErrNotAuthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Candidate{}, fmt.Errorf("empty movie title: %w", models.ErrInvalidTarget)
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.Candidate{}, err
	}
	if session.Status != models.StatusWaiting && session.Status != models.StatusVoting {
		return models.Candidate{}, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidTransition)
	}
	if !session.AllowSuggestions && userID != session.HostID {
		return models.Candidate{}, models.ErrSuggestionsClosed
	}
	candidate := models.Candidate{
		SessionID:  sessionID,
		MovieTitle: title,
		AddedBy:    userID,
	}
	if err := s.store.AddCandidate(ctx, &candidate); err != nil {
		return models.Candidate{}, err
	}
	s.appendEvent(ctx, sessionID, "movie_nominated", EventPayload{
		UserID: userID, CandidateID: candidate.ID, MovieTitle: title,
	})
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableCandidates, Kind: changefeed.KindInsert,
		SessionID: sessionID, Payload: candidate,
	})
	return candidate, nil
}

// CastVote records the voter's latest vote on a candidate. A prior vote for
// the same (voter, session, candidate) triple is replaced, and the aggregate
// tallies are adjusted by the net difference in one step so no observer sees
// the retraction without the re-application.
func (s *Service) CastVote(ctx context.Context, sessionID, userID, candidateID string, voteType models.VoteType, weight int) (models.Vote, error) {
	if userID == "" {
		return models.Vote{}, models.ErrNotAuthenticated
	}
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return models.Vote{}, fmt.Errorf("unknown vote type %q: %w", voteType, models.ErrInvalidTarget)
	}
	if weight <= 0 {
		weight = 1
	}
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Vote{}, fmt.Errorf("candidate %s: %w", candidateID, models.ErrInvalidTarget)
		}
		return models.Vote{}, err
	}
	if candidate.SessionID != sessionID {
		return models.Vote{}, fmt.Errorf("candidate %s belongs to another session: %w", candidateID, models.ErrInvalidTarget)
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.Vote{}, err
	}
	if session.Status != models.StatusWaiting && session.Status != models.StatusVoting {
		return models.Vote{}, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidTransition)
	}
	vote := models.Vote{
		UserID:      userID,
		SessionID:   sessionID,
		CandidateID: candidateID,
		Type:        voteType,
		Weight:      weight,
	}
	prior, err := s.store.UpsertVote(ctx, &vote)
	if err != nil {
		return models.Vote{}, err
	}
	scoreDelta := vote.Effect()
	countDelta := 1
	if prior != nil {
		scoreDelta -= prior.Effect()
		countDelta = 0
	}
	updated, err := s.store.ApplyVoteDelta(ctx, candidateID, scoreDelta, countDelta)
	if err != nil {
		if !errors.Is(err, models.ErrInvariantViolation) {
			return models.Vote{}, err
		}
		// The tally was clamped at zero. Degrades gracefully but marks a bug.
		s.log.Error("vote tally clamped",
			zap.String("candidate_id", candidateID),
			zap.Int("score_delta", scoreDelta),
			zap.Int("count_delta", countDelta),
			zap.Error(err))
	}
	s.maybeSkipCandidate(ctx, session, updated)
	s.appendEvent(ctx, sessionID, "vote_cast", EventPayload{
		UserID: userID, CandidateID: candidateID,
		VoteType: string(voteType), Weight: weight,
	})
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableVotes, Kind: changefeed.KindUpdate,
		SessionID: sessionID, Payload: vote,
	})
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableCandidates, Kind: changefeed.KindUpdate,
		SessionID: sessionID, Payload: updated,
	})
	return vote, nil
}

// maybeSkipCandidate enforces the session's skip-vote threshold: once a
// candidate's score falls to -threshold it is excluded from the leaderboard.
func (s *Service) maybeSkipCandidate(ctx context.Context, session models.Session, candidate models.Candidate) {
	if session.SkipVoteThreshold <= 0 || candidate.Skipped {
		return
	}
	if candidate.VoteScore > -session.SkipVoteThreshold {
		return
	}
	skipped, err := s.store.UpdateCandidate(ctx, candidate.ID, func(candidate *models.Candidate) error {
		candidate.Skipped = true
		return nil
	})
	if err != nil {
		s.log.Error("skip candidate failed", zap.String("candidate_id", candidate.ID), zap.Error(err))
		return
	}
	s.appendEvent(ctx, session.ID, "movie_skipped", EventPayload{
		CandidateID: candidate.ID, MovieTitle: candidate.MovieTitle,
	})
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableCandidates, Kind: changefeed.KindUpdate,
		SessionID: session.ID, Payload: skipped,
	})
	s.log.Info("candidate skipped",
		zap.String("session_id", session.ID),
		zap.String("movie", candidate.MovieTitle))
}

func (s *Service) Candidates(ctx context.Context, sessionID string) ([]models.Candidate, error) {
	return s.store.SessionCandidates(ctx, sessionID)
}

func (s *Service) SearchCandidates(ctx context.Context, sessionID, fragment string) ([]models.Candidate, error) {
	return s.store.SearchCandidates(ctx, sessionID, fragment)
}

// Leaderboard returns the session's candidates in draw order.
func (s *Service) Leaderboard(ctx context.Context, sessionID string) ([]models.Candidate, error) {
	candidates, err := s.store.SessionCandidates(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return roulette.Rank(candidates), nil
}

func (s *Service) UserVotes(ctx context.Context, sessionID, userID string) ([]models.Vote, error) {
	if userID == "" {
		return nil, models.ErrNotAuthenticated
	}
	return s.store.UserVotes(ctx, sessionID, userID)
}

func (s *Service) appendEvent(ctx context.Context, sessionID, kind string, payload EventPayload) {
	payload.SessionID = sessionID
	if err := s.store.AppendEvent(ctx, sessionID, kind, payload); err != nil {
		s.log.Error("append event failed",
			zap.String("session_id", sessionID),
			zap.String("type", kind),
			zap.Error(err))
	}
}

func (s *Service) publishSessionUpdate(session models.Session) {
	s.feed.Publish(changefeed.Event{
		Table: changefeed.TableSessions, Kind: changefeed.KindUpdate,
		SessionID: session.ID, Payload: session,
	})
}
