// Package store is the data-access layer. All session, candidate, vote and
// history mutations route through a Store; rows coming back from the backing
// database are mapped to the typed records in internal/models at this
// boundary and never leak past it.
package store

import (
	"context"

	"movie-roulette/internal/models"
)

type Store interface {
	// Sessions.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	// ActiveSessions returns sessions in waiting, voting or streaming status,
	// newest first.
	ActiveSessions(ctx context.Context) ([]models.Session, error)
	// UpdateSession applies mutate to the stored session atomically. If mutate
	// returns an error the session is left unchanged.
	UpdateSession(ctx context.Context, id string, mutate func(*models.Session) error) (models.Session, error)
	// VotingSessions returns sessions currently in the voting phase.
	VotingSessions(ctx context.Context) ([]models.Session, error)

	// Candidates.
	AddCandidate(ctx context.Context, candidate *models.Candidate) error
	GetCandidate(ctx context.Context, id string) (models.Candidate, error)
	// SessionCandidates returns the session's candidates ordered by
	// display_order, then nomination time.
	SessionCandidates(ctx context.Context, sessionID string) ([]models.Candidate, error)
	SearchCandidates(ctx context.Context, sessionID, fragment string) ([]models.Candidate, error)
	// ApplyVoteDelta adjusts the candidate's aggregates in one step. The count
	// never goes below zero: an underflowing delta is clamped and reported as
	// models.ErrInvariantViolation alongside the clamped candidate.
	ApplyVoteDelta(ctx context.Context, candidateID string, scoreDelta, countDelta int) (models.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, mutate func(*models.Candidate) error) (models.Candidate, error)

	// Votes. UpsertVote stores the vote keyed on (user, session, candidate),
	// replacing any prior vote for the triple, and returns the replaced vote
	// if there was one.
	UpsertVote(ctx context.Context, vote *models.Vote) (*models.Vote, error)
	UserVotes(ctx context.Context, sessionID, userID string) ([]models.Vote, error)

	// History log, one per owner, newest first.
	HistoryList(ctx context.Context, owner string) ([]models.HistoryEntry, error)
	// HistoryAdd prepends the entry and evicts the oldest entries beyond
	// capacity.
	HistoryAdd(ctx context.Context, owner string, entry models.HistoryEntry, capacity int) error
	HistoryRemove(ctx context.Context, owner, id string) error
	HistoryClear(ctx context.Context, owner string) error

	// AppendEvent records a session event with a JSON payload.
	AppendEvent(ctx context.Context, sessionID, kind string, payload any) error
}
