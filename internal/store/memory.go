package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"movie-roulette/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and DB-less runs.
type Memory struct {
	mu         sync.Mutex
	sessions   map[string]*models.Session
	candidates map[string]*models.Candidate
	votes      map[string]*models.Vote // keyed user|session|candidate
	history    map[string][]models.HistoryEntry
	events     []memoryEvent
}

type memoryEvent struct {
	SessionID string
	Type      string
	Payload   any
	At        time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions:   make(map[string]*models.Session),
		candidates: make(map[string]*models.Candidate),
		votes:      make(map[string]*models.Vote),
		history:    make(map[string][]models.HistoryEntry),
	}
}

func voteKey(userID, sessionID, candidateID string) string {
	return userID + "|" + sessionID + "|" + candidateID
}

func (m *Memory) CreateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return *session, nil
}

func (m *Memory) ActiveSessions(_ context.Context) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := make([]models.Session, 0)
	for _, session := range m.sessions {
		switch session.Status {
		case models.StatusWaiting, models.StatusVoting, models.StatusStreaming:
			active = append(active, *session)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

func (m *Memory) VotingSessions(_ context.Context) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	voting := make([]models.Session, 0)
	for _, session := range m.sessions {
		if session.Status == models.StatusVoting {
			voting = append(voting, *session)
		}
	}
	sort.Slice(voting, func(i, j int) bool {
		return voting[i].CreatedAt.After(voting[j].CreatedAt)
	})
	return voting, nil
}

func (m *Memory) UpdateSession(_ context.Context, id string, mutate func(*models.Session) error) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	scratch := *session
	if err := mutate(&scratch); err != nil {
		return *session, err
	}
	scratch.ID = id
	*session = scratch
	return *session, nil
}

func (m *Memory) AddCandidate(_ context.Context, candidate *models.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[candidate.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", candidate.SessionID, models.ErrNotFound)
	}
	order := 0
	for _, existing := range m.candidates {
		if existing.SessionID != candidate.SessionID {
			continue
		}
		if strings.EqualFold(existing.MovieTitle, candidate.MovieTitle) {
			return fmt.Errorf("%q: %w", candidate.MovieTitle, models.ErrDuplicateCandidate)
		}
		order++
	}
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}
	candidate.DisplayOrder = order
	stored := *candidate
	m.candidates[candidate.ID] = &stored
	return nil
}

func (m *Memory) GetCandidate(_ context.Context, id string) (models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidate, ok := m.candidates[id]
	if !ok {
		return models.Candidate{}, fmt.Errorf("candidate %s: %w", id, models.ErrNotFound)
	}
	return *candidate, nil
}

func (m *Memory) SessionCandidates(_ context.Context, sessionID string) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionCandidatesLocked(sessionID), nil
}

func (m *Memory) sessionCandidatesLocked(sessionID string) []models.Candidate {
	candidates := make([]models.Candidate, 0)
	for _, candidate := range m.candidates {
		if candidate.SessionID == sessionID {
			candidates = append(candidates, *candidate)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DisplayOrder != candidates[j].DisplayOrder {
			return candidates[i].DisplayOrder < candidates[j].DisplayOrder
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates
}

func (m *Memory) SearchCandidates(_ context.Context, sessionID, fragment string) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(fragment))
	matched := make([]models.Candidate, 0)
	for _, candidate := range m.sessionCandidatesLocked(sessionID) {
		if needle == "" || strings.Contains(strings.ToLower(candidate.MovieTitle), needle) {
			matched = append(matched, candidate)
		}
	}
	return matched, nil
}

func (m *Memory) ApplyVoteDelta(_ context.Context, candidateID string, scoreDelta, countDelta int) (models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidate, ok := m.candidates[candidateID]
	if !ok {
		return models.Candidate{}, fmt.Errorf("candidate %s: %w", candidateID, models.ErrNotFound)
	}
	var err error
	candidate.VoteScore += scoreDelta
	candidate.VoteCount += countDelta
	if candidate.VoteCount < 0 {
		candidate.VoteCount = 0
		err = fmt.Errorf("candidate %s count underflow: %w", candidateID, models.ErrInvariantViolation)
	}
	return *candidate, err
}

func (m *Memory) UpdateCandidate(_ context.Context, id string, mutate func(*models.Candidate) error) (models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidate, ok := m.candidates[id]
	if !ok {
		return models.Candidate{}, fmt.Errorf("candidate %s: %w", id, models.ErrNotFound)
	}
	scratch := *candidate
	if err := mutate(&scratch); err != nil {
		return *candidate, err
	}
	scratch.ID = id
	*candidate = scratch
	return *candidate, nil
}

func (m *Memory) UpsertVote(_ context.Context, vote *models.Vote) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := voteKey(vote.UserID, vote.SessionID, vote.CandidateID)
	now := time.Now().UTC()
	if prior, ok := m.votes[key]; ok {
		replaced := *prior
		prior.Type = vote.Type
		prior.Weight = vote.Weight
		prior.UpdatedAt = now
		*vote = *prior
		return &replaced, nil
	}
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	vote.CreatedAt = now
	vote.UpdatedAt = now
	stored := *vote
	m.votes[key] = &stored
	return nil, nil
}

func (m *Memory) UserVotes(_ context.Context, sessionID, userID string) ([]models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	votes := make([]models.Vote, 0)
	for _, vote := range m.votes {
		if vote.SessionID == sessionID && vote.UserID == userID {
			votes = append(votes, *vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes, nil
}

func (m *Memory) HistoryList(_ context.Context, owner string) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.history[owner]
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *Memory) HistoryAdd(_ context.Context, owner string, entry models.HistoryEntry, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]models.HistoryEntry{entry}, m.history[owner]...)
	if capacity > 0 && len(entries) > capacity {
		entries = entries[:capacity]
	}
	m.history[owner] = entries
	return nil
}

func (m *Memory) HistoryRemove(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.history[owner]
	for i, entry := range entries {
		if entry.ID == id {
			m.history[owner] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("history entry %s: %w", id, models.ErrNotFound)
}

func (m *Memory) HistoryClear(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, owner)
	return nil
}

func (m *Memory) AppendEvent(_ context.Context, sessionID, kind string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, memoryEvent{
		SessionID: sessionID,
		Type:      kind,
		Payload:   payload,
		At:        time.Now().UTC(),
	})
	return nil
}
