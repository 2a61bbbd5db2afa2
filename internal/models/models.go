package models

import "time"

// SessionStatus is the lifecycle state of a watch session.
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusVoting    SessionStatus = "voting"
	StatusStreaming SessionStatus = "streaming"
	StatusEnded     SessionStatus = "ended"
)

// VoteType distinguishes up- from downvotes.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Session is one hosted watch event. SelectedCandidateID is set only after a
// draw has completed; VotingEndsAt is set only while status is voting.
type Session struct {
	ID                    string         `json:"id"`
	HostID                string         `json:"host_id"`
	Title                 string         `json:"title"`
	Status                SessionStatus  `json:"status"`
	SelectedCandidateID   *string        `json:"selected_candidate_id,omitempty"`
	SelectedMovieTitle    string         `json:"selected_movie_title,omitempty"`
	VotingDurationMinutes int            `json:"voting_duration_minutes"`
	VotingStartedAt       *time.Time     `json:"voting_started_at,omitempty"`
	VotingEndsAt          *time.Time     `json:"voting_ends_at,omitempty"`
	AllowSuggestions      bool           `json:"allow_movie_suggestions"`
	SkipVoteThreshold     int            `json:"skip_vote_threshold"`
	CreatedAt             time.Time      `json:"created_at"`
	EndedAt               *time.Time     `json:"ended_at,omitempty"`
}

// Candidate is a movie nominated into a session.
type Candidate struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	MovieTitle   string    `json:"movie_title"`
	AddedBy      string    `json:"added_by"`
	VoteCount    int       `json:"vote_count"`
	VoteScore    int       `json:"vote_score"`
	Selected     bool      `json:"selected"`
	Skipped      bool      `json:"skipped"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Vote is the latest vote by one user on one candidate in one session. A new
// vote for the same (user, session, candidate) triple replaces the old one.
type Vote struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id"`
	Type        VoteType  `json:"vote_type"`
	Weight      int       `json:"weight"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Effect is the vote's signed contribution to a candidate's score.
func (v Vote) Effect() int {
	if v.Type == VoteDown {
		return -v.Weight
	}
	return v.Weight
}

// DrawOutcome is the ephemeral result of a roulette draw. A zero Winner with
// InProgress false means the channel is idle.
type DrawOutcome struct {
	Winner     string    `json:"winner"`
	At         time.Time `json:"at"`
	InProgress bool      `json:"in_progress"`
}

// Idle reports whether the outcome carries no winner and no running draw.
func (o DrawOutcome) Idle() bool {
	return o.Winner == "" && !o.InProgress
}

// HistoryEntry is one past draw result in a capped, per-owner log.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}
