package db

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	ID                    string     `gorm:"primaryKey;size:36"`
	HostID                string     `gorm:"size:36;index;not null"`
	Title                 string     `gorm:"size:200;not null;default:''"`
	Status                string     `gorm:"size:16;index;not null"`
	SelectedCandidateID   *string    `gorm:"size:36"`
	SelectedMovieTitle    string     `gorm:"size:200;not null;default:''"`
	VotingDurationMinutes int        `gorm:"not null;default:10"`
	VotingStartedAt       *time.Time
	VotingEndsAt          *time.Time
	AllowSuggestions      bool       `gorm:"not null;default:true"`
	SkipVoteThreshold     int        `gorm:"not null;default:0"`
	EndedAt               *time.Time
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
	Candidates            []Candidate `gorm:"constraint:OnDelete:CASCADE"`
	Events                []Event     `gorm:"constraint:OnDelete:CASCADE"`
}

type Candidate struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionID    string    `gorm:"size:36;index;not null"`
	MovieTitle   string    `gorm:"size:200;not null"`
	AddedBy      string    `gorm:"size:36;not null"`
	VoteCount    int       `gorm:"not null;default:0"`
	VoteScore    int       `gorm:"not null;default:0"`
	Selected     bool      `gorm:"not null;default:false"`
	Skipped      bool      `gorm:"not null;default:false"`
	DisplayOrder int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Vote struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_votes_user_session_candidate"`
	SessionID   string    `gorm:"size:36;index;not null;uniqueIndex:idx_votes_user_session_candidate"`
	CandidateID string    `gorm:"size:36;index;not null;uniqueIndex:idx_votes_user_session_candidate"`
	VoteType    string    `gorm:"size:16;not null"`
	Weight      int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type HistoryEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Owner     string    `gorm:"size:64;index;not null"`
	Title     string    `gorm:"size:200;not null"`
	Timestamp time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"size:500;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID string         `gorm:"size:36;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
