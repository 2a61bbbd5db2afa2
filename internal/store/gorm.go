package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"movie-roulette/internal/db"
	"movie-roulette/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	conn *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{conn: conn}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func sessionToRow(session models.Session) db.Session {
	return db.Session{
		ID:                    session.ID,
		HostID:                session.HostID,
		Title:                 session.Title,
		Status:                string(session.Status),
		SelectedCandidateID:   session.SelectedCandidateID,
		SelectedMovieTitle:    session.SelectedMovieTitle,
		VotingDurationMinutes: session.VotingDurationMinutes,
		VotingStartedAt:       session.VotingStartedAt,
		VotingEndsAt:          session.VotingEndsAt,
		AllowSuggestions:      session.AllowSuggestions,
		SkipVoteThreshold:     session.SkipVoteThreshold,
		EndedAt:               session.EndedAt,
		CreatedAt:             session.CreatedAt,
	}
}

func sessionFromRow(row db.Session) models.Session {
	return models.Session{
		ID:                    row.ID,
		HostID:                row.HostID,
		Title:                 row.Title,
		Status:                models.SessionStatus(row.Status),
		SelectedCandidateID:   row.SelectedCandidateID,
		SelectedMovieTitle:    row.SelectedMovieTitle,
		VotingDurationMinutes: row.VotingDurationMinutes,
		VotingStartedAt:       row.VotingStartedAt,
		VotingEndsAt:          row.VotingEndsAt,
		AllowSuggestions:      row.AllowSuggestions,
		SkipVoteThreshold:     row.SkipVoteThreshold,
		EndedAt:               row.EndedAt,
		CreatedAt:             row.CreatedAt,
	}
}

func candidateToRow(candidate models.Candidate) db.Candidate {
	return db.Candidate{
		ID:           candidate.ID,
		SessionID:    candidate.SessionID,
		MovieTitle:   candidate.MovieTitle,
		AddedBy:      candidate.AddedBy,
		VoteCount:    candidate.VoteCount,
		VoteScore:    candidate.VoteScore,
		Selected:     candidate.Selected,
		Skipped:      candidate.Skipped,
		DisplayOrder: candidate.DisplayOrder,
		CreatedAt:    candidate.CreatedAt,
	}
}

func candidateFromRow(row db.Candidate) models.Candidate {
	return models.Candidate{
		ID:           row.ID,
		SessionID:    row.SessionID,
		MovieTitle:   row.MovieTitle,
		AddedBy:      row.AddedBy,
		VoteCount:    row.VoteCount,
		VoteScore:    row.VoteScore,
		Selected:     row.Selected,
		Skipped:      row.Skipped,
		DisplayOrder: row.DisplayOrder,
		CreatedAt:    row.CreatedAt,
	}
}

func voteFromRow(row db.Vote) models.Vote {
	return models.Vote{
		ID:          row.ID,
		UserID:      row.UserID,
		SessionID:   row.SessionID,
		CandidateID: row.CandidateID,
		Type:        models.VoteType(row.VoteType),
		Weight:      row.Weight,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (g *Gorm) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	row := sessionToRow(*session)
	return g.conn.WithContext(ctx).Create(&row).Error
}

func (g *Gorm) GetSession(ctx context.Context, id string) (models.Session, error) {
	var row db.Session
	err := g.conn.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, err
	}
	return sessionFromRow(row), nil
}

func (g *Gorm) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	return g.sessionsByStatus(ctx, []string{
		string(models.StatusWaiting), string(models.StatusVoting), string(models.StatusStreaming),
	})
}

func (g *Gorm) VotingSessions(ctx context.Context) ([]models.Session, error) {
	return g.sessionsByStatus(ctx, []string{string(models.StatusVoting)})
}

func (g *Gorm) sessionsByStatus(ctx context.Context, statuses []string) ([]models.Session, error) {
	var rows []db.Session
	err := g.conn.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, sessionFromRow(row))
	}
	return sessions, nil
}

func (g *Gorm) UpdateSession(ctx context.Context, id string, mutate func(*models.Session) error) (models.Session, error) {
	var updated models.Session
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row db.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		session := sessionFromRow(row)
		if err := mutate(&session); err != nil {
			return err
		}
		session.ID = id
		next := sessionToRow(session)
		next.CreatedAt = row.CreatedAt
		if err := tx.Model(&db.Session{}).Where("id = ?", id).
			Select("*").Omit("id", "created_at").Updates(&next).Error; err != nil {
			return err
		}
		updated = session
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

func (g *Gorm) AddCandidate(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Session{}).Where("id = ?", candidate.SessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("session %s: %w", candidate.SessionID, models.ErrNotFound)
		}
		var order int64
		if err := tx.Model(&db.Candidate{}).Where("session_id = ?", candidate.SessionID).Count(&order).Error; err != nil {
			return err
		}
		candidate.DisplayOrder = int(order)
		row := db.Candidate{
			ID:           candidate.ID,
			SessionID:    candidate.SessionID,
			MovieTitle:   candidate.MovieTitle,
			AddedBy:      candidate.AddedBy,
			DisplayOrder: candidate.DisplayOrder,
			CreatedAt:    candidate.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%q: %w", candidate.MovieTitle, models.ErrDuplicateCandidate)
			}
			return err
		}
		return nil
	})
}

func (g *Gorm) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	var row db.Candidate
	err := g.conn.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Candidate{}, fmt.Errorf("candidate %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Candidate{}, err
	}
	return candidateFromRow(row), nil
}

func (g *Gorm) SessionCandidates(ctx context.Context, sessionID string) ([]models.Candidate, error) {
	var rows []db.Candidate
	err := g.conn.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("display_order ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, candidateFromRow(row))
	}
	return candidates, nil
}

func (g *Gorm) SearchCandidates(ctx context.Context, sessionID, fragment string) ([]models.Candidate, error) {
	needle := strings.TrimSpace(fragment)
	if needle == "" {
		return g.SessionCandidates(ctx, sessionID)
	}
	var rows []db.Candidate
	err := g.conn.WithContext(ctx).
		Where("session_id = ? AND movie_title ILIKE ?", sessionID, "%"+needle+"%").
		Order("display_order ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, candidateFromRow(row))
	}
	return candidates, nil
}

func (g *Gorm) ApplyVoteDelta(ctx context.Context, candidateID string, scoreDelta, countDelta int) (models.Candidate, error) {
	var updated models.Candidate
	var clamped bool
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row db.Candidate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", candidateID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("candidate %s: %w", candidateID, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		row.VoteScore += scoreDelta
		row.VoteCount += countDelta
		if row.VoteCount < 0 {
			row.VoteCount = 0
			clamped = true
		}
		if err := tx.Model(&db.Candidate{}).Where("id = ?", candidateID).
			Updates(map[string]any{"vote_score": row.VoteScore, "vote_count": row.VoteCount}).Error; err != nil {
			return err
		}
		updated = candidateFromRow(row)
		return nil
	})
	if err != nil {
		return models.Candidate{}, err
	}
	if clamped {
		return updated, fmt.Errorf("candidate %s count underflow: %w", candidateID, models.ErrInvariantViolation)
	}
	return updated, nil
}

func (g *Gorm) UpdateCandidate(ctx context.Context, id string, mutate func(*models.Candidate) error) (models.Candidate, error) {
	var updated models.Candidate
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row db.Candidate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("candidate %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		candidate := candidateFromRow(row)
		if err := mutate(&candidate); err != nil {
			return err
		}
		candidate.ID = id
		next := candidateToRow(candidate)
		next.CreatedAt = row.CreatedAt
		if err := tx.Model(&db.Candidate{}).Where("id = ?", id).
			Select("*").Omit("id", "created_at").Updates(&next).Error; err != nil {
			return err
		}
		updated = candidate
		return nil
	})
	if err != nil {
		return models.Candidate{}, err
	}
	return updated, nil
}

func (g *Gorm) UpsertVote(ctx context.Context, vote *models.Vote) (*models.Vote, error) {
	var prior *models.Vote
	err := g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND session_id = ? AND candidate_id = ?",
				vote.UserID, vote.SessionID, vote.CandidateID).
			First(&existing).Error
		now := time.Now().UTC()
		switch {
		case err == nil:
			replaced := voteFromRow(existing)
			prior = &replaced
			existing.VoteType = string(vote.Type)
			existing.Weight = vote.Weight
			existing.UpdatedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*vote = voteFromRow(existing)
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if vote.ID == "" {
				vote.ID = uuid.NewString()
			}
			vote.CreatedAt = now
			vote.UpdatedAt = now
			row := db.Vote{
				ID:          vote.ID,
				UserID:      vote.UserID,
				SessionID:   vote.SessionID,
				CandidateID: vote.CandidateID,
				VoteType:    string(vote.Type),
				Weight:      vote.Weight,
				CreatedAt:   vote.CreatedAt,
				UpdatedAt:   vote.UpdatedAt,
			}
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

func (g *Gorm) UserVotes(ctx context.Context, sessionID, userID string) ([]models.Vote, error) {
	var rows []db.Vote
	err := g.conn.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	votes := make([]models.Vote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, voteFromRow(row))
	}
	return votes, nil
}

func (g *Gorm) HistoryList(ctx context.Context, owner string) ([]models.HistoryEntry, error) {
	var rows []db.HistoryEntry
	err := g.conn.WithContext(ctx).
		Where("owner = ?", owner).
		Order("timestamp DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.HistoryEntry{ID: row.ID, Title: row.Title, Timestamp: row.Timestamp})
	}
	return entries, nil
}

func (g *Gorm) HistoryAdd(ctx context.Context, owner string, entry models.HistoryEntry, capacity int) error {
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := db.HistoryEntry{
			ID:        entry.ID,
			Owner:     owner,
			Title:     entry.Title,
			Timestamp: entry.Timestamp,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if capacity <= 0 {
			return nil
		}
		var stale []string
		err := tx.Model(&db.HistoryEntry{}).
			Where("owner = ?", owner).
			Order("timestamp DESC, id DESC").
			Offset(capacity).
			Pluck("id", &stale).Error
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Delete(&db.HistoryEntry{}, "id IN ?", stale).Error
	})
}

func (g *Gorm) HistoryRemove(ctx context.Context, owner, id string) error {
	result := g.conn.WithContext(ctx).Delete(&db.HistoryEntry{}, "owner = ? AND id = ?", owner, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("history entry %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (g *Gorm) HistoryClear(ctx context.Context, owner string) error {
	return g.conn.WithContext(ctx).Delete(&db.HistoryEntry{}, "owner = ?", owner).Error
}

func (g *Gorm) AppendEvent(ctx context.Context, sessionID, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	row := db.Event{
		SessionID: sessionID,
		Type:      kind,
		Payload:   datatypes.JSON(raw),
		CreatedAt: time.Now().UTC(),
	}
	return g.conn.WithContext(ctx).Create(&row).Error
}
