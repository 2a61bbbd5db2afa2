package session

import (
	"context"
	"errors"
	"time"

	"movie-roulette/internal/models"

	"go.uber.org/zap"
)

// scheduleResolveTimer arms the voting-deadline timer for the session,
// replacing any earlier one.
func (s *Service) scheduleResolveTimer(session models.Session) {
	if session.VotingEndsAt == nil {
		s.cancelResolveTimer(session.ID)
		return
	}
	delay := time.Until(*session.VotingEndsAt)
	if delay < 0 {
		delay = 0
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[session.ID]; ok {
		existing.Stop()
	}
	s.timers[session.ID] = time.AfterFunc(delay, func() {
		s.autoResolve(session.ID)
	})
	s.timersMu.Unlock()
}

func (s *Service) cancelResolveTimer(sessionID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[sessionID]; ok {
		timer.Stop()
		delete(s.timers, sessionID)
	}
}

// autoResolve fires when a voting window elapses. It re-reads the session
// before acting: a host may have resolved or ended it already, or extended
// the window, in which case the timer re-arms instead.
func (s *Service) autoResolve(sessionID string) {
	ctx := context.Background()
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		s.log.Warn("auto-resolve lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if session.Status != models.StatusVoting || session.VotingEndsAt == nil {
		s.cancelResolveTimer(sessionID)
		return
	}
	if time.Now().UTC().Before(*session.VotingEndsAt) {
		s.scheduleResolveTimer(session)
		return
	}
	if _, err := s.Resolve(ctx, sessionID, ""); err != nil {
		if errors.Is(err, models.ErrNoCandidates) {
			// Nothing to draw from. The session stays in voting and the host
			// must resolve or cancel it once movies are nominated.
			s.log.Warn("voting window elapsed with no candidates",
				zap.String("session_id", sessionID))
			return
		}
		s.log.Error("auto-resolve failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// RestoreTimers re-arms voting deadlines after a restart for every session
// still in the voting phase.
func (s *Service) RestoreTimers(ctx context.Context) error {
	sessions, err := s.store.VotingSessions(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		s.scheduleResolveTimer(session)
	}
	if len(sessions) > 0 {
		s.log.Info("voting timers restored", zap.Int("count", len(sessions)))
	}
	return nil
}

// Close stops all outstanding timers.
func (s *Service) Close() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
