package api

import (
	"net/http"

	"movie-roulette/internal/models"
	"movie-roulette/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	Title                 string `json:"title"`
	VotingDurationMinutes int    `json:"voting_duration_minutes"`
	AllowSuggestions      *bool  `json:"allow_movie_suggestions"`
	SkipVoteThreshold     int    `json:"skip_vote_threshold"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	allow := true
	if req.AllowSuggestions != nil {
		allow = *req.AllowSuggestions
	}
	created, err := s.sessions.CreateSession(c.Request.Context(), userID(c), session.CreateParams{
		Title:                 req.Title,
		VotingDurationMinutes: req.VotingDurationMinutes,
		AllowSuggestions:      allow,
		SkipVoteThreshold:     req.SkipVoteThreshold,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleActiveSessions(c *gin.Context) {
	sessions, err := s.sessions.ActiveSessions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleGetSession(c *gin.Context) {
	found, err := s.sessions.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) handleStartVoting(c *gin.Context) {
	var req struct {
		DurationMinutes int `json:"duration_minutes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	updated, err := s.sessions.StartVoting(c.Request.Context(), c.Param("id"), userID(c), req.DurationMinutes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// handleResolve closes the voting window on the host's request. The state
// machine commits the single weighted draw first; the roulette spin is
// presentation only, so the committed winner is then replayed through the
// overlay bridge with the usual spinning delay. Overlay and history always
// carry the same title the session stored, and a request abandoned mid-delay
// leaves the committed session intact.
func (s *Server) handleResolve(c *gin.Context) {
	ctx := c.Request.Context()
	host := userID(c)
	if host == "" {
		writeError(c, models.ErrNotAuthenticated)
		return
	}
	updated, err := s.sessions.Resolve(ctx, c.Param("id"), host)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := s.spinner.Reveal(ctx, updated.SelectedMovieTitle); err != nil {
		s.log.Warn("winner reveal abandoned",
			zap.String("session_id", updated.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleEnd(c *gin.Context) {
	updated, err := s.sessions.End(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleAddCandidate(c *gin.Context) {
	var req struct {
		MovieTitle string `json:"movie_title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	candidate, err := s.sessions.AddCandidate(c.Request.Context(), c.Param("id"), userID(c), req.MovieTitle)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

func (s *Server) handleCandidates(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	var (
		candidates []models.Candidate
		err        error
	)
	if q := c.Query("q"); q != "" {
		candidates, err = s.sessions.SearchCandidates(ctx, sessionID, q)
	} else {
		candidates, err = s.sessions.Candidates(ctx, sessionID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	ranked, err := s.sessions.Leaderboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}

func (s *Server) handleCastVote(c *gin.Context) {
	var req struct {
		CandidateID string `json:"candidate_id"`
		VoteType    string `json:"vote_type"`
		Weight      int    `json:"weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	vote, err := s.sessions.CastVote(
		c.Request.Context(),
		c.Param("id"),
		userID(c),
		req.CandidateID,
		models.VoteType(req.VoteType),
		req.Weight,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (s *Server) handleUserVotes(c *gin.Context) {
	votes, err := s.sessions.UserVotes(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}
