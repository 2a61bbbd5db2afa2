// Package api exposes the voting and roulette subsystem over HTTP. Identity
// is consumed, not produced: the authenticated user id arrives in the
// X-User-ID header set by the auth layer in front of this service.
package api

import (
	"errors"
	"net/http"
	"time"

	"movie-roulette/internal/changefeed"
	"movie-roulette/internal/models"
	"movie-roulette/internal/overlay"
	"movie-roulette/internal/roulette"
	"movie-roulette/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	sessions     *session.Service
	list         *roulette.List
	spinner      *roulette.Spinner
	bridge       *overlay.Bridge
	history      *overlay.History
	feed         *changefeed.Feed
	hub          *wsHub
	pollInterval time.Duration
	log          *zap.Logger
}

func New(
	sessions *session.Service,
	list *roulette.List,
	spinner *roulette.Spinner,
	bridge *overlay.Bridge,
	history *overlay.History,
	feed *changefeed.Feed,
	pollInterval time.Duration,
	log *zap.Logger,
) *Server {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	s := &Server{
		sessions:     sessions,
		list:         list,
		spinner:      spinner,
		bridge:       bridge,
		history:      history,
		feed:         feed,
		hub:          newWSHub(),
		pollInterval: pollInterval,
		log:          log,
	}
	go s.hub.run(feed.Subscribe("", ""))
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions", s.handleActiveSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.POST("/sessions/:id/start-voting", s.handleStartVoting)
		api.POST("/sessions/:id/resolve", s.handleResolve)
		api.POST("/sessions/:id/end", s.handleEnd)
		api.POST("/sessions/:id/candidates", s.handleAddCandidate)
		api.GET("/sessions/:id/candidates", s.handleCandidates)
		api.GET("/sessions/:id/leaderboard", s.handleLeaderboard)
		api.POST("/sessions/:id/votes", s.handleCastVote)
		api.GET("/sessions/:id/votes", s.handleUserVotes)

		api.GET("/roulette/movies", s.handleListMovies)
		api.POST("/roulette/movies", s.handleAddMovie)
		api.DELETE("/roulette/movies", s.handleRemoveMovie)
		api.POST("/roulette/spin", s.handleSpin)
		api.GET("/roulette/export", s.handleExportMovies)
		api.POST("/roulette/import", s.handleImportMovies)

		api.GET("/overlay/state", s.handleOverlayState)
		api.GET("/overlay/stream", s.handleOverlayStream)
		api.DELETE("/overlay/state", s.handleOverlayClear)

		api.GET("/history", s.handleHistoryList)
		api.GET("/history/export", s.handleHistoryExport)
		api.DELETE("/history", s.handleHistoryClear)
		api.DELETE("/history/:id", s.handleHistoryRemove)
	}
	router.GET("/ws/sessions/:id", s.handleSessionWS)
	return router
}

// userID extracts the caller identity placed by the auth layer. Empty means
// unauthenticated.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotHost), errors.Is(err, models.ErrSuggestionsClosed):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateCandidate), errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrNoCandidates):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidTarget), errors.Is(err, models.ErrImport):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
