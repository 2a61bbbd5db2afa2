package api

import (
	"net/http"
	"strings"

	"movie-roulette/internal/models"
	"movie-roulette/internal/roulette"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListMovies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"movies": s.list.Titles()})
}

func (s *Server) handleAddMovie(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !s.list.Add(req.Title) {
		c.JSON(http.StatusConflict, gin.H{"error": "title is empty or already listed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movies": s.list.Titles()})
}

func (s *Server) handleRemoveMovie(c *gin.Context) {
	title := c.Query("title")
	if !s.list.Remove(title) {
		writeError(c, models.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": s.list.Titles()})
}

// handleSpin runs a uniform draw over the ad-hoc list. The request blocks for
// the presentation delay; a client disconnect abandons the draw without
// recording anything.
func (s *Server) handleSpin(c *gin.Context) {
	outcome, err := s.spinner.Spin(c.Request.Context(), roulette.Uniform{}, s.list.Candidates())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleExportMovies(c *gin.Context) {
	var b strings.Builder
	if err := s.list.Export(&b); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="movies.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}

func (s *Server) handleImportMovies(c *gin.Context) {
	added, err := s.list.Import(c.Request.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "movies": s.list.Titles()})
}
