package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHistoryList(c *gin.Context) {
	entries, err := s.history.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleHistoryExport(c *gin.Context) {
	data, err := s.history.ExportJSON(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="movie-history.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	if err := s.history.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHistoryRemove(c *gin.Context) {
	if err := s.history.Remove(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
