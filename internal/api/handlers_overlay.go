package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleOverlayState performs one atomic read of the shared channel. This is
// the polling endpoint for overlay surfaces that cannot hold a connection.
func (s *Server) handleOverlayState(c *gin.Context) {
	outcome, err := s.bridge.Read(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleOverlayClear(c *gin.Context) {
	if err := s.bridge.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleOverlayStream exposes the bridge's polling observer as a server-sent
// event stream for surfaces that can keep a request open. Only changed
// outcomes are emitted.
func (s *Server) handleOverlayStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for outcome := range s.bridge.Observe(ctx, s.pollInterval) {
		data, err := json.Marshal(outcome)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
