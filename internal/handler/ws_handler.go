package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/middleware"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session state over WebSocket.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// tickPayload is the per-second frame pushed to the client.
type tickPayload struct {
	State     model.SessionState `json:"state"`
	Remaining int                `json:"remaining_seconds"`
	Index     int                `json:"index"`
}

// SessionStream godoc
// WS /ws/v1/exams/:sessionID/stream?token=...
// Pushes the session's state and remaining countdown once per second until
// the session reaches Submitted or the client disconnects. The server clock
// is authoritative; clients render what they receive.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID := c.Param("sessionID")
	e, err := h.examService.Engine(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID).
		Str("user_id", claims.UserID.String()).
		Logger()
	wsLog.Info().Msg("Client connected")

	// Reader goroutine: its only job is noticing the client went away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Client disconnected")
			return
		case <-ticker.C:
			payload := tickPayload{
				State:     e.State(),
				Remaining: e.Remaining(),
				Index:     e.Index(),
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(payload); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing")
				return
			}
			if payload.State == model.SessionSubmitted {
				wsLog.Info().Msg("Session submitted, stream complete")
				return
			}
		}
	}
}
