package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/ai-widget/internal/httpapi/middleware"
	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

type chatTurnReq struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
}

// ChatTurn answers one widget turn with {"message": "..."}, the shape the
// widget's dispatcher expects.
func (h *Handler) ChatTurn(c *gin.Context) {
	var req chatTurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 40001, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, 40002, "message is empty")
		return
	}
	if sub, found := c.Get(middleware.SessionIDKey); found && sub != req.SessionID {
		fail(c, http.StatusUnauthorized, 40103, "token does not match session")
		return
	}

	reply, err := h.Responder.Respond(c.Request.Context(), webhook.Request{
		SessionID: req.SessionID,
		Message:   req.Message,
		UserID:    req.UserID,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.Logger.Error().Err(err).
			Str("session_id", req.SessionID).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Msg("responder failed")
		fail(c, http.StatusBadGateway, 50201, "responder failed")
		return
	}

	h.Logger.Debug().
		Str("session_id", req.SessionID).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Int("reply_len", len(reply)).
		Msg("chat turn answered")
	c.JSON(http.StatusOK, webhook.Reply{Message: reply})
}
