package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

// Responder produces the assistant reply for one inbound widget turn.
type Responder interface {
	Respond(ctx context.Context, req webhook.Request) (string, error)
}

// EchoResponder answers every turn by quoting it back. It is the default
// backend for local development.
type EchoResponder struct{}

func (EchoResponder) Respond(_ context.Context, req webhook.Request) (string, error) {
	return fmt.Sprintf("Hai scritto: %q", strings.TrimSpace(req.Message)), nil
}

type Handler struct {
	Responder Responder
	Logger    zerolog.Logger
}

func NewHandler(r Responder, logger zerolog.Logger) *Handler {
	if r == nil {
		r = EchoResponder{}
	}
	return &Handler{Responder: r, Logger: logger}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}

func (h *Handler) Ping(c *gin.Context) {
	ok(c, gin.H{"pong": true})
}
