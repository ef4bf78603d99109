package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-widget/internal/httpapi/middleware"
	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

const ChatPath = "/webhook/chat"

// NewRouter builds the development webhook backend. A nil signer accepts
// unsigned requests.
func NewRouter(responder handlers.Responder, signer *webhook.Signer, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "route not found", "data": nil})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": 40500, "message": "method not allowed", "data": nil})
	})

	h := handlers.NewHandler(responder, logger)

	r.GET("/ping", h.Ping)

	hook := r.Group("/")
	hook.Use(middleware.AuthRequired(signer))
	hook.POST(ChatPath, h.ChatTurn)
	return r
}
