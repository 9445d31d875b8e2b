// README: API gateway; registers HTTP routes and delegates to the agent.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andino/internal/http/handlers"
	"andino/internal/http/middleware"
)

type ServerDeps struct {
	Chat   handlers.ChatService
	Logger *zap.Logger
}

type Server struct {
	chat   handlers.ChatService
	logger *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{chat: deps.Chat, logger: deps.Logger}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(s.logger), middleware.Recovery(s.logger))

	chatHandler := handlers.NewChatHandler(s.chat)
	r.POST("/api/chat", chatHandler.Chat)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
