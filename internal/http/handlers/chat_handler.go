// README: Chat handler; binds one user turn to the agent orchestrator.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"andino/internal/agent"
)

// turnTimeout bounds one full turn, including both LLM calls.
const turnTimeout = 30 * time.Second

// ChatService is the orchestration surface. agent.Orchestrator satisfies it.
type ChatService interface {
	Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatReq struct {
	Message        string  `json:"message"`
	ConversationID string  `json:"conversation_id"`
	SessionID      string  `json:"session_id"`
	UserRef        *string `json:"user_ref"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	if req.SessionID == "" {
		writeError(c, http.StatusBadRequest, "missing session_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), turnTimeout)
	defer cancel()

	resp, err := h.chat.Chat(ctx, agent.ChatRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		UserRef:        req.UserRef,
	})
	if err != nil {
		writeChatError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, resp)
}
