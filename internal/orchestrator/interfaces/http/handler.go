package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omnisales/omnisales/internal/orchestrator"
	sessionapp "github.com/omnisales/omnisales/internal/session/application"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// ChatHandler 渠道无关的对话入口
type ChatHandler struct {
	router   *orchestrator.Router
	sessions *sessionapp.SessionService
}

func NewChatHandler(router *orchestrator.Router, sessions *sessionapp.SessionService) *ChatHandler {
	return &ChatHandler{router: router, sessions: sessions}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/v1/chat", h.Chat)
	router.GET("/health", h.Health)
}

// ChatRequest 入站消息信封
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Channel   string `json:"channel"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	ctx := c.Request.Context()

	if req.UserID != "" {
		if err := h.sessions.BindUser(ctx, req.SessionID, req.UserID); err != nil {
			logging.Warn(ctx, "failed to bind session user", "session_id", req.SessionID, "error", err)
		}
	}
	if err := h.sessions.RecordTurn(ctx, req.SessionID, "user", req.Message); err != nil {
		logging.Warn(ctx, "failed to record user turn", "session_id", req.SessionID, "error", err)
	}

	reply, err := h.router.Route(ctx, req.UserID, req.SessionID, req.Message)
	if err != nil {
		logging.Error(ctx, "routing failed", "session_id", req.SessionID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	if err := h.sessions.RecordTurn(ctx, req.SessionID, "assistant", reply.Reply); err != nil {
		logging.Warn(ctx, "failed to record assistant turn", "session_id", req.SessionID, "error", err)
	}

	response.Success(c, reply)
}

func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
