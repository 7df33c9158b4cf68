package controller

import (
	"context"
	"net/http"
	"time"

	"casechat/internal/infrastructure/auth"
	pubsub "casechat/internal/infrastructure/pubsub/port"
	queueport "casechat/internal/infrastructure/queue/port"
	"casechat/internal/pkg/messaging/application/usecase"
	"casechat/internal/pkg/messaging/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SendMessageController handles the send-message endpoint only (one
// controller per endpoint).
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
}

func NewSendMessageController(pool *pgxpool.Pool, broker pubsub.Broker, q queueport.Client) *SendMessageController {
	repo := adapter.NewPgMessagingRepository(pool)
	return &SendMessageController{UC: usecase.NewSendMessageUseCase(repo, broker, q)}
}

type sendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: conversationID,
			SenderID:       userID,
			Body:           req.Body,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": toMessagePayload(*msg)})
	}
}
