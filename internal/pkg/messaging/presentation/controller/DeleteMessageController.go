package controller

import (
	"context"
	"net/http"
	"time"

	"casechat/internal/infrastructure/auth"
	"casechat/internal/pkg/messaging/application/usecase"
	"casechat/internal/pkg/messaging/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeleteMessageController handles message deletion, scoped to the sender's
// own rows (one controller per endpoint).
type DeleteMessageController struct {
	UC *usecase.DeleteMessageUseCase
}

func NewDeleteMessageController(pool *pgxpool.Pool) *DeleteMessageController {
	repo := adapter.NewPgMessagingRepository(pool)
	return &DeleteMessageController{UC: usecase.NewDeleteMessageUseCase(repo)}
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		messageID := c.Param("messageId")
		if messageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.DeleteMessageInput{MessageID: messageID, UserID: userID}); err != nil {
			respondError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
