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

// GetOrCreateConversationController resolves the conversation for the
// current user and a counterpart, used by the marketplace "contact seller"
// flow to bridge listing context into a conversation.
type GetOrCreateConversationController struct {
	UC *usecase.GetOrCreateConversationUseCase
}

func NewGetOrCreateConversationController(pool *pgxpool.Pool) *GetOrCreateConversationController {
	repo := adapter.NewPgMessagingRepository(pool)
	return &GetOrCreateConversationController{UC: usecase.NewGetOrCreateConversationUseCase(repo)}
}

type getOrCreateRequest struct {
	OtherUserID string  `json:"other_user_id" binding:"required"`
	ListingID   *string `json:"listing_id"`
}

func (h *GetOrCreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		var req getOrCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.GetOrCreateConversationInput{
			CurrentUserID: userID,
			OtherUserID:   req.OtherUserID,
			ListingID:     req.ListingID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"conversation": toConversationPayload(*conv)})
	}
}
