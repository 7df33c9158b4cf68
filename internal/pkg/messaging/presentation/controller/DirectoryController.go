package controller

import (
	"context"
	"net/http"
	"time"

	"casechat/internal/infrastructure/auth"
	cport "casechat/internal/infrastructure/cache/port"
	"casechat/internal/pkg/messaging/application/usecase"
	"casechat/internal/pkg/messaging/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryController serves the ranked conversation list (one controller
// per endpoint).
type DirectoryController struct {
	UC *usecase.ListDirectoryUseCase
}

func NewDirectoryController(pool *pgxpool.Pool, cache cport.Cache) *DirectoryController {
	repo := adapter.NewPgMessagingRepository(pool)
	return &DirectoryController{UC: usecase.NewListDirectoryUseCase(repo, cache)}
}

func (h *DirectoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		entries, err := h.UC.Execute(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"conversations": toDirectoryEntryPayloads(entries),
			"count":         len(entries),
		})
	}
}
