package v1

import (
	"casechat/internal/infrastructure/auth"
	cport "casechat/internal/infrastructure/cache/port"
	pubsub "casechat/internal/infrastructure/pubsub/port"
	qport "casechat/internal/infrastructure/queue/port"
	"casechat/internal/infrastructure/realtime"
	httpHandler "casechat/internal/pkg/messaging/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(
	r *gin.Engine,
	pool *pgxpool.Pool,
	cache cport.Cache,
	broker pubsub.Broker,
	queueClient qport.Client,
	registry *realtime.Registry,
	authn *auth.Authenticator,
) {
	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireUser(authn))
	httpHandler.RegisterRoutes(v1, pool, cache, broker, queueClient, registry)
}
