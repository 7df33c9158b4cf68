package http

import (
	cport "casechat/internal/infrastructure/cache/port"
	pubsub "casechat/internal/infrastructure/pubsub/port"
	qport "casechat/internal/infrastructure/queue/port"
	"casechat/internal/infrastructure/realtime"
	"casechat/internal/pkg/messaging/presentation/controller"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes registers messaging endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
// The group is expected to carry the auth middleware already.
func RegisterRoutes(
	g *gin.RouterGroup,
	pool *pgxpool.Pool,
	cache cport.Cache,
	broker pubsub.Broker,
	queueClient qport.Client,
	registry *realtime.Registry,
) {
	directoryCtl := controller.NewDirectoryController(pool, cache)
	getOrCreateCtl := controller.NewGetOrCreateConversationController(pool)
	getMsgsCtl := controller.NewGetMessagesController(pool)
	sendMsgCtl := controller.NewSendMessageController(pool, broker, queueClient)
	deleteMsgCtl := controller.NewDeleteMessageController(pool)
	socketCtl := controller.NewMessagingSocketController(pool, cache, broker, queueClient, registry)

	// GET /api/v1/conversations -> ranked directory for the current user
	g.GET("/conversations", directoryCtl.Handle())

	// POST /api/v1/conversations -> get-or-create by counterpart (+ listing)
	g.POST("/conversations", getOrCreateCtl.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> history
	g.GET("/conversations/:conversationId/messages", getMsgsCtl.Handle())

	// POST /api/v1/conversations/:conversationId/messages -> send a message
	g.POST("/conversations/:conversationId/messages", sendMsgCtl.Handle())

	// DELETE /api/v1/messages/:messageId -> delete own message
	g.DELETE("/messages/:messageId", deleteMsgCtl.Handle())

	// GET /api/v1/ws -> websocket endpoint for live sessions
	g.GET("/ws", socketCtl.Handle())
}
