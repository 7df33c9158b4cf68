package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"casechat/internal/infrastructure/auth"
	cport "casechat/internal/infrastructure/cache/port"
	pubsub "casechat/internal/infrastructure/pubsub/port"
	queueport "casechat/internal/infrastructure/queue/port"
	"casechat/internal/infrastructure/realtime"
	msgsync "casechat/internal/pkg/messaging/application/sync"
	"casechat/internal/pkg/messaging/application/usecase"
	messaging "casechat/internal/pkg/messaging/domain"
	repoAdapter "casechat/internal/pkg/messaging/persistence/repository/adapter"
	repoPort "casechat/internal/pkg/messaging/persistence/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessagingSocketController owns the websocket endpoint. Each accepted
// socket gets its own Directory and Synchronizer, so one client session
// holds at most one live conversation subscription and a conversation
// switch tears the previous channel down before the next one opens.
type MessagingSocketController struct {
	repo            repoPort.MessagingRepository
	broker          pubsub.Broker
	registry        *realtime.Registry
	listUC          *usecase.ListDirectoryUseCase
	sendUC          *usecase.SendMessageUseCase
	deleteUC        *usecase.DeleteMessageUseCase
	inflightTimeout time.Duration
}

func NewMessagingSocketController(
	pool *pgxpool.Pool,
	cache cport.Cache,
	broker pubsub.Broker,
	q queueport.Client,
	registry *realtime.Registry,
) *MessagingSocketController {
	repo := repoAdapter.NewPgMessagingRepository(pool)
	return &MessagingSocketController{
		repo:            repo,
		broker:          broker,
		registry:        registry,
		listUC:          usecase.NewListDirectoryUseCase(repo, cache),
		sendUC:          usecase.NewSendMessageUseCase(repo, broker, q),
		deleteUC:        usecase.NewDeleteMessageUseCase(repo),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The bearer token is the gate; origin is not checked.
		return true
	},
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	Body           string `json:"body,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
}

type historyFrame struct {
	Type           string           `json:"type"`
	ConversationID string           `json:"conversation_id"`
	Messages       []messagePayload `json:"messages"`
}

type messageFrame struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

type directoryFrame struct {
	Type          string                  `json:"type"`
	Conversations []directoryEntryPayload `json:"conversations"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades the connection and processes frames until the client
// disconnects.
func (ctl *MessagingSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing else to do.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.registry.Attach(conn)

		directory := msgsync.NewDirectory(userID, ctl.listUC)
		syncr := msgsync.NewSynchronizer(userID, ctl.repo, ctl.broker, ctl.sendUC, ctl.deleteUC, directory)
		syncr.OnMessage(func(msg messaging.Message) {
			ctl.reply(conn, messageFrame{Type: "message", Message: toMessagePayload(msg)})
		})

		defer func() {
			syncr.Close()
			ctl.registry.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 16) // text frames only; 64KB is plenty
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.reply(conn, ackFrame{Type: "connected"})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "directory":
				ctl.handleDirectory(c, conn, directory)
			case "open":
				ctl.handleOpen(c, conn, syncr, frame)
			case "send":
				ctl.handleSend(c, conn, syncr, frame)
			case "delete":
				ctl.handleDelete(c, conn, syncr, frame)
			case "close":
				syncr.Close()
				ctl.reply(conn, ackFrame{Type: "closed"})
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *MessagingSocketController) handleDirectory(c *gin.Context, conn *realtime.Connection, directory *msgsync.Directory) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	entries, err := directory.Load(ctx)
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.reply(conn, directoryFrame{Type: "directory", Conversations: toDirectoryEntryPayloads(entries)})
}

func (ctl *MessagingSocketController) handleOpen(c *gin.Context, conn *realtime.Connection, syncr *msgsync.Synchronizer, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	msgs, err := syncr.Open(ctx, frame.ConversationID)
	if err != nil {
		if errors.Is(err, msgsync.ErrSuperseded) {
			// A newer open won; the client already has its result.
			return
		}
		ctl.handleUseCaseError(conn, err)
		return
	}

	ctl.reply(conn, historyFrame{
		Type:           "history",
		ConversationID: frame.ConversationID,
		Messages:       toMessagePayloads(msgs),
	})
}

func (ctl *MessagingSocketController) handleSend(c *gin.Context, conn *realtime.Connection, syncr *msgsync.Synchronizer, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	// The appended message itself is delivered through OnMessage; the ack
	// only confirms persistence.
	msg, err := syncr.Send(ctx, frame.ConversationID, frame.Body)
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.reply(conn, ackFrame{Type: "sent", ConversationID: msg.ConversationID, MessageID: msg.ID})
}

func (ctl *MessagingSocketController) handleDelete(c *gin.Context, conn *realtime.Connection, syncr *msgsync.Synchronizer, frame inboundFrame) {
	if frame.MessageID == "" {
		ctl.replyError(conn, "bad_request", "message_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	if err := syncr.DeleteMessage(ctx, frame.MessageID); err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.reply(conn, ackFrame{Type: "deleted", MessageID: frame.MessageID})
}

func (ctl *MessagingSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	case errors.Is(err, messaging.ErrNotParticipant):
		ctl.replyError(conn, "forbidden", "user is not a participant in this conversation")
	case errors.Is(err, messaging.ErrNotOwner):
		ctl.replyError(conn, "forbidden", "message does not belong to the user")
	case errors.Is(err, messaging.ErrConversationNotFound):
		ctl.replyError(conn, "not_found", "conversation not found")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *MessagingSocketController) reply(conn *realtime.Connection, frame any) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *MessagingSocketController) replyError(conn *realtime.Connection, code string, message string) {
	ctl.reply(conn, errorFrame{Type: "error", Code: code, Error: message})
}
