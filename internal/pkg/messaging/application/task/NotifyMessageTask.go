package task

import (
	"context"
	"encoding/json"
	"log"

	qport "casechat/internal/infrastructure/queue/port"
	"casechat/internal/infrastructure/realtime"
	"casechat/internal/pkg/messaging/application/usecase"
)

// notifyFrame is the out-of-conversation nudge delivered to a recipient's
// live session so their directory can refresh without polling.
type notifyFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Preview        string `json:"preview"`
}

// RegisterNotifyMessageTask binds the counterpart-notification handler.
//
// When the recipient has a live websocket session, the task delivers a
// directory nudge over it. Recipients without a session are skipped; mobile
// push delivery is owned by the app's push pipeline, not this service.
func RegisterNotifyMessageTask(srv qport.Server, registry *realtime.Registry) {
	srv.Register(usecase.NotifyMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p usecase.NotifyMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return err
		}

		if !registry.IsOnline(p.RecipientID) {
			return nil
		}

		frame := notifyFrame{
			Type:           "notify",
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			Preview:        p.Preview,
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if !registry.NotifyUser(p.RecipientID, payload) {
			log.Printf("notify task: session for %s went away before delivery", p.RecipientID)
		}
		return nil
	})
}
