package adapter

import (
	"context"
	"errors"
	"time"

	messaging "casechat/internal/pkg/messaging/domain"
	port "casechat/internal/pkg/messaging/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgMessagingRepository struct {
	pool *pgxpool.Pool
}

var _ port.MessagingRepository = (*PgMessagingRepository)(nil)

func NewPgMessagingRepository(pool *pgxpool.Pool) *PgMessagingRepository {
	return &PgMessagingRepository{pool: pool}
}

const conversationColumns = `id::text, user_low_id::text, user_high_id::text, listing_id::text, created_at, last_activity_at`

func (r *PgMessagingRepository) ConversationByPair(ctx context.Context, userLowID, userHighID string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM messaging.conversation
		WHERE user_low_id = $1::uuid AND user_high_id = $2::uuid
	`, userLowID, userHighID)
	return scanConversation(row)
}

func (r *PgMessagingRepository) ConversationByID(ctx context.Context, conversationID string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM messaging.conversation
		WHERE id = $1::uuid
	`, conversationID)
	return scanConversation(row)
}

func (r *PgMessagingRepository) CreateConversation(ctx context.Context, c messaging.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messaging.conversation (user_low_id, user_high_id, listing_id, created_at, last_activity_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5)
		RETURNING id::text
	`, c.UserLowID, c.UserHighID, c.ListingID, c.CreatedAt, c.LastActivityAt).Scan(&id)
	return id, err
}

func (r *PgMessagingRepository) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessagingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messaging.conversation
		SET last_activity_at = $2
		WHERE id = $1::uuid
	`, conversationID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func (r *PgMessagingRepository) ConversationsByUser(ctx context.Context, userID string) ([]messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM messaging.conversation
		WHERE user_low_id = $1::uuid OR user_high_id = $1::uuid
		ORDER BY last_activity_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []messaging.Conversation
	for rows.Next() {
		var c messaging.Conversation
		if err := rows.Scan(&c.ID, &c.UserLowID, &c.UserHighID, &c.ListingID, &c.CreatedAt, &c.LastActivityAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return convs, nil
}

const messageColumns = `id::text, conversation_id::text, sender_id::text, body, read, read_at, created_at`

func (r *PgMessagingRepository) MessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	query, args := messagesByConversationSQL(conversationID, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var m messaging.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Read, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

// messagesByConversationSQL builds the history query. limit <= 0 selects the
// whole conversation: an open must deliver every message, and truncating an
// ascending scan would drop the newest ones.
func messagesByConversationSQL(conversationID string, limit, offset int) (string, []any) {
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + messageColumns + `
		FROM messaging.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC`
	args := []any{conversationID}
	switch {
	case limit > 0:
		query += `
		LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	case offset > 0:
		query += `
		OFFSET $2`
		args = append(args, offset)
	}
	return query, args
}

func (r *PgMessagingRepository) SaveMessage(ctx context.Context, m messaging.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messaging.message (conversation_id, sender_id, body, read, created_at)
		VALUES ($1::uuid, $2::uuid, $3, FALSE, $4)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.Body, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgMessagingRepository) LastMessage(ctx context.Context, conversationID string) (*messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messaging.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT 1
	`, conversationID)

	var m messaging.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Read, &m.ReadAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMessagingRepository) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessagingRepository: nil pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messaging.message
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND read = FALSE
	`, conversationID, userID).Scan(&n)
	return n, err
}

func (r *PgMessagingRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessagingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messaging.message
		SET read = TRUE, read_at = $3
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND read = FALSE
	`, conversationID, readerID, at)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgMessagingRepository) MarkMessageRead(ctx context.Context, messageID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessagingRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE messaging.message
		SET read = TRUE, read_at = $2
		WHERE id = $1::uuid AND read = FALSE
	`, messageID, at)
	return err
}

func (r *PgMessagingRepository) DeleteMessage(ctx context.Context, messageID, senderID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessagingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM messaging.message
		WHERE id = $1::uuid AND sender_id = $2::uuid
	`, messageID, senderID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgMessagingRepository) ProfileByID(ctx context.Context, userID string) (*messaging.Profile, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	var p messaging.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, COALESCE(avatar_url, '')
		FROM public.profiles
		WHERE id = $1::uuid
	`, userID).Scan(&p.ID, &p.Username, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgMessagingRepository) ListingByID(ctx context.Context, listingID string) (*messaging.ListingSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	var l messaging.ListingSummary
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, title, COALESCE(photo_url, ''), COALESCE(asking_price_cents, 0)
		FROM public.listings
		WHERE id = $1::uuid
	`, listingID).Scan(&l.ID, &l.Title, &l.PhotoURL, &l.AskingPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanConversation(row pgx.Row) (*messaging.Conversation, error) {
	var c messaging.Conversation
	err := row.Scan(&c.ID, &c.UserLowID, &c.UserHighID, &c.ListingID, &c.CreatedAt, &c.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
