package messaging

// Profile carries the public display fields of a user joined into a
// directory entry.
type Profile struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	AvatarURL string `db:"avatar_url"`
}

// ListingSummary carries the display fields of the marketplace listing a
// conversation is anchored to. Listing CRUD itself lives outside this
// service; only what the directory renders is modeled here.
type ListingSummary struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	PhotoURL    string `db:"photo_url"`
	AskingPrice int64  `db:"asking_price"` // cents
}

// DirectoryEntry is the client-derived, denormalized view of a conversation
// for list display: the conversation joined with the counterpart's profile,
// the originating listing (if any), the most recent message, and the count
// of unread messages sent by the counterpart. It is never persisted; it is
// recomputed on every directory load and patched incrementally on local
// send/receive events.
type DirectoryEntry struct {
	Conversation Conversation
	Counterpart  Profile
	Listing      *ListingSummary
	LastMessage  *Message
	UnreadCount  int
}
