package sync

import (
	"context"
	"sort"
	gosync "sync"

	"casechat/internal/pkg/messaging/application/usecase"
	messaging "casechat/internal/pkg/messaging/domain"
)

// Directory is one session's in-memory view of the conversation list. It is
// a read-through, write-through cache over the backend: Load recomputes it
// wholesale, while Touch and ClearUnread patch it incrementally so ordering
// and previews stay consistent regardless of which side of a conversation
// triggered the change. Nothing here survives the session; a fresh Load
// repopulates everything.
type Directory struct {
	mu     gosync.Mutex
	userID string
	list   *usecase.ListDirectoryUseCase

	entries []messaging.DirectoryEntry
}

func NewDirectory(userID string, list *usecase.ListDirectoryUseCase) *Directory {
	return &Directory{userID: userID, list: list}
}

// Load refetches the full directory and replaces the cached entries. On
// error the previous entries are kept untouched.
func (d *Directory) Load(ctx context.Context) ([]messaging.DirectoryEntry, error) {
	entries, err := d.list.Execute(ctx, d.userID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.entries = entries
	sortByActivityLocked(d.entries)
	snapshot := copyEntries(d.entries)
	d.mu.Unlock()
	return snapshot, nil
}

// Entries returns a snapshot of the cached directory.
func (d *Directory) Entries() []messaging.DirectoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyEntries(d.entries)
}

// Touch patches the entry for the message's conversation: last-message
// preview fields and the activity timestamp, then re-sorts descending. Both
// local sends and incoming pushes funnel through here, which is what keeps
// the two sides of a conversation agreeing on directory order. A message
// for a conversation not yet in the cache is ignored; the next Load picks
// the new conversation up.
func (d *Directory) Touch(msg messaging.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.entries {
		if d.entries[i].Conversation.ID != msg.ConversationID {
			continue
		}
		m := msg
		d.entries[i].LastMessage = &m
		if msg.CreatedAt.After(d.entries[i].Conversation.LastActivityAt) {
			d.entries[i].Conversation.LastActivityAt = msg.CreatedAt
		}
		if msg.SenderID != d.userID && !msg.Read {
			d.entries[i].UnreadCount++
		}
		sortByActivityLocked(d.entries)
		return
	}
}

// ClearUnread zeroes the unread counter for a conversation, mirroring the
// batched read acknowledgement issued when it is opened.
func (d *Directory) ClearUnread(conversationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.entries {
		if d.entries[i].Conversation.ID == conversationID {
			d.entries[i].UnreadCount = 0
			return
		}
	}
}

func sortByActivityLocked(entries []messaging.DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Conversation.LastActivityAt.After(entries[j].Conversation.LastActivityAt)
	})
}

func copyEntries(entries []messaging.DirectoryEntry) []messaging.DirectoryEntry {
	out := make([]messaging.DirectoryEntry, len(entries))
	copy(out, entries)
	return out
}
