package requests

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned by a Gateway when the message no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// Marker is an emoji affordance attached to an open request.
type Marker string

const (
	Approve Marker = "✅"
	Reject  Marker = "❌"
)

// Markers lists the markers attached to every new request, in order.
var Markers = []Marker{Approve, Reject}

// MarkerFromEmoji maps a reaction emoji to a marker.
func MarkerFromEmoji(emoji string) (Marker, bool) {
	switch Marker(emoji) {
	case Approve:
		return Approve, true
	case Reject:
		return Reject, true
	}
	return "", false
}

// NewMessage is a message posted in some channel.
type NewMessage struct {
	ChannelID     string
	MessageID     string
	ThreadCreated bool // platform notice that a thread was started
}

// ResolutionReaction is an emoji reaction added to a message.
type ResolutionReaction struct {
	ChannelID    string
	MessageID    string
	Emoji        string
	ActorID      string
	ActorRoleIDs []string
}

// Author identifies who posted a request.
type Author struct {
	ID            string
	Name          string
	Discriminator string
	Avatar        string // avatar hash, empty when the default avatar is used
}

// Message is a request message as fetched from the platform.
type Message struct {
	ID        string
	ChannelID string
	Content   string
	Author    Author
	Timestamp time.Time
	ThreadID  string // empty when the message has no thread
}

// HasThread reports whether a conversation thread hangs off the message.
func (m *Message) HasThread() bool { return m.ThreadID != "" }

// Gateway is the subset of chat platform operations the engine needs.
// Every call may fail; the engine treats all of them as best-effort.
type Gateway interface {
	AttachMarker(ctx context.Context, channelID, messageID string, marker Marker) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	PostRecord(ctx context.Context, channelID string, record ArchiveRecord) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	ArchiveThread(ctx context.Context, threadID string) error
	CurrentUserID(ctx context.Context) (string, error)
}
