package requests

import (
	"fmt"
	"strconv"
	"time"
)

const (
	ApprovedColor  = 0x9BDB4D
	DiscardedColor = 0xED5353

	approvedTitle  = "Request Complete"
	discardedTitle = "Request Discarded"

	cdnBase = "https://cdn.discordapp.com/"
	// The CDN serves 1024px avatars by default, which blur at embed size.
	avatarSize = 24
)

// ArchiveField is one name/value pair of an archive record.
type ArchiveField struct {
	Name   string
	Value  string
	Inline bool
}

// ArchiveRecord is the structured summary posted to a board's archive channel.
type ArchiveRecord struct {
	Title         string
	Color         int
	Description   string
	AuthorName    string
	AuthorIconURL string
	Fields        []ArchiveField
	Timestamp     time.Time
}

// Compose builds the archive record for a request closed with marker by
// closedBy. The body is the request content verbatim and the timestamp is
// when the request was filed, not when it was closed.
func Compose(msg *Message, marker Marker, closedBy string) ArchiveRecord {
	title, color := approvedTitle, ApprovedColor
	if marker != Approve {
		title, color = discardedTitle, DiscardedColor
	}

	thread := "None"
	if msg.HasThread() {
		thread = ChannelMention(msg.ThreadID)
	}

	return ArchiveRecord{
		Title:         title,
		Color:         color,
		Description:   msg.Content,
		AuthorName:    authorTag(msg.Author),
		AuthorIconURL: AvatarURL(msg.Author),
		Fields: []ArchiveField{
			{Name: "Closed By", Value: closedBy, Inline: true},
			{Name: "Thread", Value: thread, Inline: true},
		},
		Timestamp: msg.Timestamp,
	}
}

// AvatarURL returns a small avatar for a, or the platform default avatar
// when a has none set.
func AvatarURL(a Author) string {
	if a.Avatar == "" {
		return fmt.Sprintf("%sembed/avatars/%d.png", cdnBase, defaultAvatarIndex(a))
	}
	return fmt.Sprintf("%savatars/%s/%s.png?size=%d", cdnBase, a.ID, a.Avatar, avatarSize)
}

// UserMention renders a user reference.
func UserMention(id string) string { return "<@" + id + ">" }

// ChannelMention renders a channel or thread reference.
func ChannelMention(id string) string { return "<#" + id + ">" }

func authorTag(a Author) string {
	disc := a.Discriminator
	if n, err := strconv.Atoi(disc); err == nil {
		disc = fmt.Sprintf("%04d", n)
	}
	return a.Name + "#" + disc
}

// Accounts migrated off discriminators report "0" and derive the default
// avatar from the id instead.
func defaultAvatarIndex(a Author) int {
	if a.Discriminator == "0" || a.Discriminator == "" {
		id, _ := strconv.ParseUint(a.ID, 10, 64)
		return int((id >> 22) % 6)
	}
	n, _ := strconv.Atoi(a.Discriminator)
	return n % 5
}
