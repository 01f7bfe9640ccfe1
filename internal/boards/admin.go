package boards

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const invalidChannelsReply = "Both channels must be text channels within guilds in which the bot is present"

// Channel is a platform channel as resolved by the command front end.
type Channel struct {
	ID      string
	GuildID string
	Text    bool // guild text channel
}

// Mention renders the channel the way the chat platform links it.
func (c Channel) Mention() string { return "<#" + c.ID + ">" }

// Role is a platform role as resolved by the command front end.
type Role struct {
	ID   string
	Name string
}

// Result is the user-facing outcome of a board administration call.
type Result struct {
	OK    bool
	Reply string
	Err   error // cause when OK is false
}

// Admin creates and destroys request boards.
type Admin struct {
	store Store
}

func NewAdmin(store Store) *Admin {
	return &Admin{store: store}
}

// SetupBoard creates or replaces the board for requests. Store failures are
// reported in the Result, never returned.
func (a *Admin) SetupBoard(ctx context.Context, requests, archive Channel, managerRole Role) Result {
	if !isGuildText(requests) || !isGuildText(archive) {
		return Result{Reply: invalidChannelsReply, Err: ErrInvalidChannel}
	}

	pair := ChannelPair{
		RequestsChannelID: requests.ID,
		ArchiveChannelID:  archive.ID,
		ManagerRoleID:     managerRole.ID,
	}

	if err := a.store.Upsert(ctx, pair); err != nil {
		log.Error().Err(err).
			Str("requests_channel", requests.ID).
			Str("archive_channel", archive.ID).
			Msg("Failed to write request board")
		return Result{
			Reply: fmt.Sprintf("Failed to create a request board in %s with %s as the archive channel.", requests.Mention(), archive.Mention()),
			Err:   err,
		}
	}

	log.Info().
		Str("requests_channel", requests.ID).
		Str("archive_channel", archive.ID).
		Str("manager_role", managerRole.ID).
		Msg("Request board created")
	return Result{
		OK:    true,
		Reply: fmt.Sprintf("Successfully created a request board in %s with %s as the archive channel.", requests.Mention(), archive.Mention()),
	}
}

// RemoveBoard deletes the board for requests; removing a missing board succeeds.
func (a *Admin) RemoveBoard(ctx context.Context, requests Channel) Result {
	if err := a.store.Delete(ctx, requests.ID); err != nil {
		log.Error().Err(err).Str("requests_channel", requests.ID).Msg("Failed to delete request board")
		return Result{
			Reply: fmt.Sprintf("Failed to destroy request board associated with %s.", requests.Mention()),
			Err:   err,
		}
	}

	log.Info().Str("requests_channel", requests.ID).Msg("Request board destroyed")
	return Result{
		OK:    true,
		Reply: fmt.Sprintf("Destroyed the request board associated with %s.", requests.Mention()),
	}
}

func isGuildText(c Channel) bool {
	return c.Text && c.GuildID != ""
}
