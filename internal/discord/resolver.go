package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/staffbot/internal/boards"
)

var (
	ErrInvalidID     = errors.New("invalid snowflake id")
	ErrNoSuchChannel = errors.New("no such channel")
	ErrNoSuchRole    = errors.New("no such role")
)

// NormalizeID returns the canonical decimal form of a snowflake id.
func NormalizeID(raw string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return strconv.FormatUint(n, 10), nil
}

// mentionID extracts the id from a mention such as <#123> or <@&456>, or
// from a bare id. ok is false when token is neither.
func mentionID(token, open string) (string, bool) {
	if strings.HasPrefix(token, open) && strings.HasSuffix(token, ">") {
		token = token[len(open) : len(token)-1]
	}
	id, err := NormalizeID(token)
	if err != nil {
		return "", false
	}
	return id, true
}

// Resolver maps command arguments onto guild channels and roles over REST.
type Resolver struct {
	session *discordgo.Session
}

func NewResolver(session *discordgo.Session) *Resolver {
	return &Resolver{session: session}
}

func (r *Resolver) ResolveChannel(ctx context.Context, guildID, token string) (boards.Channel, error) {
	if id, ok := mentionID(token, "<#"); ok {
		ch, err := r.session.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			return boards.Channel{}, fmt.Errorf("%w %s: %v", ErrNoSuchChannel, id, err)
		}
		return toChannel(ch), nil
	}

	channels, err := r.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return boards.Channel{}, fmt.Errorf("failed to list channels of guild %s: %w", guildID, err)
	}
	if ch := channelByName(channels, token); ch != nil {
		return toChannel(ch), nil
	}
	return boards.Channel{}, fmt.Errorf("%w: %s", ErrNoSuchChannel, token)
}

func (r *Resolver) ResolveRole(ctx context.Context, guildID, token string) (boards.Role, error) {
	roles, err := r.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return boards.Role{}, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}
	if role := roleByToken(roles, token); role != nil {
		return boards.Role{ID: role.ID, Name: role.Name}, nil
	}
	return boards.Role{}, fmt.Errorf("%w: %s", ErrNoSuchRole, token)
}

// IsAdministrator reports whether userID holds the administrator permission
// in channelID.
func (r *Resolver) IsAdministrator(ctx context.Context, _, channelID, userID string) (bool, error) {
	perms, err := r.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

func toChannel(ch *discordgo.Channel) boards.Channel {
	return boards.Channel{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Text:    ch.Type == discordgo.ChannelTypeGuildText,
	}
}

func channelByName(channels []*discordgo.Channel, token string) *discordgo.Channel {
	name := strings.TrimPrefix(token, "#")
	for _, ch := range channels {
		if strings.EqualFold(ch.Name, name) {
			return ch
		}
	}
	return nil
}

func roleByToken(roles []*discordgo.Role, token string) *discordgo.Role {
	if id, ok := mentionID(token, "<@&"); ok {
		for _, role := range roles {
			if role.ID == id {
				return role
			}
		}
		return nil
	}
	name := strings.TrimPrefix(token, "@")
	for _, role := range roles {
		if strings.EqualFold(role.Name, name) {
			return role
		}
	}
	return nil
}
