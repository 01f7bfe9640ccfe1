package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/staffbot/internal/requests"
)

// Gateway performs request board side effects over the Discord REST API.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

func (g *Gateway) AttachMarker(ctx context.Context, channelID, messageID string, marker requests.Marker) error {
	return g.session.MessageReactionAdd(channelID, messageID, string(marker), discordgo.WithContext(ctx))
}

func (g *Gateway) FetchMessage(ctx context.Context, channelID, messageID string) (*requests.Message, error) {
	msg, err := g.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMessage(err) {
			return nil, fmt.Errorf("%w: %s", requests.ErrMessageNotFound, messageID)
		}
		return nil, err
	}
	return toMessage(msg), nil
}

func (g *Gateway) PostRecord(ctx context.Context, channelID string, record requests.ArchiveRecord) error {
	_, err := g.session.ChannelMessageSendEmbed(channelID, toEmbed(record), discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (g *Gateway) ArchiveThread(ctx context.Context, threadID string) error {
	archived := true
	_, err := g.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Archived: &archived}, discordgo.WithContext(ctx))
	return err
}

// CurrentUserID answers from the gateway session when it is ready, and asks
// the REST API otherwise.
func (g *Gateway) CurrentUserID(ctx context.Context) (string, error) {
	if g.session.State != nil && g.session.State.User != nil {
		return g.session.State.User.ID, nil
	}
	user, err := g.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Reply answers a command invocation in place.
func (g *Gateway) Reply(ctx context.Context, channelID, messageID, text string) error {
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	_, err := g.session.ChannelMessageSendReply(channelID, text, ref, discordgo.WithContext(ctx))
	return err
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func toMessage(msg *discordgo.Message) *requests.Message {
	out := &requests.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	if msg.Author != nil {
		out.Author = requests.Author{
			ID:            msg.Author.ID,
			Name:          msg.Author.Username,
			Discriminator: msg.Author.Discriminator,
			Avatar:        msg.Author.Avatar,
		}
	}
	switch {
	case msg.Thread != nil:
		out.ThreadID = msg.Thread.ID
	case msg.Flags&discordgo.MessageFlagsHasThread != 0:
		// threads started from a message share its id
		out.ThreadID = msg.ID
	}
	return out
}

func toEmbed(record requests.ArchiveRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       record.Title,
		Description: record.Description,
		Color:       record.Color,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    record.AuthorName,
			IconURL: record.AuthorIconURL,
		},
	}
	if !record.Timestamp.IsZero() {
		embed.Timestamp = record.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, f := range record.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}
