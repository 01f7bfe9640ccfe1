package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffbot/internal/boards"
	"github.com/staffbot/internal/commands"
	"github.com/staffbot/internal/requests"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "80351110224678912", want: "80351110224678912"},
		{in: " 0042 ", want: "42"},
		{in: "18446744073709551615", want: "18446744073709551615"},
		{in: "18446744073709551616", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "general", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMentionID(t *testing.T) {
	id, ok := mentionID("<#123>", "<#")
	assert.True(t, ok)
	assert.Equal(t, "123", id)

	id, ok = mentionID("456", "<#")
	assert.True(t, ok)
	assert.Equal(t, "456", id)

	_, ok = mentionID("<@&789>", "<#")
	assert.False(t, ok)

	_, ok = mentionID("#requests", "<#")
	assert.False(t, ok)
}

func TestChannelByName(t *testing.T) {
	channels := []*discordgo.Channel{
		{ID: "1", Name: "general", Type: discordgo.ChannelTypeGuildText},
		{ID: "2", Name: "Requests", Type: discordgo.ChannelTypeGuildText},
	}
	ch := channelByName(channels, "#requests")
	require.NotNil(t, ch)
	assert.Equal(t, "2", ch.ID)
	assert.Nil(t, channelByName(channels, "archive"))
}

func TestRoleByToken(t *testing.T) {
	roles := []*discordgo.Role{{ID: "10", Name: "Staff"}, {ID: "11", Name: "Mods"}}

	assert.Equal(t, "11", roleByToken(roles, "<@&11>").ID)
	assert.Equal(t, "10", roleByToken(roles, "10").ID)
	assert.Equal(t, "10", roleByToken(roles, "@staff").ID)
	assert.Nil(t, roleByToken(roles, "<@&12>"))
	assert.Nil(t, roleByToken(roles, "Admins"))
}

func TestToChannel(t *testing.T) {
	assert.True(t, toChannel(&discordgo.Channel{ID: "1", GuildID: "g", Type: discordgo.ChannelTypeGuildText}).Text)
	assert.False(t, toChannel(&discordgo.Channel{ID: "1", GuildID: "g", Type: discordgo.ChannelTypeGuildVoice}).Text)
}

func TestToMessage(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &discordgo.Message{
		ID:        "200",
		ChannelID: "100",
		Content:   "please add me to #ops",
		Timestamp: ts,
		Author:    &discordgo.User{ID: "7", Username: "nelly", Discriminator: "0042", Avatar: "abc"},
	}

	want := &requests.Message{
		ID:        "200",
		ChannelID: "100",
		Content:   "please add me to #ops",
		Timestamp: ts,
		Author:    requests.Author{ID: "7", Name: "nelly", Discriminator: "0042", Avatar: "abc"},
	}
	if diff := cmp.Diff(want, toMessage(msg)); diff != "" {
		t.Errorf("toMessage() mismatch (-want +got):\n%s", diff)
	}

	msg.Flags = discordgo.MessageFlagsHasThread
	assert.Equal(t, "200", toMessage(msg).ThreadID)

	msg.Thread = &discordgo.Channel{ID: "201"}
	assert.Equal(t, "201", toMessage(msg).ThreadID)
}

func TestToEmbed(t *testing.T) {
	record := requests.ArchiveRecord{
		Title:         "Request Complete",
		Color:         requests.ApprovedColor,
		Description:   "body",
		AuthorName:    "nelly#0042",
		AuthorIconURL: "https://cdn.example/a.png",
		Fields: []requests.ArchiveField{
			{Name: "Closed By", Value: "<@9>", Inline: true},
			{Name: "Thread", Value: "None", Inline: true},
		},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)),
	}

	want := &discordgo.MessageEmbed{
		Title:       "Request Complete",
		Description: "body",
		Color:       requests.ApprovedColor,
		Timestamp:   "2024-03-01T11:00:00Z",
		Author:      &discordgo.MessageEmbedAuthor{Name: "nelly#0042", IconURL: "https://cdn.example/a.png"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Closed By", Value: "<@9>", Inline: true},
			{Name: "Thread", Value: "None", Inline: true},
		},
	}
	if diff := cmp.Diff(want, toEmbed(record)); diff != "" {
		t.Errorf("toEmbed() mismatch (-want +got):\n%s", diff)
	}
}

func TestIsUnknownMessage(t *testing.T) {
	byCode := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}}
	byStatus := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}

	assert.True(t, isUnknownMessage(byCode))
	assert.True(t, isUnknownMessage(fmt.Errorf("wrapped: %w", byStatus)))
	assert.False(t, isUnknownMessage(forbidden))
	assert.False(t, isUnknownMessage(errors.New("timeout")))
}

func TestEventConversions(t *testing.T) {
	m := &discordgo.Message{
		ID:        "200",
		ChannelID: "100",
		GuildID:   "1",
		Content:   "!help",
		Type:      discordgo.MessageTypeThreadCreated,
		Author:    &discordgo.User{ID: "7"},
	}
	assert.Equal(t, requests.NewMessage{ChannelID: "100", MessageID: "200", ThreadCreated: true}, newMessageEvent(m))
	assert.Equal(t, commands.Invocation{GuildID: "1", ChannelID: "100", MessageID: "200", AuthorID: "7", Content: "!help"}, invocation(m))

	r := &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			UserID: "7", MessageID: "200", ChannelID: "100", Emoji: discordgo.Emoji{Name: "✅"},
		},
		Member: &discordgo.Member{Roles: []string{"10"}},
	}
	assert.Equal(t, requests.ResolutionReaction{
		ChannelID: "100", MessageID: "200", Emoji: "✅", ActorID: "7", ActorRoleIDs: []string{"10"},
	}, reactionEvent(r))

	r.Member = nil
	assert.Empty(t, reactionEvent(r).ActorRoleIDs)
}

type recordingHandler struct {
	messages  []requests.NewMessage
	reactions []requests.ResolutionReaction
	commands  []commands.Invocation
	isCommand bool
}

func (h *recordingHandler) HandleNewMessage(_ context.Context, ev requests.NewMessage) requests.Outcome {
	h.messages = append(h.messages, ev)
	return requests.OutcomeMarked
}

func (h *recordingHandler) HandleResolutionReaction(_ context.Context, ev requests.ResolutionReaction) requests.Outcome {
	h.reactions = append(h.reactions, ev)
	return requests.OutcomeResolved
}

func (h *recordingHandler) Handle(_ context.Context, inv commands.Invocation) bool {
	h.commands = append(h.commands, inv)
	return h.isCommand
}

func newTestBot(t *testing.T) (*Bot, *recordingHandler) {
	t.Helper()
	session, err := NewSession("token")
	require.NoError(t, err)
	session.State.User = &discordgo.User{ID: "999"}

	h := &recordingHandler{}
	bot := NewBot(session, h, h)
	bot.base = context.Background()
	return bot, h
}

func TestBot_OnMessage(t *testing.T) {
	bot, h := newTestBot(t)

	bot.onMessage(&discordgo.Message{ID: "1", ChannelID: "100", Author: &discordgo.User{ID: "999"}})
	assert.Empty(t, h.commands)
	assert.Empty(t, h.messages)

	bot.onMessage(&discordgo.Message{ID: "2", ChannelID: "100", Author: &discordgo.User{ID: "7"}})
	assert.Len(t, h.commands, 1)
	assert.Equal(t, []requests.NewMessage{{ChannelID: "100", MessageID: "2"}}, h.messages)

	h.isCommand = true
	bot.onMessage(&discordgo.Message{ID: "3", ChannelID: "100", Content: "!help", Author: &discordgo.User{ID: "7"}})
	assert.Len(t, h.commands, 2)
	assert.Equal(t, []requests.NewMessage{
		{ChannelID: "100", MessageID: "2"},
		{ChannelID: "100", MessageID: "3"},
	}, h.messages)
}

type noResolver struct{}

func (noResolver) ResolveChannel(context.Context, string, string) (boards.Channel, error) {
	return boards.Channel{}, ErrNoSuchChannel
}

func (noResolver) ResolveRole(context.Context, string, string) (boards.Role, error) {
	return boards.Role{}, ErrNoSuchRole
}

func (noResolver) IsAdministrator(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type replyLog []string

func (r *replyLog) Reply(_ context.Context, _, _, text string) error {
	*r = append(*r, text)
	return nil
}

func TestBot_PrefixedRequestStillOpens(t *testing.T) {
	bot, h := newTestBot(t)
	replies := &replyLog{}
	bot.commands = commands.NewRouter("!", boards.NewAdmin(boards.NewInMemoryStore()), noResolver{}, replies)

	bot.onMessage(&discordgo.Message{
		ID:        "4",
		ChannelID: "100",
		GuildID:   "1",
		Content:   "!!URGENT server is down",
		Author:    &discordgo.User{ID: "7"},
	})

	assert.Equal(t, []requests.NewMessage{{ChannelID: "100", MessageID: "4"}}, h.messages)
	assert.Equal(t, []string{"I don't know a `!URGENT` command."}, []string(*replies))
}

func TestBot_OnReaction(t *testing.T) {
	bot, h := newTestBot(t)

	bot.onReaction(&discordgo.MessageReactionAdd{})
	assert.Empty(t, h.reactions)

	reaction := &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
		UserID: "7", MessageID: "2", ChannelID: "100", Emoji: discordgo.Emoji{Name: "❌"},
	}}
	bot.onReaction(reaction)
	assert.Empty(t, h.reactions, "reaction without member payload")

	reaction.Member = &discordgo.Member{Roles: []string{"10"}}
	bot.onReaction(reaction)
	require.Len(t, h.reactions, 1)
	assert.Equal(t, "❌", h.reactions[0].Emoji)
	assert.Equal(t, []string{"10"}, h.reactions[0].ActorRoleIDs)
}

func TestNewSession_Intents(t *testing.T) {
	session, err := NewSession("token")
	require.NoError(t, err)
	assert.Equal(t, "Bot token", session.Token)
	assert.Equal(t, Intents, session.Identify.Intents)
	assert.NotZero(t, Intents&discordgo.IntentMessageContent)
}
