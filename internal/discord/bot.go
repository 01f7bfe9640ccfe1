package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/staffbot/internal/commands"
	"github.com/staffbot/internal/logging"
	"github.com/staffbot/internal/requests"
)

// Intents the bot subscribes to. Message content is needed for commands.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentMessageContent

// NewSession creates an unopened session authenticated as a bot.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents
	return session, nil
}

// RequestHandler is the part of the request lifecycle the bot drives.
type RequestHandler interface {
	HandleNewMessage(ctx context.Context, ev requests.NewMessage) requests.Outcome
	HandleResolutionReaction(ctx context.Context, ev requests.ResolutionReaction) requests.Outcome
}

// CommandHandler runs prefix commands and reports whether a message was one.
type CommandHandler interface {
	Handle(ctx context.Context, inv commands.Invocation) bool
}

// Bot connects gateway events to the command router and request engine.
type Bot struct {
	session  *discordgo.Session
	requests RequestHandler
	commands CommandHandler
	base     context.Context
	cancel   context.CancelFunc
}

func NewBot(session *discordgo.Session, requests RequestHandler, commands CommandHandler) *Bot {
	return &Bot{session: session, requests: requests, commands: commands}
}

// Open registers the event handlers and connects to the gateway. Events are
// handled with contexts derived from ctx.
func (b *Bot) Open(ctx context.Context) error {
	b.base, b.cancel = context.WithCancel(ctx)

	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info().
			Str("user", r.User.Username).
			Int("guilds", len(r.Guilds)).
			Msg("Connected to Discord gateway")
	})
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.onMessage(m.Message)
	})
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		b.onReaction(r)
	})

	if err := b.session.Open(); err != nil {
		b.cancel()
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return b.session.Close()
}

func (b *Bot) selfID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

func (b *Bot) onMessage(m *discordgo.Message) {
	if m == nil || (m.Author != nil && m.Author.ID == b.selfID()) {
		return
	}
	ctx := logging.WithEvent(b.base, "message_create", m.ChannelID, m.ID)

	// a command typed into a board channel is still a request there
	command := b.commands.Handle(ctx, invocation(m))
	outcome := b.requests.HandleNewMessage(ctx, newMessageEvent(m))
	zerolog.Ctx(ctx).Debug().
		Bool("command", command).
		Str("outcome", string(outcome)).
		Msg("Message handled")
}

func (b *Bot) onReaction(r *discordgo.MessageReactionAdd) {
	// guild reactions always carry the member; without it roles are unknown
	if r == nil || r.MessageReaction == nil || r.Member == nil {
		return
	}
	ctx := logging.WithEvent(b.base, "reaction_add", r.ChannelID, r.MessageID)

	outcome := b.requests.HandleResolutionReaction(ctx, reactionEvent(r))
	zerolog.Ctx(ctx).Debug().
		Str("emoji", r.Emoji.Name).
		Str("outcome", string(outcome)).
		Msg("Reaction handled")
}

func invocation(m *discordgo.Message) commands.Invocation {
	inv := commands.Invocation{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	if m.Author != nil {
		inv.AuthorID = m.Author.ID
	}
	return inv
}

func newMessageEvent(m *discordgo.Message) requests.NewMessage {
	return requests.NewMessage{
		ChannelID:     m.ChannelID,
		MessageID:     m.ID,
		ThreadCreated: m.Type == discordgo.MessageTypeThreadCreated,
	}
}

func reactionEvent(r *discordgo.MessageReactionAdd) requests.ResolutionReaction {
	ev := requests.ResolutionReaction{
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.Name,
		ActorID:   r.UserID,
	}
	if r.Member != nil {
		ev.ActorRoleIDs = r.Member.Roles
	}
	return ev
}
