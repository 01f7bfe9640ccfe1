package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/staffbot/internal/boards"
)

const noPermissionReply = "You do not have permission to do this."

// ErrUsage marks an invocation whose arguments could not be used.
var ErrUsage = errors.New("bad arguments")

// Invocation is a message that may carry a command.
type Invocation struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string
}

// Resolver turns command argument tokens into platform objects and answers
// permission questions.
type Resolver interface {
	ResolveChannel(ctx context.Context, guildID, token string) (boards.Channel, error)
	ResolveRole(ctx context.Context, guildID, token string) (boards.Role, error)
	IsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, error)
}

// Replier answers the message that invoked a command.
type Replier interface {
	Reply(ctx context.Context, channelID, messageID, text string) error
}

// Command is one prefix command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Example     string
	AdminOnly   bool
	Run         func(ctx context.Context, inv Invocation, args []string) (string, error)
}

// Router parses prefixed messages and dispatches them to commands.
type Router struct {
	prefix   string
	resolver Resolver
	replier  Replier
	commands map[string]*Command
}

func NewRouter(prefix string, admin *boards.Admin, resolver Resolver, replier Replier) *Router {
	r := &Router{
		prefix:   prefix,
		resolver: resolver,
		replier:  replier,
		commands: make(map[string]*Command),
	}
	for _, cmd := range boardCommands(admin, resolver) {
		r.register(cmd)
	}
	r.register(&Command{
		Name:        "help",
		Description: "Lists commands, or shows how to use one",
		Usage:       "[command]",
		Example:     "setupBoard",
		Run:         r.help,
	})
	return r
}

func (r *Router) register(cmd *Command) { r.commands[cmd.Name] = cmd }

// Handle runs the command carried by inv, if any, and reports whether inv
// was a command invocation at all.
func (r *Router) Handle(ctx context.Context, inv Invocation) bool {
	if !strings.HasPrefix(inv.Content, r.prefix) {
		return false
	}
	fields := strings.Fields(strings.TrimPrefix(inv.Content, r.prefix))
	if len(fields) == 0 {
		return false
	}
	// guild-only commands
	if inv.GuildID == "" {
		return true
	}

	logger := zerolog.Ctx(ctx)
	name, args := fields[0], fields[1:]

	cmd, ok := r.commands[name]
	if !ok {
		r.reply(ctx, inv, fmt.Sprintf("I don't know a `%s` command.", name))
		return true
	}

	if cmd.AdminOnly {
		admin, err := r.resolver.IsAdministrator(ctx, inv.GuildID, inv.ChannelID, inv.AuthorID)
		if err != nil {
			logger.Warn().Err(err).Str("command", name).Msg("Failed to check permissions")
		}
		if !admin {
			r.reply(ctx, inv, noPermissionReply)
			return true
		}
	}

	text, err := cmd.Run(ctx, inv, args)
	if err != nil {
		logger.Debug().Err(err).Str("command", name).Msg("Command rejected")
		if errors.Is(err, ErrUsage) {
			text = fmt.Sprintf("%s\nUsage: `%s%s %s`", text, r.prefix, cmd.Name, cmd.Usage)
		}
	}
	if text = strings.TrimSpace(text); text != "" {
		r.reply(ctx, inv, text)
	}
	return true
}

func (r *Router) reply(ctx context.Context, inv Invocation, text string) {
	if err := r.replier.Reply(ctx, inv.ChannelID, inv.MessageID, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to send command reply")
	}
}

func (r *Router) help(ctx context.Context, inv Invocation, args []string) (string, error) {
	if len(args) > 0 {
		cmd, ok := r.commands[args[0]]
		if !ok {
			return fmt.Sprintf("I don't know a `%s` command.", args[0]), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**%s%s** - %s\n", r.prefix, cmd.Name, cmd.Description)
		fmt.Fprintf(&b, "Usage: `%s%s %s`\n", r.prefix, cmd.Name, cmd.Usage)
		if cmd.Example != "" {
			fmt.Fprintf(&b, "Example: `%s%s %s`", r.prefix, cmd.Name, cmd.Example)
		}
		return b.String(), nil
	}

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("**Commands**\n")
	for _, name := range names {
		fmt.Fprintf(&b, "`%s%s` - %s\n", r.prefix, name, r.commands[name].Description)
	}
	fmt.Fprintf(&b, "Use `%shelp <command>` for details.", r.prefix)
	return b.String(), nil
}
