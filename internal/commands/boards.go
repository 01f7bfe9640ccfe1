package commands

import (
	"context"
	"fmt"

	"github.com/staffbot/internal/boards"
)

func boardCommands(admin *boards.Admin, resolver Resolver) []*Command {
	return []*Command{
		{
			Name:        "setupBoard",
			Description: "Creates a new request board",
			Usage:       "[request_channel] [archive_channel] [manager_role]",
			Example:     "#requests #archive @Staff",
			AdminOnly:   true,
			Run: func(ctx context.Context, inv Invocation, args []string) (string, error) {
				if len(args) != 3 {
					return "Expected a request channel, an archive channel and a manager role.", ErrUsage
				}
				requests, err := resolver.ResolveChannel(ctx, inv.GuildID, args[0])
				if err != nil {
					return fmt.Sprintf("I can't find the channel %s.", args[0]), fmt.Errorf("%w: %v", ErrUsage, err)
				}
				archive, err := resolver.ResolveChannel(ctx, inv.GuildID, args[1])
				if err != nil {
					return fmt.Sprintf("I can't find the channel %s.", args[1]), fmt.Errorf("%w: %v", ErrUsage, err)
				}
				role, err := resolver.ResolveRole(ctx, inv.GuildID, args[2])
				if err != nil {
					return fmt.Sprintf("I can't find the role %s.", args[2]), fmt.Errorf("%w: %v", ErrUsage, err)
				}

				res := admin.SetupBoard(ctx, requests, archive, role)
				return res.Reply, res.Err
			},
		},
		{
			Name:        "removeBoard",
			Description: "Destroys an existing request board",
			Usage:       "[request_channel]",
			Example:     "#requests",
			AdminOnly:   true,
			Run: func(ctx context.Context, inv Invocation, args []string) (string, error) {
				if len(args) != 1 {
					return "Expected the request channel of the board.", ErrUsage
				}
				requests, err := resolver.ResolveChannel(ctx, inv.GuildID, args[0])
				if err != nil {
					return fmt.Sprintf("I can't find the channel %s.", args[0]), fmt.Errorf("%w: %v", ErrUsage, err)
				}

				res := admin.RemoveBoard(ctx, requests)
				return res.Reply, res.Err
			},
		},
	}
}
