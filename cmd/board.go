package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/staffbot/internal/boards"
	"github.com/staffbot/internal/database"
	"github.com/staffbot/internal/discord"
)

// BoardCommand returns the board command
func BoardCommand() *cli.Command {
	requestsFlag := &cli.StringFlag{
		Name:     "requests",
		Aliases:  []string{"r"},
		Usage:    "Request channel `ID`",
		Required: true,
	}

	return &cli.Command{
		Name:  "board",
		Usage: "Manage request boards without going through chat commands",
		Subcommands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "Create or replace a request board",
				Flags: []cli.Flag{
					requestsFlag,
					&cli.StringFlag{
						Name:     "archive",
						Aliases:  []string{"a"},
						Usage:    "Archive channel `ID`",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Usage:    "Manager role `ID`",
						Required: true,
					},
				},
				Action: runBoardSetup,
			},
			{
				Name:   "remove",
				Usage:  "Destroy a request board",
				Flags:  []cli.Flag{requestsFlag},
				Action: runBoardRemove,
			},
			{
				Name:   "list",
				Usage:  "List configured request boards",
				Action: runBoardList,
			},
		},
	}
}

func runBoardSetup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	resolver := discord.NewResolver(session)

	requests, err := resolveChannelFlag(ctx, resolver, c.String("requests"))
	if err != nil {
		return err
	}
	archive, err := resolveChannelFlag(ctx, resolver, c.String("archive"))
	if err != nil {
		return err
	}
	role, err := resolver.ResolveRole(ctx, requests.GuildID, c.String("role"))
	if err != nil {
		return fmt.Errorf("failed to resolve role: %w", err)
	}

	store, err := database.OpenBoardStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	return report(boards.NewAdmin(store).SetupBoard(ctx, requests, archive, role))
}

func runBoardRemove(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	id, err := discord.NormalizeID(c.String("requests"))
	if err != nil {
		return err
	}

	store, err := database.OpenBoardStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	return report(boards.NewAdmin(store).RemoveBoard(ctx, boards.Channel{ID: id}))
}

func runBoardList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := database.OpenBoardStore(c.Context, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	pairs, err := store.List(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}
	printBoards(os.Stdout, pairs)
	return nil
}

func resolveChannelFlag(ctx context.Context, resolver *discord.Resolver, raw string) (boards.Channel, error) {
	id, err := discord.NormalizeID(raw)
	if err != nil {
		return boards.Channel{}, err
	}
	ch, err := resolver.ResolveChannel(ctx, "", id)
	if err != nil {
		return boards.Channel{}, fmt.Errorf("failed to resolve channel: %w", err)
	}
	return ch, nil
}

func report(res boards.Result) error {
	if !res.OK {
		return fmt.Errorf("%s: %w", res.Reply, res.Err)
	}
	fmt.Println(res.Reply)
	return nil
}

func printBoards(w io.Writer, pairs []boards.ChannelPair) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No request boards configured")
		return
	}
	fmt.Fprintf(w, "%-20s  %-20s  %-20s\n", "REQUESTS", "ARCHIVE", "MANAGER ROLE")
	for _, p := range pairs {
		fmt.Fprintf(w, "%-20s  %-20s  %-20s\n", p.RequestsChannelID, p.ArchiveChannelID, p.ManagerRoleID)
	}
}
