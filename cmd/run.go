package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/staffbot/internal/api"
	"github.com/staffbot/internal/boards"
	"github.com/staffbot/internal/commands"
	"github.com/staffbot/internal/database"
	"github.com/staffbot/internal/discord"
	"github.com/staffbot/internal/requests"
)

const shutdownTimeout = 10 * time.Second

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Connect to Discord and serve request boards",
		Action: runBot,
	}
}

func runBot(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.OpenBoardStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open board store: %w", err)
	}
	defer store.Close()

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	gateway := discord.NewGateway(session)
	engine := requests.NewEngine(store, gateway)
	router := commands.NewRouter(cfg.Discord.Prefix, boards.NewAdmin(store), discord.NewResolver(session), gateway)

	bot := discord.NewBot(session, engine, router)
	if err := bot.Open(ctx); err != nil {
		return err
	}

	var status *api.Server
	if cfg.Status.Addr != "" {
		status = api.NewServer(cfg.Status.Addr, store.Store)
		go func() {
			if err := status.Start(); err != nil {
				log.Error().Err(err).Msg("Status server failed")
				stop()
			}
		}()
	}

	log.Info().Str("prefix", cfg.Discord.Prefix).Msg("Staff request bot running")
	<-ctx.Done()
	log.Info().Msg("Shutting down")

	if err := bot.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close discord gateway")
	}

	if status != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := status.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to stop status server")
		}
	}
	return nil
}
