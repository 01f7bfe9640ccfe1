package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/staffbot/cmd"
	"github.com/staffbot/internal/config"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "staffbot",
		Usage:   "Staff request boards for Discord servers",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: " + config.DefaultPath + ")",
				EnvVars: []string{config.PathEnv},
			},
		},
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.ConfigCommand(),
			cmd.BoardCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
