package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/staffbot/internal/config"
	"github.com/staffbot/internal/logging"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Create, check and inspect the bot configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the sample to `FILE`",
						Value:   "staffbot.yaml",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("output")
					if err := config.InitConfig(path); err != nil {
						return err
					}
					fmt.Printf("Wrote sample configuration to %s, set discord.token and store.uri before running\n", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Report required keys, store backend and warnings for the effective configuration",
				Action: func(c *cli.Context) error {
					path, cfg, err := readConfig(c)
					if err != nil {
						return err
					}
					return reportConfig(os.Stdout, path, cfg)
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration with secrets redacted",
				Action: func(c *cli.Context) error {
					path, cfg, err := readConfig(c)
					if err != nil {
						return err
					}
					return showConfig(os.Stdout, path, cfg)
				},
			},
		},
	}
}

// readConfig loads the file named by the global --config flag merged with
// defaults and STAFFBOT_* overrides, without validating it.
func readConfig(c *cli.Context) (string, *config.Config, error) {
	path := config.ResolvePath(c.String("config"))
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return path, nil, err
	}
	return path, cfg, nil
}

// reportConfig prints the check report for cfg and fails when a required
// key is missing or a value is unusable.
func reportConfig(w io.Writer, path string, cfg *config.Config) error {
	result := CheckConfig(cfg)
	PrintConfigCheck(w, path, result)

	if len(result.Missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(result.Missing, ", "))
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	fmt.Fprintln(w, "Configuration is valid")
	return nil
}

func showConfig(w io.Writer, path string, cfg *config.Config) error {
	redacted := config.Redacted(cfg)
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Fprintf(w, "# effective configuration from %s\n", path)
	_, err = w.Write(out)
	return err
}

// loadConfig resolves, loads and validates the configuration named by the
// global --config flag and sets up logging from it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path, cfg, err := readConfig(c)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}
