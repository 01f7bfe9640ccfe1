package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// DefaultPath is used when neither --config nor STAFFBOT_CFG is given.
	DefaultPath = "/usr/local/etc/staffbot.yaml"
	// PathEnv names the environment variable holding the config path.
	PathEnv   = "STAFFBOT_CFG"
	envPrefix = "STAFFBOT_"
)

// Store backends, selected by the scheme of store.uri.
const (
	BackendMongo    = "mongodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var (
	ErrMissingToken    = errors.New("discord token is required")
	ErrMissingStoreURI = errors.New("store uri is required")
)

type DiscordConfig struct {
	Token  string `koanf:"token" yaml:"token"`
	Prefix string `koanf:"prefix" yaml:"prefix"`
}

type StoreConfig struct {
	URI      string `koanf:"uri" yaml:"uri"`
	Database string `koanf:"database" yaml:"database"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

type StatusConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Config represents the application configuration
type Config struct {
	Discord DiscordConfig `koanf:"discord" yaml:"discord"`
	Store   StoreConfig   `koanf:"store" yaml:"store"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Status  StatusConfig  `koanf:"status" yaml:"status"`
}

var defaults = map[string]interface{}{
	"discord.prefix": "!",
	"store.database": "staffbot",
	"log.level":      "info",
	"log.format":     "console",
	"status.addr":    "",
}

// ResolvePath picks the config file path: explicit flag value, then
// STAFFBOT_CFG, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(PathEnv); v != "" {
		return v
	}
	return DefaultPath
}

// LoadConfig loads defaults, the config file at configPath and STAFFBOT_*
// environment overrides, in that order. A missing or unreadable file is an
// error.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), parserFor(configPath)); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", configPath, err)
		}
	}

	// STAFFBOT_DISCORD_TOKEN -> discord.token
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser()
	default:
		return yaml.Parser()
	}
}

// Backend returns the store backend selected by uri.
func Backend(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(uri, "memory://"):
		return BackendMemory, nil
	}
	return "", fmt.Errorf("unsupported store uri scheme in %q", redactURI(uri))
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Discord.Token == "" {
		return ErrMissingToken
	}
	if config.Discord.Prefix == "" {
		return fmt.Errorf("discord prefix must not be empty")
	}
	if config.Store.URI == "" {
		return ErrMissingStoreURI
	}
	if _, err := Backend(config.Store.URI); err != nil {
		return err
	}

	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Log.Format)
	}

	return nil
}

// InitConfig writes a sample YAML configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sample := Config{
		Discord: DiscordConfig{Token: "your-bot-token", Prefix: "!"},
		Store:   StoreConfig{URI: "mongodb://localhost:27017", Database: "staffbot"},
		Log:     LogConfig{Level: "info", Format: "console"},
		Status:  StatusConfig{Addr: ":8080"},
	}

	out, err := yamlv3.Marshal(&sample)
	if err != nil {
		return fmt.Errorf("failed to render sample config: %w", err)
	}

	header := []byte("# Staff request bot configuration\n")
	return os.WriteFile(configPath, append(header, out...), 0600)
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Redacted returns a copy of config that is safe to print.
func Redacted(config *Config) Config {
	out := *config
	if out.Discord.Token != "" {
		out.Discord.Token = "****"
	}
	out.Store.URI = redactURI(out.Store.URI)
	return out
}

// redactURI drops credentials from a connection string for error messages.
func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "****@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
