package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Quit policies decide where the widget lands once a session has ended.
const (
	QuitNewSession      = "new_session"
	QuitReturnToChooser = "return_to_chooser"
)

// Start screens
const (
	StartInitial = "initial"
	StartChat    = "chat"
)

const (
	DefaultEndpoint       = "http://localhost:5001/chat"
	DefaultRequestTimeout = 60 * time.Second
	DefaultLogDir         = "logs"
)

// Environment variables consulted after the config file.
const (
	EnvEndpoint      = "FANTASYCHAT_ENDPOINT"
	EnvLeagueID      = "FANTASYCHAT_LEAGUE_ID"
	EnvVectorStoreID = "FANTASYCHAT_VECTOR_STORE_ID"
	EnvOnQuit        = "FANTASYCHAT_ON_QUIT"
)

// Config holds application configuration
type Config struct {
	Endpoint      string `toml:"endpoint"`
	LeagueID      string `toml:"league_id"`       // Optional league context forwarded with every request
	VectorStoreID string `toml:"vector_store_id"` // Optional vector store forwarded with every request

	OnQuit           string   `toml:"on_quit"`
	StartScreen      string   `toml:"start_screen"`
	StrictNavigation bool     `toml:"strict_navigation"` // Block navigation while a message is in flight
	ProbeOnStart     bool     `toml:"probe_on_start"`
	RequestTimeout   Duration `toml:"request_timeout"`

	Debug     bool   `toml:"debug"`
	LogDir    string `toml:"log_dir"`
	Telemetry bool   `toml:"telemetry"`
}

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		OnQuit:         QuitReturnToChooser,
		StartScreen:    StartInitial,
		ProbeOnStart:   true,
		RequestTimeout: Duration{DefaultRequestTimeout},
		LogDir:         DefaultLogDir,
		Telemetry:      true,
	}
}

// DefaultPath returns ~/.fantasychat/config.toml, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fantasychat", "config.toml")
}

// Load starts from Default, overlays the TOML file at path and then the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Endpoint = v
	}
	if v, ok := lookup(EnvLeagueID); ok {
		c.LeagueID = v
	}
	if v, ok := lookup(EnvVectorStoreID); ok {
		c.VectorStoreID = v
	}
	if v, ok := lookup(EnvOnQuit); ok && v != "" {
		c.OnQuit = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", c.Endpoint)
	}

	switch c.OnQuit {
	case QuitNewSession, QuitReturnToChooser:
	default:
		return fmt.Errorf("unknown on_quit policy: %s (%s|%s)", c.OnQuit, QuitNewSession, QuitReturnToChooser)
	}

	switch c.StartScreen {
	case StartInitial, StartChat:
	default:
		return fmt.Errorf("unknown start_screen: %s (%s|%s)", c.StartScreen, StartInitial, StartChat)
	}

	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
