package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// Config is everything the bot reads from its environment.
type Config struct {
	Discord  DiscordConfig
	Sheets   SheetsConfig
	Google   ServiceAccount
	Events   EventsConfig
	LogLevel string

	ResetPassword  string
	SpecialUser    string
	HealthAddr     string
	RequestTimeout time.Duration
}

type DiscordConfig struct {
	Token    string
	ClientID string
	GuildID  string // empty registers commands globally
}

type SheetsConfig struct {
	Backend       string
	SpreadsheetID string
	// ViewRanges overrides the table range per ledger type.
	ViewRanges map[string]string
}

type ServiceAccount struct {
	ProjectID    string
	PrivateKeyID string
	PrivateKey   string
	ClientEmail  string
	ClientID     string
}

type EventsConfig struct {
	KafkaBrokers []string
	DatabaseURL  string
}

// Load reads an optional .env file from the working directory and then the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Discord: DiscordConfig{
			Token:    env("TOKEN"),
			ClientID: env("CLIENT_ID"),
			GuildID:  env("GUILD_ID"),
		},
		Sheets: SheetsConfig{
			Backend:       strings.ToLower(envOr("STORE_BACKEND", BackendSheets)),
			SpreadsheetID: env("GOOGLE_SHEET_ID"),
			ViewRanges:    map[string]string{},
		},
		Google: ServiceAccount{
			ProjectID:    env("GOOGLE_PROJECT_ID"),
			PrivateKeyID: env("GOOGLE_PRIVATE_KEY_ID"),
			PrivateKey:   NormalizePrivateKey(os.Getenv("GOOGLE_PRIVATE_KEY")),
			ClientEmail:  env("GOOGLE_CLIENT_EMAIL"),
			ClientID:     env("GOOGLE_CLIENT_ID"),
		},
		Events: EventsConfig{
			KafkaBrokers: splitList(env("KAFKA_BROKERS")),
			DatabaseURL:  env("DATABASE_URL"),
		},
		LogLevel:      envOr("LOG_LEVEL", "info"),
		ResetPassword: os.Getenv("RESET_PASSWORD"),
		SpecialUser:   envOr("SPECIAL_USER", "cucudukun"),
		HealthAddr:    envOr("HEALTH_ADDR", ":8080"),
	}

	for _, typ := range []string{"google", "vps", "domain"} {
		if rng := env("GOOGLE_SHEET_" + strings.ToUpper(typ) + "_RANGE"); rng != "" {
			cfg.Sheets.ViewRanges[typ] = rng
		}
	}

	timeout, err := time.ParseDuration(envOr("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = timeout

	return cfg, nil
}

// Validate checks that the settings the bot needs at startup are present.
// Values are checked for presence and shape only.
func (c *Config) Validate() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("TOKEN is required"))
	}
	if c.ResetPassword == "" {
		errs = append(errs, errors.New("RESET_PASSWORD is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	switch c.Sheets.Backend {
	case BackendMemory:
	case BackendSheets:
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("GOOGLE_SHEET_ID is required"))
		}
		if c.Google.ClientEmail == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_EMAIL is required"))
		} else if !strings.Contains(c.Google.ClientEmail, "@") {
			errs = append(errs, fmt.Errorf("GOOGLE_CLIENT_EMAIL %q is not an email address", c.Google.ClientEmail))
		}
		if c.Google.PrivateKey == "" {
			errs = append(errs, errors.New("GOOGLE_PRIVATE_KEY is required"))
		} else if !strings.Contains(c.Google.PrivateKey, "PRIVATE KEY") {
			errs = append(errs, errors.New("GOOGLE_PRIVATE_KEY does not look like a PEM key"))
		}
		if c.Google.ProjectID == "" {
			errs = append(errs, errors.New("GOOGLE_PROJECT_ID is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSheets, BackendMemory, c.Sheets.Backend))
	}

	for typ, rng := range c.Sheets.ViewRanges {
		if !strings.Contains(rng, "!") {
			errs = append(errs, fmt.Errorf("GOOGLE_SHEET_%s_RANGE %q must be sheet-qualified", strings.ToUpper(typ), rng))
		}
	}
	return errors.Join(errs...)
}

// NormalizePrivateKey strips surrounding quotes and turns literal "\n"
// sequences into newlines, as keys pasted into env files often carry both.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 1 && (key[0] == '"' || key[0] == '\'') {
		key = key[1:]
	}
	if n := len(key); n >= 1 && (key[n-1] == '"' || key[n-1] == '\'') {
		key = key[:n-1]
	}
	return strings.ReplaceAll(key, `\n`, "\n")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envOr(key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
