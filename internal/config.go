package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/effects"
	"github.com/starford/letterbox/internal/letters"
	"github.com/starford/letterbox/internal/player"
	"github.com/starford/letterbox/internal/render"
	"github.com/starford/letterbox/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Storage   StorageConfig     `yaml:"storage" toml:"storage"`
	Letters   LettersConfig     `yaml:"letters" toml:"letters"`
	Countdown CountdownConfig   `yaml:"countdown" toml:"countdown"`
	Confetti  ConfettiConfig    `yaml:"confetti" toml:"confetti"`
	Player    PlayerConfig      `yaml:"player" toml:"player"`
	Cards     []CardConfig      `yaml:"cards" toml:"cards"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Letters.Validate(); err != nil {
		return err
	}
	if err := c.Countdown.Validate(); err != nil {
		return err
	}
	if err := c.Confetti.Validate(); err != nil {
		return err
	}
	if err := c.Player.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	Title    string     `yaml:"title" toml:"title"`
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value backend the letters are kept in.
//
// Path is a directory for "fs" and a database file for "sqlite"; it is
// ignored for "memory". QuotaBytes caps the total size of all stored keys and
// values (0 disables the cap). Watch reloads the letters when the "fs" store
// is changed by another process.
type StorageConfig struct {
	Driver     string `yaml:"driver" toml:"driver"`
	Path       string `yaml:"path" toml:"path"`
	QuotaBytes int    `yaml:"quota_bytes" toml:"quota_bytes"`
	Watch      bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverFS, DriverSQLite, DriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != DriverMemory, validation.Required)),
		validation.Field(&c.QuotaBytes, validation.Min(0)),
	)
}

// LettersConfig holds the storage key and the display date layout.
type LettersConfig struct {
	StorageKey string `yaml:"storage_key" toml:"storage_key"`
	DateLayout string `yaml:"date_layout" toml:"date_layout"`
}

// Validate validates the letters configuration.
func (c *LettersConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StorageKey, validation.Required),
		validation.Field(&c.DateLayout, validation.Required),
	)
}

// CountdownConfig is the yearly target date and the refresh period.
type CountdownConfig struct {
	Month     int `yaml:"month" toml:"month"`
	Day       int `yaml:"day" toml:"day"`
	RefreshMS int `yaml:"refresh_ms" toml:"refresh_ms"`
}

// Target returns the configured date.
func (c *CountdownConfig) Target() countdown.Target {
	return countdown.Target{Month: time.Month(c.Month), Day: c.Day}
}

// Refresh returns the tick period.
func (c *CountdownConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshMS) * time.Millisecond
}

// Validate validates the countdown configuration.
func (c *CountdownConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RefreshMS, validation.Required, validation.Min(100)),
	); err != nil {
		return err
	}
	return c.Target().Validate()
}

// ConfettiConfig controls the particle stream.
type ConfettiConfig struct {
	Enabled    bool     `yaml:"enabled" toml:"enabled"`
	IntervalMS int      `yaml:"interval_ms" toml:"interval_ms"`
	Colors     []string `yaml:"colors" toml:"colors"`
}

// Interval returns the spawn period.
func (c *ConfettiConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Validate validates the confetti configuration.
func (c *ConfettiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IntervalMS, validation.Required, validation.Min(50)),
		validation.Field(&c.Colors, validation.Each(validation.Required)),
	)
}

// PlayerConfig is the song offered on the music tab. An empty Src hides the
// player.
type PlayerConfig struct {
	Src    string `yaml:"src" toml:"src"`
	Title  string `yaml:"title" toml:"title"`
	Volume int    `yaml:"volume" toml:"volume"`
}

// Track returns the player track with the volume clamped to 0..100.
func (c *PlayerConfig) Track() player.Track {
	return player.Track{Src: c.Src, Title: c.Title, Volume: player.ClampVolume(c.Volume)}
}

// Validate validates the player configuration.
func (c *PlayerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Volume, validation.Min(0), validation.Max(100)),
	)
}

// CardConfig is one flip card.
type CardConfig struct {
	Front string `yaml:"front" toml:"front"`
	Back  string `yaml:"back" toml:"back"`
}

// RenderCards converts the configured cards for the page.
func RenderCards(cards []CardConfig) []render.Card {
	out := make([]render.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, render.Card(c))
	}
	return out
}

// AuthConfig holds authentication configuration for the JSON API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Title:    "Happy Birthday!",
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: DriverFS,
			Path:   "./data",
			Watch:  true,
		},
		Letters: LettersConfig{
			StorageKey: storage.DefaultLettersKey,
			DateLayout: letters.DefaultDateLayout,
		},
		Countdown: CountdownConfig{
			Month:     int(time.August),
			Day:       8,
			RefreshMS: 1000,
		},
		Confetti: ConfettiConfig{
			Enabled:    true,
			IntervalMS: 300,
			Colors:     effects.DefaultColors,
		},
		Player: PlayerConfig{
			Title:  "Happy Birthday",
			Volume: 70,
		},
		Cards: []CardConfig{
			{Front: "Make a wish 🎂", Back: "May every candle bring you something wonderful."},
			{Front: "Another trip around the sun ☀️", Back: "Thank you for making every one of them brighter."},
			{Front: "Open me 🎁", Back: "Check the letters tab for messages from your friends."},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
