package internal

import (
	"io"

	"github.com/starford/letterbox/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  storage.Store
	stdin  io.Reader
	stdout io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the configured storage backend. The quota from the
// configuration still applies.
func WithStore(s storage.Store) Option {
	return func(a *application) {
		a.store = s
	}
}

// WithStdio sets the streams RunMCP speaks on instead of os.Stdin and
// os.Stdout.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
	}
}
