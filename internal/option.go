package internal

import (
	"log/slog"

	"github.com/starford/readmana/internal/index"
)

// Option is a functional option for configuring the index service.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	onEvent index.EventCallback
}

// WithConfig sets the service configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithEventCallback receives every index change made while watching.
func WithEventCallback(cb index.EventCallback) Option {
	return func(a *application) {
		a.onEvent = cb
	}
}
