package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// NoopConfig is a config that does not yield any values.
var NoopConfig = &noopConfig{}

type noopConfig struct{}

func (*noopConfig) Get(_ context.Context) (interface{}, error) {
	return nil, ErrNoValue
}

func (*noopConfig) Shutdown() {
}

// Typed is a config.Config that yields values of a single type
type Typed[T any] interface {
	// Get returns the latest value, ignoring any error
	Get(ctx context.Context) T

	// GetSafe returns the latest value. On error, the last known value is
	// returned alongside it.
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

// Bool provides a boolean typed config.Config.
type Bool = Typed[bool]

// Duration provides a time.Duration typed config.Config.
type Duration = Typed[time.Duration]

// Uint64 provides a uint64 typed config.Config.
type Uint64 = Typed[uint64]
