package provider

import (
	"fmt"
	"time"

	"github.com/sashell/go-libsap/registry"
)

const (
	defaultListenAddr     = "0.0.0.0:8080"
	defaultStopTimeout    = 5 * time.Second
	defaultInitialTimeout = 30 * time.Second
)

type config struct {
	listenAddr     string
	autoPort       bool
	refreshToken   string
	sink           registry.Sink
	requireInitial bool
	initialTimeout time.Duration
	stopTimeout    time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		listenAddr:     defaultListenAddr,
		initialTimeout: defaultInitialTimeout,
		stopTimeout:    defaultStopTimeout,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithListenAddr sets the host:port the server binds to.
//
// Default is 0.0.0.0:8080.
func WithListenAddr(addr string) Option {
	return func(cfg *config) error {
		if addr != "" {
			cfg.listenAddr = addr
		}
		return nil
	}
}

// WithAutoPort makes the server try the next 20 ports when the configured
// port is taken.
func WithAutoPort(auto bool) Option {
	return func(cfg *config) error {
		cfg.autoPort = auto
		return nil
	}
}

// WithRefreshToken gates the manual refresh endpoint behind a token. With
// an empty token the endpoint is open.
func WithRefreshToken(token string) Option {
	return func(cfg *config) error {
		cfg.refreshToken = token
		return nil
	}
}

// WithRegistry sets the sink where the provider URL is registered once
// the listener is bound. Without a sink no registration happens.
func WithRegistry(sink registry.Sink) Option {
	return func(cfg *config) error {
		cfg.sink = sink
		return nil
	}
}

// WithRequireInitialFetch makes Start wait for the first successful fetch
// cycle, up to the given timeout, before serving. On timeout the server
// starts serving anyway with an empty cache.
//
// Default is to serve immediately.
func WithRequireInitialFetch(timeout time.Duration) Option {
	return func(cfg *config) error {
		cfg.requireInitial = true
		if timeout > 0 {
			cfg.initialTimeout = timeout
		}
		return nil
	}
}

// WithStopTimeout bounds how long Close waits for the runner loop to
// exit.
//
// Default is 5 seconds.
func WithStopTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		cfg.stopTimeout = timeout
		return nil
	}
}
