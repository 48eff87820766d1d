package rcache

import (
	"fmt"
	"time"
)

const (
	defaultInterval     = 5 * time.Minute
	defaultFetchTimeout = 2 * time.Minute
)

type config struct {
	interval       time.Duration
	fetchTimeout   time.Duration
	runImmediately bool
	sources        []Source
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		interval:       defaultInterval,
		fetchTimeout:   defaultFetchTimeout,
		runImmediately: true,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithSource adds record sources for the runner to fetch from. Batches
// from multiple sources are concatenated in source order before
// deduplication, so for records sharing an identity the earliest source
// wins.
func WithSource(src ...Source) Option {
	return func(cfg *config) error {
		cfg.sources = append(cfg.sources, src...)
		return nil
	}
}

// WithInterval sets the wait between fetch cycles. Values below zero are
// clamped to zero, which runs cycles back to back.
//
// Default is 5 minutes.
func WithInterval(interval time.Duration) Option {
	return func(cfg *config) error {
		if interval < 0 {
			interval = 0
		}
		cfg.interval = interval
		return nil
	}
}

// WithFetchTimeout bounds how long a cycle waits for its sources. A
// timed-out fetch is abandoned, not interrupted; the next cycle is free
// to start a fresh attempt while the straggler finishes on its own. If
// set to 0, cycles wait indefinitely.
//
// Default is 2 minutes.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		if timeout < 0 {
			return fmt.Errorf("fetch timeout cannot be negative")
		}
		cfg.fetchTimeout = timeout
		return nil
	}
}

// WithRunImmediately controls whether the first fetch cycle runs as soon
// as the runner starts, instead of after one full interval.
//
// Default is true.
func WithRunImmediately(run bool) Option {
	return func(cfg *config) error {
		cfg.runImmediately = run
		return nil
	}
}
