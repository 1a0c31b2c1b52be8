package dlist

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dijkstracula/colist/gate"
)

// config collects constructor-time settings. There is no file or
// environment surface for this library (spec.md §6: no CLI, wire
// protocol, or environment configuration); functional options are the
// idiomatic Go substitute for the "configuration" ambient concern.
type config struct {
	newGate       func() gate.Gate
	log           zerolog.Logger
	cleanerPeriod time.Duration
}

func defaultConfig() *config {
	return &config{
		newGate: gate.New,
		log:     zerolog.Nop(),
	}
}

// Option configures a List at construction time.
type Option func(*config)

// WithGate overrides the reader/writer gate implementation a List uses to
// coordinate its purgatory cleaner with mutators. Defaults to gate.New
// (Blocking).
func WithGate(newGate func() gate.Gate) Option {
	return func(c *config) { c.newGate = newGate }
}

// WithLogger attaches a zerolog.Logger the list and its cleaner use for
// structured diagnostics. Defaults to zerolog.Nop(): a library must never
// force output on an importer that hasn't asked for it.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithCleanerPeriod overrides how often the purgatory cleaner wakes to run
// a reclamation round. Defaults to 100ms per spec.md §4.3 step 6.
func WithCleanerPeriod(d time.Duration) Option {
	return func(c *config) { c.cleanerPeriod = d }
}
