package avltree

import "github.com/dijkstracula/colist/gate"

type config struct {
	newGate func() gate.Gate
}

func defaultConfig() *config {
	return &config{newGate: gate.New}
}

// Option configures a Tree at construction time.
type Option func(*config)

// WithGate overrides the reader/writer gate implementation a Tree uses to
// guard its root. Defaults to gate.New (Blocking).
func WithGate(newGate func() gate.Gate) Option {
	return func(c *config) { c.newGate = newGate }
}
