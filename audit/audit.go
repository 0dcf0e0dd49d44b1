// Package audit defines the pluggable resolution-audit surface: a Sink
// records one event per resolved expression, for cache misses and
// cache hits alike (Event.CacheHit tells them apart). The core resolver
// and cache never
// import this package; a Sink is attached by the caller, never
// required.
package audit

import (
	"context"
	"time"
)

// Event describes one resolution, whether served from cache or freshly
// computed.
type Event struct {
	Expression string
	Factor     float64
	Offset     float64
	Exponents  []int32
	CacheHit   bool
	Duration   time.Duration
	At         time.Time
}

// Sink records resolution events to some external store.
type Sink interface {
	Record(ctx context.Context, event Event) error
	Close() error
}

// NullSink discards every event. It is the default: wiring a real sink
// is always an opt-in caller choice.
type NullSink struct{}

// Record implements Sink by doing nothing.
func (NullSink) Record(context.Context, Event) error { return nil }

// Close implements Sink by doing nothing.
func (NullSink) Close() error { return nil }
