package unit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unitsys/resolver/audit"
	"github.com/unitsys/resolver/cache"
	"github.com/unitsys/resolver/resolver"
)

// Unit is a resolved unit: a dimension vector plus the affine
// conversion to the base-unit combination, together with the text it
// was resolved from (used by the encoding round-trip and by String).
type Unit struct {
	info UnitInfo
	expr string
}

// Info returns the resolved UnitInfo.
func (u *Unit) Info() UnitInfo { return u.info }

// String returns the expression text the unit was resolved from.
func (u *Unit) String() string { return u.expr }

// ConversionTo returns the (factor, offset) pair converting a value in
// u to a value in other, such that valueInOther = valueInU*factor +
// offset. A nil other means "already in base form", yielding (1, 0).
// It errors iff u and other are not commensurable.
func (u *Unit) ConversionTo(other *Unit) (factor, offset float64, err error) {
	if other == nil {
		return 1, 0, nil
	}
	if !Commensurable(u.info, other.info) {
		return 0, 0, errIncommensurable()
	}
	factor = u.info.Factor / other.info.Factor
	offset = (u.info.Offset - other.info.Offset) / other.info.Factor
	return factor, offset, nil
}

// System is an immutable resolver (dictionary + operator tables) paired
// with the concurrent cache that memoises its resolutions - the
// "UnitSystem" of the external interface in the specification.
type System struct {
	dict  *resolver.Resolver[UnitInfo]
	cache *cache.Cache[UnitInfo]
	cfg   *Config
	sink  audit.Sink
}

// Option configures a System at construction time. The only option
// today is WithAuditSink; the signature leaves room for more without
// breaking NewSystem's callers.
type Option func(*System)

// WithAuditSink attaches a resolution-audit sink. Wiring one is always
// a caller opt-in - the zero value (no option) uses audit.NullSink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *System) { s.sink = sink }
}

// NewSystem constructs a System from a Config: a fresh dictionary is
// built (which may itself fail with InvalidConfig) and a fresh, empty
// cache is attached.
func NewSystem(cfg *Config, opts ...Option) (*System, error) {
	cfg.applyDefaults()
	r, err := BuildDictionary(cfg)
	if err != nil {
		return nil, err
	}
	s := &System{
		dict:  r,
		cache: cache.New[UnitInfo](cfg.SlidingExpiration, *cfg.HighMemoryPressureThreshold, *cfg.HighMemoryPressureClearPercentage),
		cfg:   cfg,
		sink:  audit.NullSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve parses text with no caching - intended for constructing the
// dictionary and for callers who manage their own memoisation.
func (s *System) Resolve(text string) (UnitInfo, error) {
	return s.dict.Resolve(text)
}

// Create is the cache-backed normal public entry point.
func (s *System) Create(text string) (*Unit, error) {
	return s.CreateContext(context.Background(), text)
}

// CreateContext is Create with an explicit context, used to bound or
// cancel the audit sink's Record call; resolution itself never blocks
// on ctx, since the resolver has no I/O of its own.
func (s *System) CreateContext(ctx context.Context, text string) (*Unit, error) {
	start := time.Now()
	before := s.cache.Len()
	info, err := s.cache.LookupOrResolve(text, func() (UnitInfo, error) {
		return s.dict.Resolve(text)
	})
	if err != nil {
		return nil, err
	}
	cacheHit := s.cache.Len() == before

	if rerr := s.sink.Record(ctx, audit.Event{
		Expression: text,
		Factor:     info.Factor,
		Offset:     info.Offset,
		Exponents:  info.Exponents,
		CacheHit:   cacheHit,
		Duration:   time.Since(start),
		At:         start,
	}); rerr != nil {
		slog.Warn("unit: audit sink record failed", "expression", text, "error", rerr)
	}

	return &Unit{info: info, expr: text}, nil
}

// TryCreate is the throw-on-failure convenience surface.
func (s *System) TryCreate(text string) *Unit {
	u, err := s.Create(text)
	if err != nil {
		panic(err)
	}
	return u
}

// OnExpirationTick is invoked by the host's periodic memory-pressure
// collaborator (modelled abstractly: the actual GC callback is outside
// this package's scope). Any failure is caught and logged, never
// propagated - the host's ticker is expected to keep calling on its
// own schedule regardless of one tick's outcome.
func (s *System) OnExpirationTick(memoryPressurePercent int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unit: expiration tick failed", "panic", r)
		}
	}()
	s.cache.ExpirationTick(memoryPressurePercent)
}

// CacheLen reports the live cache entry count, for observability.
func (s *System) CacheLen() int { return s.cache.Len() }

// globalSystem is the process-wide "currently configured resolver plus
// cache" described in the design notes: a single atomically swappable
// container rather than independent globals, so reconfiguration
// presents one consistent view. Prefer threading a *System explicitly;
// this is merely the default instance for hosts that want one.
var globalSystem atomic.Pointer[System]

// Configure atomically swaps the default System: the old resolver and
// its cache are both discarded, so the new instance always starts with
// an empty cache.
func Configure(cfg *Config, opts ...Option) error {
	s, err := NewSystem(cfg, opts...)
	if err != nil {
		return err
	}
	globalSystem.Store(s)
	return nil
}

// Default returns the currently configured default System. It panics
// if Configure has never been called - the same sharp edge as reading
// any other unconfigured global.
func Default() *System {
	s := globalSystem.Load()
	if s == nil {
		panic(fmt.Errorf("unit: no default System configured; call unit.Configure first"))
	}
	return s
}

// OnExpirationTick drives the default System's cache expiration, for
// hosts that use the global instance rather than an explicit System.
func OnExpirationTick(memoryPressurePercent int) {
	if s := globalSystem.Load(); s != nil {
		s.OnExpirationTick(memoryPressurePercent)
	}
}
