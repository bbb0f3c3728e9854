package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/ownerchain/internal/chain"
	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/metrics"
	"github.com/roach88/ownerchain/internal/registry"
	"github.com/roach88/ownerchain/internal/store"
)

// DefaultPageSize is the List limit used when ListOptions.Limit is zero.
const DefaultPageSize = 100

// Store is the entry store and link index a Manager writes through.
// *store.Store satisfies it.
type Store interface {
	chain.Source
	PutEntry(ctx context.Context, in store.EntryInput) (ir.Entry, error)
	GetEntry(ctx context.Context, hash ir.Hash) (ir.Entry, error)
	DeleteEntry(ctx context.Context, author ir.OwnerKey, hash ir.Hash) error
	AddEdge(ctx context.Context, in store.EdgeInput) (ir.Edge, error)
	ListEdges(ctx context.Context, owner ir.OwnerKey, kind ir.Kind) ([]ir.Edge, error)
	RemoveEdge(ctx context.Context, owner ir.OwnerKey, edgeID string) error
}

// Clock reports wall time in Unix microseconds. Payload timestamps come from
// it so tests can substitute a deterministic clock.
type Clock interface {
	NowMicros() int64
}

type systemClock struct{}

func (systemClock) NowMicros() int64 {
	return time.Now().UnixMicro()
}

// IDGenerator produces opaque random identifiers such as analytics ids.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random UUIDv4 identifiers.
//
// v4 rather than v7: analytics ids are handed to third parties and must not
// leak when they were minted.
type UUIDGenerator struct{}

// Generate returns a new hyphenated UUIDv4.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// Head is the resolved current revision of one logical record together with
// the edge it was reached through.
type Head struct {
	Entry ir.Entry
	Edge  ir.Edge
}

// Hash returns the head revision hash.
func (h Head) Hash() ir.Hash {
	return h.Entry.Hash
}

// ListOptions filters and paginates List. Edges are ordered newest first
// before the instance-key filter and then Offset and Limit are applied.
type ListOptions struct {
	InstanceKey string
	Limit       int
	Offset      int
}

// Manager performs record operations for one owner.
type Manager struct {
	owner    ir.OwnerKey
	store    Store
	registry *registry.Registry
	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	metrics  metrics.Collector
	pageSize int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry sets the kind registry. Defaults to registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithClock sets the clock used to stamp payload timestamps.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator sets the generator for analytics ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics sets the metrics collector. Defaults to a no-op collector.
func WithMetrics(c metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

// WithPageSize sets the default List limit. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// New creates a Manager acting as owner.
func New(s Store, owner ir.OwnerKey, opts ...Option) *Manager {
	m := &Manager{
		owner:    owner,
		store:    s,
		clock:    systemClock{},
		ids:      UUIDGenerator{},
		metrics:  metrics.NewNoopCollector(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = registry.Default()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Owner returns the owner key the manager acts for.
func (m *Manager) Owner() ir.OwnerKey {
	return m.owner
}

// Registry returns the kind registry in use.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Now returns the manager clock's current time in microseconds.
func (m *Manager) Now() int64 {
	return m.clock.NowMicros()
}

// after returns a timestamp strictly greater than prev, preferring now.
func (m *Manager) after(prev int64) int64 {
	now := m.clock.NowMicros()
	if now <= prev {
		return prev + 1
	}
	return now
}

// observe records the outcome of one operation. NOT_FOUND is the normal
// absent state and counts as success.
func (m *Manager) observe(ctx context.Context, op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil && !ir.IsNotFound(err) {
		status = metrics.StatusError
		errType := string(ir.CodeOf(err))
		if errType == "" {
			errType = "internal"
		}
		m.metrics.RecordError(ctx, op, errType)
	}
	m.metrics.RecordOperation(ctx, op, status, time.Since(start).Milliseconds())
}

// spec looks up a kind and optionally requires a cardinality.
func (m *Manager) spec(kind ir.Kind, want registry.Cardinality) (registry.KindSpec, error) {
	spec, err := m.registry.Lookup(kind)
	if err != nil {
		return registry.KindSpec{}, err
	}
	if want != "" && spec.Cardinality != want {
		return registry.KindSpec{}, ir.NewError(ir.CodeInvalidKind,
			"operation requires a "+string(want)+" kind").WithKind(kind)
	}
	return spec, nil
}

// encode normalizes a payload for kind and returns its JSON bytes together
// with the normalized object.
func (m *Manager) encode(kind ir.Kind, payload any) ([]byte, map[string]any, error) {
	obj, err := ir.ToObject(payload)
	if err != nil {
		return nil, nil, ir.NewError(ir.CodeInvalidPayload, "payload is not an object").WithKind(kind).Wrap(err)
	}
	n, err := m.registry.Normalize(kind, obj)
	if err != nil {
		return nil, nil, err
	}
	if len(n.Defaulted) > 0 {
		m.logger.Debug("payload fields defaulted",
			"kind", kind,
			"fields", n.Defaulted,
		)
	}
	if len(n.Dropped) > 0 {
		m.logger.Debug("dropped unknown payload fields",
			"kind", kind,
			"fields", n.Dropped,
		)
	}
	data, err := ir.MarshalCanonical(n.Fields)
	if err != nil {
		return nil, nil, ir.NewError(ir.CodeInvalidPayload, err.Error()).WithKind(kind)
	}
	return data, n.Fields, nil
}

// edges lists the owner's edges for kind and publishes the count.
func (m *Manager) edges(ctx context.Context, kind ir.Kind) ([]ir.Edge, error) {
	edges, err := m.store.ListEdges(ctx, m.owner, kind)
	if err != nil {
		return nil, err
	}
	m.metrics.SetStorageCount(ctx, string(kind), int64(len(edges)))
	return edges, nil
}
