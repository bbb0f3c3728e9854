// Package retention deletes activity events older than the owner's
// retention window.
//
// Only event-log kinds are swept. A sweep snapshots the edges first, so
// events written while it runs are never considered.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/metrics"
	"github.com/roach88/ownerchain/internal/record"
	"github.com/roach88/ownerchain/internal/registry"
)

const day = 24 * time.Hour

// Sweeper purges expired activity events for one owner.
type Sweeper struct {
	m       *lifecycle.Manager
	logger  *slog.Logger
	metrics metrics.Collector
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = l
	}
}

// WithMetrics sets the metrics collector. Defaults to a no-op collector.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Sweeper) {
		s.metrics = c
	}
}

// New creates a sweeper acting through m.
func New(m *lifecycle.Manager, opts ...Option) *Sweeper {
	s := &Sweeper{
		m:       m,
		logger:  slog.Default(),
		metrics: metrics.NewNoopCollector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurgeOlderThan deletes every event of kind whose created_at is strictly
// older than now minus age, together with its edge. Events that cannot be
// read are skipped. Returns the number deleted.
func (s *Sweeper) PurgeOlderThan(ctx context.Context, kind ir.Kind, age time.Duration) (int, error) {
	start := time.Now()

	spec, err := s.m.Registry().Lookup(kind)
	if err != nil {
		return 0, err
	}
	if !spec.EventLog {
		return 0, ir.NewError(ir.CodeInvalidKind, "only activity kinds can be swept").WithKind(kind)
	}

	cutoff := s.m.Now() - age.Microseconds()

	heads, err := s.m.Scan(ctx, kind)
	if err != nil {
		s.metrics.RecordError(ctx, "sweep", "scan")
		return 0, fmt.Errorf("sweep %s: %w", kind, err)
	}
	s.metrics.RecordStage(ctx, "sweep", "scan", time.Since(start).Milliseconds())

	deleteStart := time.Now()
	deleted := 0
	for _, h := range heads {
		created, err := h.Entry.IntField(createdAtField(spec))
		if err != nil {
			s.logger.Debug("skipping unreadable event",
				"kind", kind,
				"hash", h.Entry.Hash.Short(),
				"error", err,
			)
			continue
		}
		if created >= cutoff {
			continue
		}
		if err := s.m.DeleteInstance(ctx, h); err != nil {
			s.metrics.RecordError(ctx, "sweep", "delete")
			return deleted, fmt.Errorf("sweep %s: %w", kind, err)
		}
		deleted++
	}

	s.metrics.RecordStage(ctx, "sweep", "delete", time.Since(deleteStart).Milliseconds())
	s.metrics.RecordOperation(ctx, "sweep", metrics.StatusSuccess, time.Since(start).Milliseconds())
	s.metrics.SetStorageCount(ctx, string(kind), int64(len(heads)-deleted))
	s.logger.Info("retention sweep",
		"kind", kind,
		"older_than_days", int64(age/day),
		"deleted", deleted,
	)
	return deleted, nil
}

// createdAtField is the field compared against the cutoff. Every event-log
// kind carries created_at; the timestamp field is the fallback.
func createdAtField(spec registry.KindSpec) string {
	if _, ok := spec.Field("created_at"); ok {
		return "created_at"
	}
	return spec.TimestampField
}

// PurgeByPolicy sweeps every event-log kind using the owner's retention
// setting, or the default when the owner has no privacy settings.
func (s *Sweeper) PurgeByPolicy(ctx context.Context) (map[ir.Kind]int, error) {
	days := int64(record.DefaultRetentionDays)
	settings, err := s.m.GetPrivacySettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings != nil && settings.Value.ActivityLogRetentionDays > 0 {
		days = settings.Value.ActivityLogRetentionDays
	}

	age := time.Duration(days) * day
	counts := make(map[ir.Kind]int)
	for _, kind := range s.m.Registry().EventLogKinds() {
		n, err := s.PurgeOlderThan(ctx, kind, age)
		if err != nil {
			return counts, err
		}
		counts[kind] = n
	}
	return counts, nil
}
