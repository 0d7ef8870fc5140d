package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/store"
)

type Scheduler struct {
	cities          *cities.Store
	refreshInterval time.Duration
	audit           *store.Store
	retentionDays   int
	logger          *slog.Logger
}

// NewScheduler loads the default cities on Run and, when refreshInterval is
// positive, reloads every listed city on that interval.
func NewScheduler(c *cities.Store, refreshInterval time.Duration) *Scheduler {
	return &Scheduler{
		cities:          c,
		refreshInterval: refreshInterval,
		logger:          slog.Default(),
	}
}

// SetAuditStore enables daily cleanup of raw payloads older than retentionDays.
func (s *Scheduler) SetAuditStore(st *store.Store, retentionDays int) {
	s.audit = st
	s.retentionDays = retentionDays
}

func (s *Scheduler) SetLogger(l *slog.Logger) {
	s.logger = l
}

func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler: loading default cities")
	if err := s.cities.Initialize(ctx); err != nil {
		s.logger.Error("scheduler: initialize", "error", err)
		return
	}
	s.cleanupPayloads()

	var refreshC, cleanupC <-chan time.Time
	if s.refreshInterval > 0 {
		t := time.NewTicker(s.refreshInterval)
		defer t.Stop()
		refreshC = t.C
	} else {
		s.logger.Info("scheduler: periodic refresh disabled")
	}
	if s.audit != nil && s.retentionDays > 0 {
		t := time.NewTicker(24 * time.Hour)
		defer t.Stop()
		cleanupC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: shutting down")
			return
		case <-refreshC:
			s.logger.Info("scheduler: refreshing cities")
			if err := s.cities.RefreshAll(ctx); err != nil {
				s.logger.Warn("scheduler: refresh", "error", err)
			}
		case <-cleanupC:
			s.cleanupPayloads()
		}
	}
}

func (s *Scheduler) cleanupPayloads() {
	if s.audit == nil || s.retentionDays <= 0 {
		return
	}
	n, err := s.audit.CleanupOldRawPayloads(s.retentionDays)
	if err != nil {
		s.logger.Warn("scheduler: cleanup raw payloads", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("scheduler: removed old raw payloads", "count", n)
	}
}
