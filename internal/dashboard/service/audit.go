package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/platform/metrics"
	"github.com/ridloal/product-dashboard/internal/product/domain"
	"github.com/robfig/cron/v3"
)

// AuditReport describes how the working list differs from the store.
type AuditReport struct {
	Skipped  bool    `json:"skipped"`
	Missing  []int64 `json:"missing,omitempty"` // in the store, not in the working list
	Stale    []int64 `json:"stale,omitempty"`   // in the working list, gone from the store
	Changed  []int64 `json:"changed,omitempty"`
	Resynced bool    `json:"resynced"`
}

func (r AuditReport) Drift() bool {
	return len(r.Missing) > 0 || len(r.Stale) > 0 || len(r.Changed) > 0
}

// Audit compares the working list with the store. On drift the working list is
// replaced by the store contents, unless a load or mutation ran meanwhile.
func (s *dashboardServiceImpl) Audit(ctx context.Context) (AuditReport, error) {
	s.mu.Lock()
	if !permission.Has(s.permissions, permission.Read) || s.loading || s.mutating {
		s.mu.Unlock()
		return AuditReport{Skipped: true}, nil
	}
	working := append([]domain.Product(nil), s.products...)
	version := s.version
	s.mu.Unlock()

	stored, err := s.repo.FetchAll(ctx)
	if err != nil {
		logger.Error("DashboardService.Audit: failed to fetch products", err, nil)
		return AuditReport{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	report := diff(working, stored)
	if !report.Drift() {
		return report, nil
	}
	metrics.IncAuditDrift()
	logger.Fields("DashboardService.Audit: working list out of sync", map[string]interface{}{
		"missing": report.Missing,
		"stale":   report.Stale,
		"changed": report.Changed,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == version && !s.loading && !s.mutating {
		s.replaceLocked(stored)
		report.Resynced = true
	}
	return report, nil
}

func diff(working, stored []domain.Product) AuditReport {
	var report AuditReport
	byID := make(map[int64]domain.Product, len(working))
	for _, p := range working {
		byID[p.ID] = p
	}
	for _, p := range stored {
		w, ok := byID[p.ID]
		switch {
		case !ok:
			report.Missing = append(report.Missing, p.ID)
		case w != p:
			report.Changed = append(report.Changed, p.ID)
		}
		delete(byID, p.ID)
	}
	for id := range byID {
		report.Stale = append(report.Stale, id)
	}
	sort.Slice(report.Stale, func(i, j int) bool { return report.Stale[i] < report.Stale[j] })
	return report
}

// AuditScheduler runs Audit on a cron schedule.
type AuditScheduler struct {
	scheduler *cron.Cron
}

// StartAuditScheduler accepts standard cron specs with an optional seconds field
// and descriptors like "@every 30s".
func StartAuditScheduler(svc DashboardService, spec string) (*AuditScheduler, error) {
	scheduler := cron.New(cron.WithParser(cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	_, err := scheduler.AddFunc(spec, func() {
		logger.Debug("Scheduler: running dashboard audit job")
		// Background job, tidak terikat request
		if _, err := svc.Audit(context.Background()); err != nil {
			logger.Error("Scheduler: dashboard audit failed", err, nil)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", spec, err)
	}
	scheduler.Start()
	logger.Info(fmt.Sprintf("Dashboard audit scheduler initialized with spec '%s'", spec))
	return &AuditScheduler{scheduler: scheduler}, nil
}

// Stop halts the scheduler and waits for a running audit to finish.
func (a *AuditScheduler) Stop() {
	<-a.scheduler.Stop().Done()
}
