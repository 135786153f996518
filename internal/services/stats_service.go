// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements the dashboard aggregation engine.
package services

import (
	"context"
	"log"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
)

const (
	// statsPageSize is the attendance scan page; results are aggregated
	// client-side because counts deduplicate by identity, not by row.
	statsPageSize = 1000

	// statsMaxPages is the runaway guard for both scans. At the page size
	// above this covers 100k rows, far past any single event.
	statsMaxPages = 100

	// recentActivityLimit bounds the dashboard feed.
	recentActivityLimit = 12
)

// StatsService computes the registrar dashboard. Nothing here is persisted;
// every call re-derives the numbers from the raw check-in rows.
//
// Dedup Invariant:
//
//	Headcounts deduplicate by attendance identity — normalized
//	(first, last, district, rank) — NOT by delegate id and NOT by the
//	master-list (first, last, phone) key. Two master rows describing the same
//	physical person count once; a session check-in plus a master arrival for
//	the same person count once.
type StatsService struct {
	checkIns  *repository.CheckInRepository
	delegates *repository.DelegateRepository
	finance   *repository.FinanceRepository
}

// NewStatsService creates a StatsService wired to the repository layer.
func NewStatsService() *StatsService {
	return &StatsService{
		checkIns:  repository.NewCheckInRepository(),
		delegates: repository.NewDelegateRepository(),
		finance:   repository.NewFinanceRepository(),
	}
}

// Dashboard aggregates an event's attendance and finances.
//
// districtFilter narrows every figure to one district (normalized comparison);
// blank means organization-wide. Attendance numbers are authoritative or the
// call fails; financial totals degrade softly — on a finance query failure the
// total reads 0 and Warnings says so, because a registrar mid-event needs the
// headcount even when the money view is down.
//
// Parameters:
//   - ctx: Request context; bounded internally by the persistence timeout
//   - eventID: Event scope
//   - districtFilter: Optional district narrowing, "" = all districts
//
// Returns:
//   - *models.DashboardStats: Derived figures, never persisted
//   - error: Infrastructure failure on an attendance or delegate scan
func (s *StatsService) Dashboard(ctx context.Context, eventID int, districtFilter string) (*models.DashboardStats, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	stats := &models.DashboardStats{
		CheckInsByRank:     make(map[string]int),
		CheckInsByDistrict: make(map[string]int),
	}

	if err := s.aggregateAttendance(ctx, eventID, districtFilter, stats); err != nil {
		return nil, err
	}

	total, err := s.countDelegates(ctx, districtFilter)
	if err != nil {
		return nil, err
	}
	stats.TotalDelegates = total

	s.attachFinancials(ctx, eventID, districtFilter, stats)

	return stats, nil
}

// aggregateAttendance pages through the raw check-in rows (newest first) and
// folds them into unique-identity counts. The first occurrence of an identity
// is its most recent check-in, which feeds the recent-activity list.
func (s *StatsService) aggregateAttendance(ctx context.Context, eventID int, districtFilter string, stats *models.DashboardStats) error {
	seen := make(map[string]bool)

	for page := 0; page < statsMaxPages; page++ {
		rows, err := s.checkIns.ListEventPage(ctx, eventID, statsPageSize, page*statsPageSize)
		if err != nil {
			return infraErr("dashboard: scan check-ins", err)
		}

		for _, row := range rows {
			if districtFilter != "" && !normalize.Equal(districtFilter, row.District) {
				continue
			}

			key := normalize.AttendanceKey(row.FirstName, row.LastName, row.District, row.Rank)
			if seen[key] {
				continue
			}
			seen[key] = true

			stats.TotalCheckIns++
			stats.CheckInsByRank[normalize.Normalize(row.Rank)]++
			stats.CheckInsByDistrict[normalize.Normalize(row.District)]++

			if len(stats.RecentActivity) < recentActivityLimit {
				stats.RecentActivity = append(stats.RecentActivity, models.RecentCheckIn{
					DelegateName: normalize.Normalize(row.FirstName + " " + row.LastName),
					District:     row.District,
					Rank:         row.Rank,
					CheckedInAt:  row.CheckIn.CheckedInAt,
				})
			}
		}

		if len(rows) < statsPageSize {
			return nil
		}
	}

	return nil
}

// countDelegates resolves the pool-size denominator. Unfiltered uses a plain
// COUNT; a district filter requires normalized comparison the database cannot
// do reliably against free-text districts, so it pages and counts here.
func (s *StatsService) countDelegates(ctx context.Context, districtFilter string) (int, error) {
	if districtFilter == "" {
		count, err := s.delegates.CountAll(ctx)
		if err != nil {
			return 0, infraErr("dashboard: count delegates", err)
		}
		return count, nil
	}

	count := 0
	for page := 0; page < statsMaxPages; page++ {
		batch, err := s.delegates.ListPage(ctx, statsPageSize, page*statsPageSize)
		if err != nil {
			return 0, infraErr("dashboard: scan delegates", err)
		}
		for _, d := range batch {
			if normalize.Equal(districtFilter, d.District) {
				count++
			}
		}
		if len(batch) < statsPageSize {
			break
		}
	}
	return count, nil
}

// attachFinancials fills TotalFinancials, degrading to zero with a warning on
// failure instead of taking the dashboard down.
func (s *StatsService) attachFinancials(ctx context.Context, eventID int, districtFilter string, stats *models.DashboardStats) {
	var (
		total float64
		err   error
	)
	if districtFilter == "" {
		total, err = s.finance.SumForEvent(ctx, eventID)
	} else {
		total, err = s.finance.SumForEventByDistrict(ctx, eventID, districtFilter)
	}

	if err != nil {
		log.Printf("⚠️ Dashboard financial total unavailable for event %d: %v", eventID, err)
		stats.TotalFinancials = 0
		stats.Warnings = append(stats.Warnings, "Financial totals are temporarily unavailable")
		return
	}
	stats.TotalFinancials = total
}
