package service

import (
	"context"
	"fmt"
	"time"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type HistoryService struct {
	points  *repository.PointsRepository
	members *repository.MemberRepository
	logger  zerolog.Logger
}

func NewHistoryService(points *repository.PointsRepository, members *repository.MemberRepository, logger zerolog.Logger) *HistoryService {
	return &HistoryService{
		points:  points,
		members: members,
		logger:  logger,
	}
}

// FamilyHistory builds the gap-filled point series and deltas for every
// member of a family over [from, to]. The time axis is the set of dates
// actually ingested in that range, not a calendar grid.
func (s *HistoryService) FamilyHistory(ctx context.Context, family string, from, to time.Time) (*domain.FamilyHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	dates, err := s.points.ListSnapshotDates(ctx, family, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build history: %w", err)
	}

	members, err := s.members.ListByFamily(ctx, family)
	if err != nil {
		return nil, fmt.Errorf("failed to build history: %w", err)
	}

	rows, err := s.points.ListPoints(ctx, family, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build history: %w", err)
	}

	byPlayer := make(map[int64]map[time.Time]int64)
	for _, row := range rows {
		if byPlayer[row.PlayerID] == nil {
			byPlayer[row.PlayerID] = make(map[time.Time]int64)
		}
		byPlayer[row.PlayerID][row.SnapshotDate] = row.GexpPoints
	}

	history := &domain.FamilyHistory{Dates: dates}
	for _, m := range members {
		stored := byPlayer[m.PlayerID]
		history.Players = append(history.Players, domain.PlayerSeries{
			Member: m,
			Points: fillSeries(dates, stored),
			Stats:  computeStats(dates, stored),
		})
	}

	s.logger.Debug().
		Str("family", family).
		Int("dates", len(dates)).
		Int("players", len(history.Players)).
		Msg("family history built")

	return history, nil
}

// PlayerHistory is the single-player variant, resolving the member by
// case-insensitive nickname. domain.ErrPlayerNotFound when no member
// matches; a member with no points in range yields an empty series instead.
func (s *HistoryService) PlayerHistory(ctx context.Context, family, nickname string, from, to time.Time) (*domain.PlayerHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	member, err := s.members.FindByNickname(ctx, family, nickname)
	if err != nil {
		return nil, err
	}

	dates, err := s.points.ListSnapshotDates(ctx, family, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build player history: %w", err)
	}

	rows, err := s.points.ListPlayerPoints(ctx, family, member.PlayerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build player history: %w", err)
	}

	stored := make(map[time.Time]int64, len(rows))
	for _, row := range rows {
		stored[row.SnapshotDate] = row.GexpPoints
	}

	return &domain.PlayerHistory{
		Member: *member,
		Dates:  dates,
		Series: fillSeries(dates, stored),
		Stats:  computeStats(dates, stored),
	}, nil
}

// fillSeries maps every date on the time axis to the stored value, or 0
// where the player has no row. The zero is deliberate: a missing snapshot
// shows as 0 cumulative points even though cumulative points cannot really
// regress, which also means deltas over a gap can go negative.
func fillSeries(dates []time.Time, stored map[time.Time]int64) map[time.Time]int64 {
	series := make(map[time.Time]int64, len(dates))
	for _, d := range dates {
		series[d] = stored[d]
	}
	return series
}

func computeStats(dates []time.Time, stored map[time.Time]int64) domain.PlayerStats {
	var stats domain.PlayerStats
	if len(dates) == 0 {
		return stats
	}

	last := dates[len(dates)-1]
	stats.LastValue = stored[last]

	period := stats.LastValue - stored[dates[0]]
	stats.PeriodDiff = &period

	if len(dates) >= 2 {
		weekly := stats.LastValue - stored[dates[len(dates)-2]]
		stats.WeeklyDiff = &weekly
	}

	if ref, ok := monthlyReference(dates, last); ok {
		monthly := stats.LastValue - stored[ref]
		stats.MonthlyDiff = &monthly
		stats.MonthlyRef = &ref
	}

	return stats
}

// monthlyReference picks the latest axis date at or before last minus the
// 30-day lookback. Nearest prior snapshot, not a calendar month and not
// interpolation.
func monthlyReference(dates []time.Time, last time.Time) (time.Time, bool) {
	target := last.Add(-constants.MonthlyLookback)
	for i := len(dates) - 1; i >= 0; i-- {
		if !dates[i].After(target) {
			return dates[i], true
		}
	}
	return time.Time{}, false
}
