package server

import (
	"time"

	"guild-tracker/internal/domain"
)

// Wire shapes of the public API. Dates serialize as YYYY-MM-DD strings,
// series as date-keyed maps.

type importResponse struct {
	Status          string `json:"status"`
	BatchID         string `json:"batch_id"`
	Family          string `json:"family"`
	SnapshotDate    string `json:"snapshot_date"`
	MembersUpserted int    `json:"members_upserted"`
	PointsInserted  int    `json:"points_inserted"`
	RosterSkipped   int    `json:"roster_skipped"`
	PointsSkipped   int    `json:"points_skipped"`
	UnknownDropped  int    `json:"unknown_dropped"`
}

type leaderboardEntryResponse struct {
	PlayerID     int64  `json:"player_id"`
	Nickname     string `json:"nickname"`
	Level        int    `json:"level"`
	ClassID      int    `json:"class_id"`
	GexpPoints   int64  `json:"gexp_points"`
	SnapshotDate string `json:"snapshot_date"`
	ImportedAt   string `json:"imported_at"`
}

type memberResponse struct {
	PlayerID int64  `json:"player_id"`
	Nickname string `json:"nickname"`
	Level    int    `json:"level"`
	ClassID  int    `json:"class_id"`
	Family   string `json:"family,omitempty"`
}

type playerStatsResponse struct {
	LastValue   int64   `json:"last_value"`
	PeriodDiff  *int64  `json:"period_diff"`
	WeeklyDiff  *int64  `json:"weekly_diff"`
	MonthlyDiff *int64  `json:"monthly_diff"`
	MonthlyRef  *string `json:"monthly_ref"`
}

type familyPlayerResponse struct {
	PlayerID    int64            `json:"player_id"`
	Nickname    string           `json:"nickname"`
	Level       int              `json:"level"`
	ClassID     int              `json:"class_id"`
	Points      map[string]int64 `json:"points"`
	LastValue   int64            `json:"last_value"`
	PeriodDiff  *int64           `json:"period_diff"`
	WeeklyDiff  *int64           `json:"weekly_diff"`
	MonthlyDiff *int64           `json:"monthly_diff"`
	MonthlyRef  *string          `json:"monthly_ref"`
}

type familyHistoryResponse struct {
	Dates   []string               `json:"dates"`
	Players []familyPlayerResponse `json:"players"`
}

type playerHistoryResponse struct {
	Player memberResponse      `json:"player"`
	Dates  []string            `json:"dates"`
	Series map[string]int64    `json:"series"`
	Stats  playerStatsResponse `json:"stats"`
}

func toImportResponse(s *domain.ImportSummary) importResponse {
	return importResponse{
		Status:          "imported",
		BatchID:         s.BatchID,
		Family:          s.Family,
		SnapshotDate:    s.SnapshotDate.Format(time.DateOnly),
		MembersUpserted: s.MembersUpserted,
		PointsInserted:  s.PointsInserted,
		RosterSkipped:   s.RosterSkipped,
		PointsSkipped:   s.PointsSkipped,
		UnknownDropped:  s.UnknownDropped,
	}
}

func toLeaderboardEntry(e domain.LeaderboardEntry) leaderboardEntryResponse {
	return leaderboardEntryResponse{
		PlayerID:     e.PlayerID,
		Nickname:     e.Nickname,
		Level:        e.Level,
		ClassID:      e.ClassID,
		GexpPoints:   e.GexpPoints,
		SnapshotDate: e.SnapshotDate.Format(time.DateOnly),
		ImportedAt:   e.ImportedAt.Format(time.RFC3339),
	}
}

func toFamilyHistoryResponse(h *domain.FamilyHistory) familyHistoryResponse {
	resp := familyHistoryResponse{
		Dates:   formatDates(h.Dates),
		Players: make([]familyPlayerResponse, 0, len(h.Players)),
	}

	for _, p := range h.Players {
		stats := toStatsResponse(p.Stats)
		resp.Players = append(resp.Players, familyPlayerResponse{
			PlayerID:    p.Member.PlayerID,
			Nickname:    p.Member.Nickname,
			Level:       p.Member.Level,
			ClassID:     p.Member.ClassID,
			Points:      formatSeries(p.Points),
			LastValue:   stats.LastValue,
			PeriodDiff:  stats.PeriodDiff,
			WeeklyDiff:  stats.WeeklyDiff,
			MonthlyDiff: stats.MonthlyDiff,
			MonthlyRef:  stats.MonthlyRef,
		})
	}
	return resp
}

func toPlayerHistoryResponse(h *domain.PlayerHistory) playerHistoryResponse {
	return playerHistoryResponse{
		Player: memberResponse{
			PlayerID: h.Member.PlayerID,
			Nickname: h.Member.Nickname,
			Level:    h.Member.Level,
			ClassID:  h.Member.ClassID,
		},
		Dates:  formatDates(h.Dates),
		Series: formatSeries(h.Series),
		Stats:  toStatsResponse(h.Stats),
	}
}

func toStatsResponse(s domain.PlayerStats) playerStatsResponse {
	resp := playerStatsResponse{
		LastValue:   s.LastValue,
		PeriodDiff:  s.PeriodDiff,
		WeeklyDiff:  s.WeeklyDiff,
		MonthlyDiff: s.MonthlyDiff,
	}
	if s.MonthlyRef != nil {
		ref := s.MonthlyRef.Format(time.DateOnly)
		resp.MonthlyRef = &ref
	}
	return resp
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

func formatSeries(series map[time.Time]int64) map[string]int64 {
	out := make(map[string]int64, len(series))
	for d, v := range series {
		out[d.Format(time.DateOnly)] = v
	}
	return out
}
