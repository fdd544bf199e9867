package domain

import (
	"time"
)

type Member struct {
	PlayerID  int64
	AccountID int64
	Nickname  string
	Level     int
	ClassID   int
	Family    string
}

// WeeklyPoints is one snapshot fact: the cumulative points a player held
// on a snapshot date within a family. Exactly one row exists per
// (family, snapshot date, player).
type WeeklyPoints struct {
	Family       string
	SnapshotDate time.Time
	PlayerID     int64
	GexpPoints   int64
	ImportedAt   time.Time
}

// PointsRecord is a decoded line of the gexp export, before it is matched
// against the roster batch being imported alongside it.
type PointsRecord struct {
	PlayerID int64
	Points   int64
}

type ImportSummary struct {
	BatchID         string // nanoid
	Family          string
	SnapshotDate    time.Time
	MembersUpserted int
	PointsInserted  int
	RosterSkipped   int
	PointsSkipped   int
	UnknownDropped  int
}

// PlayerStats holds the deltas derived from a player's series. A nil delta
// means the reference date it needs does not exist in the queried range.
type PlayerStats struct {
	LastValue   int64
	PeriodDiff  *int64
	WeeklyDiff  *int64
	MonthlyDiff *int64
	MonthlyRef  *time.Time
}

type PlayerSeries struct {
	Member Member
	Points map[time.Time]int64
	Stats  PlayerStats
}

type FamilyHistory struct {
	Dates   []time.Time
	Players []PlayerSeries
}

type PlayerHistory struct {
	Member Member
	Dates  []time.Time
	Series map[time.Time]int64
	Stats  PlayerStats
}

type LeaderboardEntry struct {
	PlayerID     int64
	Nickname     string
	Level        int
	ClassID      int
	GexpPoints   int64
	SnapshotDate time.Time
	ImportedAt   time.Time
}
