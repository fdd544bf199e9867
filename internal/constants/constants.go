package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// RosterFieldCount is the arity of one gmbr record; records with any
	// other arity are skipped.
	RosterFieldCount = 10
	PointsFieldCount = 2
)

const (
	NicknameMaxLength = 64

	// MonthlyLookback is the window behind the last snapshot used to pick
	// the monthly delta reference (nearest prior snapshot at or before it).
	MonthlyLookback = 30 * 24 * time.Hour
)
