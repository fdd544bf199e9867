package service

import (
	"path/filepath"
	"testing"
	"time"

	"guild-tracker/internal/config"
	"guild-tracker/internal/database"
	"guild-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	members *repository.MemberRepository
	points  *repository.PointsRepository
	imports *ImportService
	history *HistoryService
	roster  *RosterService
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	members := repository.NewMemberRepository(db, zerolog.Nop())
	points := repository.NewPointsRepository(db, zerolog.Nop())

	return &testDeps{
		members: members,
		points:  points,
		imports: NewImportService(points, nil, zerolog.Nop()),
		history: NewHistoryService(points, members, zerolog.Nop()),
		roster:  NewRosterService(members, points, zerolog.Nop()),
	}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func datePtr(t *testing.T, s string) *time.Time {
	d := date(t, s)
	return &d
}
