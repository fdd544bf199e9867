package repository

import (
	"path/filepath"
	"testing"
	"time"

	"guild-tracker/internal/config"
	"guild-tracker/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) (*MemberRepository, *PointsRepository) {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMemberRepository(db, zerolog.Nop()), NewPointsRepository(db, zerolog.Nop())
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}
