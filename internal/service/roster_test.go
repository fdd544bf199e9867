package service

import (
	"context"
	"testing"
	"time"

	"guild-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestLeaderboard(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	_, err := deps.imports.Import(ctx, "pandora", rosterTwo, "gexp 101|500 202|900", datePtr(t, "2024-01-01"))
	require.NoError(t, err)
	_, err = deps.imports.Import(ctx, "pandora", rosterTwo, "gexp 101|650 202|950", datePtr(t, "2024-01-08"))
	require.NoError(t, err)

	entries, err := deps.roster.Latest(ctx, "pandora")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// latest snapshot only, highest points first
	assert.Equal(t, int64(202), entries[0].PlayerID)
	assert.Equal(t, int64(950), entries[0].GexpPoints)
	assert.Equal(t, date(t, "2024-01-08"), entries[0].SnapshotDate)
}

func TestLatestEmptyFamily(t *testing.T) {
	deps := newTestDeps(t)

	entries, err := deps.roster.Latest(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshotDates(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-08", "2024-01-01"} {
		_, err := deps.imports.Import(ctx, "pandora", rosterTwo, pointsTwo, datePtr(t, d))
		require.NoError(t, err)
	}

	dates, err := deps.roster.SnapshotDates(ctx, "pandora")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(t, "2024-01-01"), date(t, "2024-01-08")}, dates)
}

func TestRename(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	_, err := deps.imports.Import(ctx, "pandora", rosterTwo, pointsTwo, datePtr(t, "2024-01-01"))
	require.NoError(t, err)

	member, err := deps.roster.Rename(ctx, "pandora", 101, "  Fresh  ")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", member.Nickname)
}

func TestRenameConflictMutatesNothing(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	_, err := deps.imports.Import(ctx, "pandora", rosterTwo, pointsTwo, datePtr(t, "2024-01-01"))
	require.NoError(t, err)

	// Bar's nickname, case-folded, is already taken in the family
	_, err = deps.roster.Rename(ctx, "pandora", 101, "bAr")
	assert.ErrorIs(t, err, domain.ErrNicknameTaken)

	m, err := deps.members.Get(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.Nickname)
	m, err = deps.members.Get(ctx, 202)
	require.NoError(t, err)
	assert.Equal(t, "Bar", m.Nickname)
}

func TestRenameValidation(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	_, err := deps.imports.Import(ctx, "pandora", rosterTwo, pointsTwo, datePtr(t, "2024-01-01"))
	require.NoError(t, err)

	_, err = deps.roster.Rename(ctx, "pandora", 101, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidNickname)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	_, err = deps.roster.Rename(ctx, "pandora", 101, string(long))
	assert.ErrorIs(t, err, domain.ErrInvalidNickname)

	_, err = deps.roster.Rename(ctx, "pandora", 999, "Fresh")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	// wrong family is not found either
	_, err = deps.roster.Rename(ctx, "abyss", 101, "Fresh")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}
