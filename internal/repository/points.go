package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type PointsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPointsRepository(sqlDB *sql.DB, logger zerolog.Logger) *PointsRepository {
	return &PointsRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// ImportBatch commits one import as a single transaction: every roster
// member is upserted, then the (family, date) snapshot is deleted and
// rewritten from rows. Readers see either the old snapshot or the new one,
// never a mix. An empty rows slice wipes the snapshot.
func (r *PointsRepository) ImportBatch(ctx context.Context, family string, date time.Time, members []domain.Member, rows []domain.WeeklyPoints) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range members {
		if err := upsertMember(ctx, tx, &members[i]); err != nil {
			return err
		}
	}

	if err := replaceSnapshot(ctx, tx, family, date, rows); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceSnapshot atomically swaps the stored (family, date) snapshot for
// rows, without touching members.
func (r *PointsRepository) ReplaceSnapshot(ctx context.Context, family string, date time.Time, rows []domain.WeeklyPoints) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceSnapshot(ctx, tx, family, date, rows); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceSnapshot(ctx context.Context, tx *sql.Tx, family string, date time.Time, rows []domain.WeeklyPoints) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM weekly_points WHERE family = ? AND snapshot_date = ?",
		family, formatDate(date))
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO weekly_points (family, snapshot_date, player_id, gexp_points, imported_at)
			 VALUES (?, ?, ?, ?, ?)`,
			family, formatDate(date), row.PlayerID, row.GexpPoints, row.ImportedAt)
		if err != nil {
			return fmt.Errorf("failed to insert points for player %d: %w", row.PlayerID, err)
		}
	}
	return nil
}

// ListSnapshotDates returns the sorted distinct snapshot dates of a family
// within [from, to] inclusive. This is the time axis for history queries.
func (r *PointsRepository) ListSnapshotDates(ctx context.Context, family string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT snapshot_date FROM weekly_points
		 WHERE family = ? AND snapshot_date BETWEEN ? AND ?
		 ORDER BY snapshot_date`,
		family, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	return scanDates(rows)
}

// AllSnapshotDates returns every ingested date of a family, ascending.
func (r *PointsRepository) AllSnapshotDates(ctx context.Context, family string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT snapshot_date FROM weekly_points WHERE family = ? ORDER BY snapshot_date",
		family)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	return scanDates(rows)
}

func (r *PointsRepository) ListPoints(ctx context.Context, family string, from, to time.Time) ([]domain.WeeklyPoints, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT family, snapshot_date, player_id, gexp_points, imported_at
		 FROM weekly_points
		 WHERE family = ? AND snapshot_date BETWEEN ? AND ?`,
		family, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

func (r *PointsRepository) ListPlayerPoints(ctx context.Context, family string, playerID int64, from, to time.Time) ([]domain.WeeklyPoints, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT family, snapshot_date, player_id, gexp_points, imported_at
		 FROM weekly_points
		 WHERE family = ? AND player_id = ? AND snapshot_date BETWEEN ? AND ?`,
		family, playerID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list player points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// LatestSnapshotDate returns the most recent ingested date of a family; ok
// is false when the family has no snapshots at all.
func (r *PointsRepository) LatestSnapshotDate(ctx context.Context, family string) (time.Time, bool, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(snapshot_date) FROM weekly_points WHERE family = ?", family).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest snapshot date: %w", err)
	}

	date, err := parseDate(raw.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return date, true, nil
}

// ListLatest joins the most recent snapshot of a family with member
// attributes, ordered by points descending. Empty when nothing was ever
// ingested.
func (r *PointsRepository) ListLatest(ctx context.Context, family string) ([]domain.LeaderboardEntry, error) {
	date, ok, err := r.LatestSnapshotDate(ctx, family)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT m.player_id, m.nickname, m.level, m.class_id,
		        w.gexp_points, w.snapshot_date, w.imported_at
		 FROM weekly_points w
		 JOIN members m ON m.player_id = w.player_id
		 WHERE w.family = ? AND w.snapshot_date = ?
		 ORDER BY w.gexp_points DESC`,
		family, formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list latest snapshot: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var (
			e   domain.LeaderboardEntry
			raw string
		)
		if err := rows.Scan(&e.PlayerID, &e.Nickname, &e.Level, &e.ClassID, &e.GexpPoints, &raw, &e.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if e.SnapshotDate, err = parseDate(raw); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanDates(rows *sql.Rows) ([]time.Time, error) {
	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func scanPoints(rows *sql.Rows) ([]domain.WeeklyPoints, error) {
	var points []domain.WeeklyPoints
	for rows.Next() {
		var (
			p   domain.WeeklyPoints
			raw string
		)
		if err := rows.Scan(&p.Family, &raw, &p.PlayerID, &p.GexpPoints, &p.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan points row: %w", err)
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		p.SnapshotDate = date
		points = append(points, p)
	}
	return points, rows.Err()
}

// Snapshot dates are stored and exchanged as YYYY-MM-DD text.
func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed snapshot date %q: %w", s, err)
	}
	return t, nil
}
