package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type MemberRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMemberRepository(sqlDB *sql.DB, logger zerolog.Logger) *MemberRepository {
	return &MemberRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const memberColumns = "player_id, account_id, nickname, level, class_id, family"

const upsertMemberQuery = `
INSERT INTO members (player_id, account_id, nickname, level, class_id, family)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id) DO UPDATE SET
    account_id = excluded.account_id,
    nickname = excluded.nickname,
    level = excluded.level,
    class_id = excluded.class_id,
    family = excluded.family`

// execer lets the member queries run on *sql.DB or inside a *sql.Tx, so the
// import transaction can reuse them.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertMember(ctx context.Context, ex execer, m *domain.Member) error {
	_, err := ex.ExecContext(ctx, upsertMemberQuery,
		m.PlayerID, m.AccountID, m.Nickname, m.Level, m.ClassID, m.Family)
	if err != nil {
		return fmt.Errorf("failed to upsert member %d: %w", m.PlayerID, err)
	}
	return nil
}

// Upsert fully replaces the member with the given player id, creating it if
// it does not exist. Ingestion never deletes members.
func (r *MemberRepository) Upsert(ctx context.Context, m *domain.Member) error {
	return upsertMember(ctx, r.db, m)
}

func (r *MemberRepository) Get(ctx context.Context, playerID int64) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE player_id = ?", playerID)

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", playerID, err)
	}
	return m, nil
}

func (r *MemberRepository) GetInFamily(ctx context.Context, family string, playerID int64) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE family = ? AND player_id = ?",
		family, playerID)

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d in family %s: %w", playerID, family, err)
	}
	return m, nil
}

// FindByNickname resolves a member by case-insensitive nickname within a
// family. Returns domain.ErrPlayerNotFound when nothing matches.
func (r *MemberRepository) FindByNickname(ctx context.Context, family, nickname string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE family = ? AND lower(nickname) = lower(?)",
		family, nickname)

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by nickname: %w", err)
	}
	return m, nil
}

func (r *MemberRepository) ListByFamily(ctx context.Context, family string) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE family = ? ORDER BY player_id", family)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of family %s: %w", family, err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.PlayerID, &m.AccountID, &m.Nickname, &m.Level, &m.ClassID, &m.Family); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// NicknameTaken reports whether another member of the family already holds
// the nickname, comparing case-insensitively.
func (r *MemberRepository) NicknameTaken(ctx context.Context, family, nickname string, excludePlayerID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM members
		    WHERE family = ? AND lower(nickname) = lower(?) AND player_id != ?
		)`,
		family, nickname, excludePlayerID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return taken, nil
}

func (r *MemberRepository) Rename(ctx context.Context, family string, playerID int64, nickname string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE members SET nickname = ? WHERE family = ? AND player_id = ?",
		nickname, family, playerID)
	if err != nil {
		return fmt.Errorf("failed to rename member %d: %w", playerID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rename member %d: %w", playerID, err)
	}
	if affected == 0 {
		return domain.ErrPlayerNotFound
	}

	r.logger.Debug().
		Int64("player_id", playerID).
		Str("family", family).
		Str("nickname", nickname).
		Msg("member renamed")
	return nil
}

func scanMember(row *sql.Row) (*domain.Member, error) {
	var m domain.Member
	if err := row.Scan(&m.PlayerID, &m.AccountID, &m.Nickname, &m.Level, &m.ClassID, &m.Family); err != nil {
		return nil, err
	}
	return &m, nil
}
