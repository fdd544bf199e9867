package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type RosterService struct {
	members *repository.MemberRepository
	points  *repository.PointsRepository
	logger  zerolog.Logger
}

func NewRosterService(members *repository.MemberRepository, points *repository.PointsRepository, logger zerolog.Logger) *RosterService {
	return &RosterService{
		members: members,
		points:  points,
		logger:  logger,
	}
}

// Latest returns the leaderboard of the family's most recent snapshot,
// highest points first. Empty when nothing was ever ingested.
func (s *RosterService) Latest(ctx context.Context, family string) ([]domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.points.ListLatest(ctx, family)
}

func (s *RosterService) SnapshotDates(ctx context.Context, family string) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.points.AllSnapshotDates(ctx, family)
}

// Rename corrects a member's nickname out-of-band. The new nickname is
// trimmed, must be non-empty and at most 64 chars, and must not collide
// case-insensitively with another member of the family. On conflict nothing
// is mutated.
func (s *RosterService) Rename(ctx context.Context, family string, playerID int64, nickname string) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidNickname)
	}
	if len(nickname) > constants.NicknameMaxLength {
		return nil, fmt.Errorf("%w: longer than %d chars", domain.ErrInvalidNickname, constants.NicknameMaxLength)
	}

	if _, err := s.members.GetInFamily(ctx, family, playerID); err != nil {
		return nil, err
	}

	taken, err := s.members.NicknameTaken(ctx, family, nickname, playerID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrNicknameTaken
	}

	if err := s.members.Rename(ctx, family, playerID, nickname); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("family", family).
		Int64("player_id", playerID).
		Str("nickname", nickname).
		Msg("member renamed")

	return s.members.GetInFamily(ctx, family, playerID)
}
