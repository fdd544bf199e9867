package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/parser"
	"guild-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ImportService struct {
	points *repository.PointsRepository
	client *api.ExportClient
	logger zerolog.Logger

	// one mutex per (family, snapshot date) so concurrent imports of the
	// same snapshot cannot interleave their delete+insert phases
	locks sync.Map
}

func NewImportService(points *repository.PointsRepository, client *api.ExportClient, logger zerolog.Logger) *ImportService {
	return &ImportService{
		points: points,
		client: client,
		logger: logger,
	}
}

// Import parses both payloads and commits the batch: roster members are
// fully upserted, then the (family, date) snapshot is replaced wholesale.
// Re-running the same import is idempotent; a later import for the same
// date reflects only the latest payload. Points rows referencing a player
// absent from this roster batch are dropped.
func (s *ImportService) Import(ctx context.Context, family, rosterPayload, pointsPayload string, snapshotDate *time.Time) (*domain.ImportSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	date := today()
	if snapshotDate != nil {
		date = *snapshotDate
	}

	unlock := s.lock(family, date)
	defer unlock()

	batchID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate batch id: %w", err)
	}

	members, rosterSkipped := parser.ParseRoster(family, rosterPayload)
	records, pointsSkipped := parser.ParsePoints(pointsPayload)

	known := make(map[int64]bool, len(members))
	for _, m := range members {
		known[m.PlayerID] = true
	}

	importedAt := time.Now().UTC()

	var (
		rows    []domain.WeeklyPoints
		dropped int
	)
	for _, rec := range records {
		if !known[rec.PlayerID] {
			dropped++
			continue
		}
		rows = append(rows, domain.WeeklyPoints{
			Family:       family,
			SnapshotDate: date,
			PlayerID:     rec.PlayerID,
			GexpPoints:   rec.Points,
			ImportedAt:   importedAt,
		})
	}

	if len(members) == 0 && len(rows) == 0 {
		// still proceeds: replacing with an empty batch wipes the
		// snapshot, which doubles as the recovery path for a bad import
		s.logger.Warn().
			Str("family", family).
			Str("batch_id", batchID).
			Time("snapshot_date", date).
			Msg("import carries no valid records, snapshot will be emptied")
	}

	if err := s.points.ImportBatch(ctx, family, date, members, rows); err != nil {
		s.logger.Error().Err(err).Str("family", family).Str("batch_id", batchID).Msg("import failed")
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	summary := &domain.ImportSummary{
		BatchID:         batchID,
		Family:          family,
		SnapshotDate:    date,
		MembersUpserted: len(members),
		PointsInserted:  len(rows),
		RosterSkipped:   rosterSkipped,
		PointsSkipped:   pointsSkipped,
		UnknownDropped:  dropped,
	}

	s.logger.Info().
		Str("family", family).
		Str("batch_id", batchID).
		Time("snapshot_date", date).
		Int("members", summary.MembersUpserted).
		Int("points", summary.PointsInserted).
		Int("roster_skipped", summary.RosterSkipped).
		Int("points_skipped", summary.PointsSkipped).
		Int("unknown_dropped", summary.UnknownDropped).
		Msg("import committed")

	return summary, nil
}

// ImportFromRemote fetches both exports from the configured game endpoint
// and runs the regular import path on them.
func (s *ImportService) ImportFromRemote(ctx context.Context, family string, snapshotDate *time.Time) (*domain.ImportSummary, error) {
	if s.client == nil || !s.client.Enabled() {
		return nil, api.ErrRemoteImportDisabled
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	var rosterPayload, pointsPayload string

	g, fetchCtx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		rosterPayload, err = s.client.FetchRoster(fetchCtx, family)
		return err
	})
	g.Go(func() error {
		var err error
		pointsPayload, err = s.client.FetchPoints(fetchCtx, family)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("family", family).Msg("failed to fetch exports")
		return nil, fmt.Errorf("failed to fetch exports: %w", err)
	}

	return s.Import(ctx, family, rosterPayload, pointsPayload, snapshotDate)
}

func (s *ImportService) lock(family string, date time.Time) func() {
	key := family + "|" + date.Format(time.DateOnly)
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
