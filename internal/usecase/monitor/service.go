package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/metrics"
)

// Service runs one publish cycle: schedule check, popularity fetch,
// classification, archiving and the status publish.
type Service struct {
	hours     domain.WeeklyHours
	provider  domain.PopularityProvider
	publisher domain.StatusPublisher
	archive   domain.ReadingArchive
	loc       *time.Location
	placeID   string
	log       zerolog.Logger
	now       func() time.Time
}

// CycleResult is what one cycle observed; it backs the /status endpoint.
type CycleResult struct {
	CheckedAt  time.Time        `json:"checked_at"`
	Open       bool             `json:"open"`
	Popularity *int             `json:"popularity"`
	Level      domain.LoadLevel `json:"level"`
}

// NewService wires a publish-cycle service.
func NewService(hours domain.WeeklyHours, provider domain.PopularityProvider, publisher domain.StatusPublisher, archive domain.ReadingArchive, loc *time.Location, placeID string, logger zerolog.Logger) *Service {
	return &Service{
		hours:     hours,
		provider:  provider,
		publisher: publisher,
		archive:   archive,
		loc:       loc,
		placeID:   placeID,
		log:       logger,
		now:       time.Now,
	}
}

// RunCycle performs one check-and-publish pass. Fetch, archive and publish
// failures degrade the cycle but never abort it.
func (s *Service) RunCycle(ctx context.Context) CycleResult {
	now := s.now().In(s.loc)
	cycleLog := s.log.With().Str("cycle_id", uuid.NewString()).Logger()

	if !s.hours.IsOpenAt(now) {
		metrics.CyclesTotal.WithLabelValues("closed").Inc()
		cycleLog.Info().Msg("institution is closed, publishing closed status")
		if err := s.publisher.Publish(ClosedMessage); err != nil {
			metrics.PublishFailures.Inc()
			cycleLog.Error().Err(err).Msg("failed to publish closed status")
		}
		return CycleResult{CheckedAt: now, Open: false, Level: domain.LoadUnknown}
	}
	metrics.CyclesTotal.WithLabelValues("open").Inc()

	popularity, err := s.provider.CurrentPopularity(ctx, s.placeID)
	if err != nil {
		metrics.FetchFailures.Inc()
		cycleLog.Error().Err(err).Msg("popularity fetch failed, degrading to unknown")
		popularity = nil
	}
	level := domain.ClassifyLoad(popularity)

	reading := domain.NewReading(now, s.placeID, popularity, true)
	if path, err := s.archive.SaveReading(reading); err != nil {
		metrics.ArchiveWriteFailures.Inc()
		cycleLog.Error().Err(err).Msg("failed to archive reading")
	} else {
		cycleLog.Debug().Str("path", path).Msg("reading archived")
	}

	if err := s.publisher.Publish(StatusMessage(level, popularity, now)); err != nil {
		metrics.PublishFailures.Inc()
		cycleLog.Error().Err(err).Msg("failed to publish status")
	} else {
		cycleLog.Info().Str("level", level.Label).Msg("status published")
	}

	return CycleResult{CheckedAt: now, Open: true, Popularity: popularity, Level: level}
}
