package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/metrics"
)

// Service imports archived readings into the relational store. Every
// archive object is imported at most once, tracked by the sync ledger.
type Service struct {
	archive   domain.ArchiveReader
	repo      domain.SyncRepo
	locations map[string]domain.LocationInfo
	log       zerolog.Logger
}

// NewService wires the archive importer.
func NewService(archive domain.ArchiveReader, repo domain.SyncRepo, locations map[string]domain.LocationInfo, logger zerolog.Logger) *Service {
	return &Service{archive: archive, repo: repo, locations: locations, log: logger}
}

// Run walks the archive and imports everything not yet in the ledger.
// Malformed objects are counted and skipped; they do not stop the pass.
func (s *Service) Run(ctx context.Context) (domain.SyncReport, error) {
	var report domain.SyncReport

	paths, err := s.archive.List()
	if err != nil {
		return report, fmt.Errorf("list archive: %w", err)
	}
	report.Found = len(paths)

	for _, path := range paths {
		synced, err := s.repo.IsSynced(ctx, path)
		if err != nil {
			return report, fmt.Errorf("check ledger for %s: %w", path, err)
		}
		if synced {
			report.Skipped++
			metrics.SyncedReadings.WithLabelValues("skipped").Inc()
			continue
		}

		inserted, err := s.importOne(ctx, path)
		if err != nil {
			report.Errors++
			metrics.SyncedReadings.WithLabelValues("error").Inc()
			s.log.Error().Err(err).Str("path", path).Msg("failed to import reading")
			continue
		}
		if !inserted {
			// The same (place, timestamp) arrived under another path.
			report.Skipped++
			metrics.SyncedReadings.WithLabelValues("skipped").Inc()
			continue
		}
		report.New++
		metrics.SyncedReadings.WithLabelValues("new").Inc()
	}

	total, err := s.repo.ReadingsCount(ctx)
	if err != nil {
		return report, fmt.Errorf("count readings: %w", err)
	}
	report.Total = total
	return report, nil
}

// importOne reads, parses and stores a single archive object, then marks
// it in the ledger so it is never visited again. It reports whether the
// reading was actually new or a duplicate by (location, timestamp).
func (s *Service) importOne(ctx context.Context, path string) (bool, error) {
	raw, err := s.archive.Read(path)
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	var reading domain.Reading
	if err := json.Unmarshal(raw, &reading); err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	if reading.PlaceID == "" {
		return false, fmt.Errorf("parse: missing place_id")
	}

	locID, err := s.repo.GetOrCreateLocation(ctx, reading.PlaceID, s.locations[reading.PlaceID])
	if err != nil {
		return false, err
	}

	inserted, err := s.repo.InsertReading(ctx, locID, reading, path)
	if err != nil {
		return false, err
	}
	return inserted, s.repo.MarkSynced(ctx, path)
}

// Status reports counts without importing anything.
func (s *Service) Status(ctx context.Context) (domain.SyncReport, error) {
	var report domain.SyncReport

	paths, err := s.archive.List()
	if err != nil {
		return report, fmt.Errorf("list archive: %w", err)
	}
	report.Found = len(paths)

	for _, path := range paths {
		synced, err := s.repo.IsSynced(ctx, path)
		if err != nil {
			return report, fmt.Errorf("check ledger for %s: %w", path, err)
		}
		if synced {
			report.Skipped++
		} else {
			report.Pending++
		}
	}

	total, err := s.repo.ReadingsCount(ctx)
	if err != nil {
		return report, fmt.Errorf("count readings: %w", err)
	}
	report.Total = total
	return report, nil
}
