package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crowd-monitor/internal/domain"
)

type memArchive struct {
	objects map[string][]byte
}

func (m *memArchive) List() ([]string, error) {
	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *memArchive) Read(path string) ([]byte, error) {
	raw, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", path)
	}
	return raw, nil
}

type memRepo struct {
	locations map[string]int64
	readings  map[string]bool // location_id + timestamp
	ledger    map[string]bool
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		locations: map[string]int64{},
		readings:  map[string]bool{},
		ledger:    map[string]bool{},
	}
}

func (m *memRepo) InitSchema(context.Context) error { return nil }

func (m *memRepo) GetOrCreateLocation(_ context.Context, placeID string, _ domain.LocationInfo) (int64, error) {
	if id, ok := m.locations[placeID]; ok {
		return id, nil
	}
	m.nextID++
	m.locations[placeID] = m.nextID
	return m.nextID, nil
}

func (m *memRepo) InsertReading(_ context.Context, locationID int64, reading domain.Reading, _ string) (bool, error) {
	key := fmt.Sprintf("%d/%s", locationID, reading.Timestamp.Format(time.RFC3339))
	if m.readings[key] {
		return false, nil
	}
	m.readings[key] = true
	return true, nil
}

func (m *memRepo) IsSynced(_ context.Context, path string) (bool, error) {
	return m.ledger[path], nil
}

func (m *memRepo) MarkSynced(_ context.Context, path string) error {
	m.ledger[path] = true
	return nil
}

func (m *memRepo) ReadingsCount(context.Context) (int, error) {
	return len(m.readings), nil
}

func archived(t *testing.T, ts time.Time, placeID string, popularity *int) []byte {
	t.Helper()
	raw, err := json.Marshal(domain.NewReading(ts, placeID, popularity, true))
	if err != nil {
		t.Fatalf("marshal reading: %v", err)
	}
	return raw
}

func intPtr(v int) *int { return &v }

func TestRunImportsOnce(t *testing.T) {
	ts := time.Date(2024, 1, 28, 14, 30, 0, 0, time.UTC)
	archive := &memArchive{objects: map[string][]byte{
		"readings/2024/01/28/14-30.json": archived(t, ts, "place-1", intPtr(45)),
	}}
	repo := newMemRepo()
	svc := NewService(archive, repo, nil, zerolog.Nop())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Found != 1 || report.New != 1 || report.Skipped != 0 || report.Errors != 0 {
		t.Fatalf("unexpected first report: %+v", report)
	}
	if report.Total != 1 {
		t.Fatalf("expected one stored reading, got %d", report.Total)
	}

	// A second pass over the same archive imports nothing.
	report, err = svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.New != 0 || report.Skipped != 1 {
		t.Fatalf("unexpected second report: %+v", report)
	}
}

func TestRunDeduplicatesByContent(t *testing.T) {
	// Two archive objects carrying the same (place, timestamp) reading.
	ts := time.Date(2024, 1, 28, 14, 30, 0, 0, time.UTC)
	archive := &memArchive{objects: map[string][]byte{
		"readings/a.json": archived(t, ts, "place-1", intPtr(45)),
		"readings/b.json": archived(t, ts, "place-1", intPtr(45)),
	}}
	repo := newMemRepo()
	svc := NewService(archive, repo, nil, zerolog.Nop())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One object is a real import, the other a duplicate by content.
	if report.New != 1 || report.Skipped != 1 || report.Errors != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Total != 1 {
		t.Fatalf("expected a single stored reading, got %d", report.Total)
	}
	// Both paths end up in the ledger either way.
	if !repo.ledger["readings/a.json"] || !repo.ledger["readings/b.json"] {
		t.Fatalf("expected both paths in the ledger: %v", repo.ledger)
	}
}

func TestRunCountsMalformedObjects(t *testing.T) {
	ts := time.Date(2024, 1, 28, 15, 0, 0, 0, time.UTC)
	archive := &memArchive{objects: map[string][]byte{
		"readings/bad.json":  []byte("not json"),
		"readings/anon.json": []byte(`{"timestamp":"2024-01-28T15:00:00Z"}`),
		"readings/good.json": archived(t, ts, "place-1", nil),
	}}
	repo := newMemRepo()
	svc := NewService(archive, repo, nil, zerolog.Nop())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Errors != 2 {
		t.Fatalf("expected two malformed objects, got %d", report.Errors)
	}
	if report.New != 1 {
		t.Fatalf("expected the valid object to be imported, got %+v", report)
	}
	// Malformed objects stay out of the ledger so a fixed archive can retry.
	if repo.ledger["readings/bad.json"] {
		t.Fatalf("malformed object must not be marked synced")
	}
}

func TestRunCreatesLocationsLazily(t *testing.T) {
	ts := time.Date(2024, 1, 28, 16, 0, 0, 0, time.UTC)
	archive := &memArchive{objects: map[string][]byte{
		"readings/a.json": archived(t, ts, "place-1", intPtr(10)),
		"readings/b.json": archived(t, ts, "place-2", intPtr(20)),
	}}
	repo := newMemRepo()
	locations := map[string]domain.LocationInfo{
		"place-1": {Name: "National Library", NameHe: "הספרייה הלאומית"},
	}
	svc := NewService(archive, repo, locations, zerolog.Nop())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.locations) != 2 {
		t.Fatalf("expected two locations, got %v", repo.locations)
	}
}

func TestStatusDoesNotImport(t *testing.T) {
	ts := time.Date(2024, 1, 28, 17, 0, 0, 0, time.UTC)
	archive := &memArchive{objects: map[string][]byte{
		"readings/a.json": archived(t, ts, "place-1", intPtr(10)),
	}}
	repo := newMemRepo()
	svc := NewService(archive, repo, nil, zerolog.Nop())

	report, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Found != 1 || report.Pending != 1 || report.Total != 0 {
		t.Fatalf("unexpected status report: %+v", report)
	}
	if len(repo.readings) != 0 {
		t.Fatalf("status must not import readings")
	}
}
