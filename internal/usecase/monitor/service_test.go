package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crowd-monitor/internal/domain"
)

type fakeProvider struct {
	popularity *int
	err        error
	calls      int
}

func (f *fakeProvider) CurrentPopularity(_ context.Context, _ string) (*int, error) {
	f.calls++
	return f.popularity, f.err
}

type fakePublisher struct {
	messages []string
	err      error
}

func (f *fakePublisher) Publish(text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

type fakeArchive struct {
	readings []domain.Reading
	err      error
}

func (f *fakeArchive) SaveReading(r domain.Reading) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.readings = append(f.readings, r)
	return "readings/test.json", nil
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, now time.Time, provider *fakeProvider, publisher *fakePublisher, archive *fakeArchive) *Service {
	t.Helper()
	svc := NewService(domain.DefaultWeeklyHours(), provider, publisher, archive,
		time.UTC, "place-1", zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestRunCycleClosed(t *testing.T) {
	// 2024-01-27 is a Saturday.
	saturday := time.Date(2024, 1, 27, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{popularity: intPtr(80)}
	publisher := &fakePublisher{}
	archive := &fakeArchive{}

	res := newTestService(t, saturday, provider, publisher, archive).RunCycle(context.Background())

	if res.Open {
		t.Fatalf("expected a closed result on Saturday")
	}
	if provider.calls != 0 {
		t.Fatalf("closed cycle must not fetch popularity")
	}
	if len(archive.readings) != 0 {
		t.Fatalf("closed cycle must not archive readings")
	}
	if len(publisher.messages) != 1 || publisher.messages[0] != ClosedMessage {
		t.Fatalf("expected the closed message, got %q", publisher.messages)
	}
}

func TestRunCycleOpen(t *testing.T) {
	// 2024-01-22 is a Monday.
	monday := time.Date(2024, 1, 22, 14, 30, 0, 0, time.UTC)
	provider := &fakeProvider{popularity: intPtr(72)}
	publisher := &fakePublisher{}
	archive := &fakeArchive{}

	res := newTestService(t, monday, provider, publisher, archive).RunCycle(context.Background())

	if !res.Open {
		t.Fatalf("expected an open result")
	}
	if res.Popularity == nil || *res.Popularity != 72 {
		t.Fatalf("expected popularity 72, got %v", res.Popularity)
	}
	if res.Level != domain.LoadHigh {
		t.Fatalf("expected high load, got %v", res.Level)
	}
	if len(archive.readings) != 1 {
		t.Fatalf("expected one archived reading, got %d", len(archive.readings))
	}
	r := archive.readings[0]
	if r.PlaceID != "place-1" || !r.IsOpen || r.Popularity == nil || *r.Popularity != 72 {
		t.Fatalf("unexpected archived reading: %+v", r)
	}
	if r.DayOfWeek != 0 || r.Hour != 14 {
		t.Fatalf("unexpected reading time fields: day=%d hour=%d", r.DayOfWeek, r.Hour)
	}
	if len(publisher.messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(publisher.messages))
	}
	msg := publisher.messages[0]
	if !strings.Contains(msg, domain.LoadHigh.Label) || !strings.Contains(msg, "(72%)") {
		t.Fatalf("unexpected status message: %q", msg)
	}
	if !strings.Contains(msg, "14:30") {
		t.Fatalf("expected the update time in the message: %q", msg)
	}
}

func TestRunCycleFetchFailure(t *testing.T) {
	monday := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{err: errors.New("upstream down")}
	publisher := &fakePublisher{}
	archive := &fakeArchive{}

	res := newTestService(t, monday, provider, publisher, archive).RunCycle(context.Background())

	if !res.Open {
		t.Fatalf("expected an open result")
	}
	if res.Popularity != nil {
		t.Fatalf("expected no popularity after a fetch failure")
	}
	if res.Level != domain.LoadUnknown {
		t.Fatalf("expected unknown load, got %v", res.Level)
	}
	// The reading is still archived, with a null popularity.
	if len(archive.readings) != 1 || archive.readings[0].Popularity != nil {
		t.Fatalf("expected one null-popularity reading, got %+v", archive.readings)
	}
	if len(publisher.messages) != 1 || !strings.Contains(publisher.messages[0], domain.LoadUnknown.Emoji) {
		t.Fatalf("expected an unknown-status message, got %q", publisher.messages)
	}
}

func TestRunCyclePublishFailureDoesNotAbort(t *testing.T) {
	monday := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{popularity: intPtr(10)}
	publisher := &fakePublisher{err: errors.New("telegram unavailable")}
	archive := &fakeArchive{}

	res := newTestService(t, monday, provider, publisher, archive).RunCycle(context.Background())

	if !res.Open || res.Level != domain.LoadLow {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(archive.readings) != 1 {
		t.Fatalf("publish failure must not prevent archiving")
	}
}

func TestStatusMessageWithoutEstimate(t *testing.T) {
	msg := StatusMessage(domain.LoadUnknown, nil, time.Date(2024, 1, 22, 9, 5, 0, 0, time.UTC))
	if !strings.Contains(msg, "09:05") {
		t.Fatalf("expected last-attempt time in message: %q", msg)
	}
	if strings.Contains(msg, "%!") {
		t.Fatalf("formatting artifact in message: %q", msg)
	}
}
