package events

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLogPublisherFormatsAlertEvent(t *testing.T) {
	t.Parallel()

	var lines []string
	publisher := &LogPublisher{Logf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}

	err := publisher.Publish(context.Background(), Event{
		Type:         TypeAlertCreated,
		AlertID:      "a-1",
		AlertCode:    "XSA",
		PrisonNumber: "A1234AA",
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "a-1") || !strings.Contains(lines[0], "XSA") {
		t.Fatalf("unexpected log line %q", lines[0])
	}
}

func TestLogPublisherHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	publisher := &LogPublisher{Logf: func(string, ...any) { t.Fatal("should not log") }}
	if err := publisher.Publish(ctx, Event{Type: TypeAlertCreated}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestCapturePublisherRecordsAndCounts(t *testing.T) {
	t.Parallel()

	publisher := &CapturePublisher{}
	for i := 0; i < 3; i++ {
		if err := publisher.Publish(context.Background(), Event{Type: TypeAlertCreated}); err != nil {
			t.Fatalf("publish created: %v", err)
		}
	}
	if err := publisher.Publish(context.Background(), Event{Type: TypePersonAlertsChanged, PrisonNumber: "A1234AA"}); err != nil {
		t.Fatalf("publish changed: %v", err)
	}

	if got := publisher.CountByType(TypeAlertCreated); got != 3 {
		t.Fatalf("created count = %d, want 3", got)
	}
	if got := publisher.CountByType(TypePersonAlertsChanged); got != 1 {
		t.Fatalf("changed count = %d, want 1", got)
	}
	if got := len(publisher.Events()); got != 4 {
		t.Fatalf("events = %d, want 4", got)
	}

	publisher.Reset()
	if got := len(publisher.Events()); got != 0 {
		t.Fatalf("events after reset = %d, want 0", got)
	}
}
