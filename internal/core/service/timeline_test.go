package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

func TestMessageTimelineAppendRequiresActiveStatus(t *testing.T) {
	tl := newMessageTimeline()
	msg := domain.Message{Seq: 1, Text: "hi", Timestamp: time.Unix(1, 0)}

	for _, status := range []domain.CallStatus{domain.StatusIdle, domain.StatusEnded} {
		if err := tl.Append(status, msg); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("Append while %s: err=%v, want ErrInvalidState", status, err)
		}
	}
	if tl.Len() != 0 {
		t.Fatalf("rejected appends must not be stored")
	}
}

func TestMessageTimelineKeepsOrder(t *testing.T) {
	tl := newMessageTimeline()
	base := time.Unix(100, 0)

	in := []domain.Message{
		{Seq: 2, Text: "b", Timestamp: base},
		{Seq: 1, Text: "a", Timestamp: base},
		{Seq: 3, Text: "c", Timestamp: base.Add(time.Second)},
		{Seq: 4, Text: "z", Timestamp: base.Add(-time.Second)},
	}
	for _, m := range in {
		if err := tl.Append(domain.StatusInCall, m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got := tl.Snapshot()
	want := []string{"z", "a", "b", "c"}
	for i, m := range got {
		if m.Text != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, m.Text, want[i])
		}
	}
}

func TestMessageTimelineSnapshotIsCopy(t *testing.T) {
	tl := newMessageTimeline()
	_ = tl.Append(domain.StatusInCall, domain.Message{Seq: 1, Text: "a"})

	snap := tl.Snapshot()
	snap[0].Text = "mutated"
	_ = tl.Append(domain.StatusInCall, domain.Message{Seq: 2, Text: "b"})

	if tl.Snapshot()[0].Text != "a" {
		t.Fatalf("snapshot mutation leaked into the timeline")
	}
	if len(snap) != 1 {
		t.Fatalf("snapshot should not see later appends")
	}

	tl.Clear()
	if tl.Len() != 0 {
		t.Fatalf("Clear left %d messages", tl.Len())
	}
}
