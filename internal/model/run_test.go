package model

import (
	"testing"
	"time"
)

func TestNewRunID(t *testing.T) {
	t.Parallel()

	t.Run("format is sortable timestamp", func(t *testing.T) {
		t.Parallel()

		id := NewRunID(time.Date(2026, 3, 9, 14, 5, 2, 0, time.Local))
		if id != "2026-03-09_140502" {
			t.Errorf("NewRunID = %q, want 2026-03-09_140502", id)
		}
	})

	t.Run("lexicographic order matches chronological order", func(t *testing.T) {
		t.Parallel()

		earlier := NewRunID(time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local))
		later := NewRunID(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local))
		if !(earlier < later) {
			t.Errorf("expected %q < %q", earlier, later)
		}
	})
}

func TestRunSnapshotKeySet(t *testing.T) {
	t.Parallel()

	snap := &RunSnapshot{
		RunID: "2026-03-09_140502",
		Issues: []Issue{
			{Site: "s", ErrorURL: "a", FoundOn: "p", Error: "404"},
			{Site: "s", ErrorURL: "a", FoundOn: "p", Error: "404"}, // duplicate
			{Site: "s", ErrorURL: "b", FoundOn: "p", Error: "500"},
		},
	}

	set := snap.KeySet()
	if len(set) != 2 {
		t.Errorf("KeySet size = %d, want 2 (duplicates collapse)", len(set))
	}
}
