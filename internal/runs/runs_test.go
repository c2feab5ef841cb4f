package runs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/bcsdweb/linkpatrol/internal/model"
)

func testSnapshot(runID string) *model.RunSnapshot {
	return &model.RunSnapshot{
		RunID:          runID,
		GeneratedAt:    time.Date(2026, 3, 9, 3, 15, 2, 0, time.UTC),
		CheckerVersion: "LinkChecker 10.4.0",
		Issues: []model.Issue{
			{
				Site:     "https://www.bcsdk12.net/",
				ErrorURL: "https://www.bcsdk12.net/missing.pdf",
				FoundOn:  "https://www.bcsdk12.net/board/",
				Error:    "404 Not Found",
			},
		},
		ToolErrors: []string{},
	}
}

func TestStoreCreateLayout(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	run, err := store.Create("2026-03-09_031502")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(run.Dir(), "raw"),
		filepath.Join(run.Dir(), "sites"),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}

	t.Run("paths are inside the run directory", func(t *testing.T) {
		t.Parallel()

		if got := run.RawCSVPath("www.bcsdk12.net"); got != filepath.Join(run.Dir(), "raw", "www.bcsdk12.net.csv") {
			t.Errorf("unexpected raw path: %s", got)
		}
		if got := run.SiteReportPath("www.bcsdk12.net"); got != filepath.Join(run.Dir(), "sites", "www.bcsdk12.net.md") {
			t.Errorf("unexpected site report path: %s", got)
		}
		if got := run.SummaryPath(); got != filepath.Join(run.Dir(), "summary.md") {
			t.Errorf("unexpected summary path: %s", got)
		}
		if got := run.LogPath(); got != filepath.Join(run.Dir(), "run.log") {
			t.Errorf("unexpected log path: %s", got)
		}
	})
}

func TestSiteReportRel(t *testing.T) {
	t.Parallel()

	if got := SiteReportRel("central.bcsdk12.net"); got != "sites/central.bcsdk12.net.md" {
		t.Errorf("unexpected relative link: %s", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	run, err := store.Create("2026-03-09_031502")
	if err != nil {
		t.Fatal(err)
	}

	snap := testSnapshot(run.ID)
	if err := run.WriteSnapshot(snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaded, err := run.ReadSnapshot()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(snap, loaded) {
		t.Errorf("round trip mismatch:\nwrote %+v\nread  %+v", snap, loaded)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	t.Run("missing root is empty", func(t *testing.T) {
		t.Parallel()

		store := NewStore(filepath.Join(t.TempDir(), "never-created"))
		ids, err := store.List()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("expected no runs, got %v", ids)
		}
	})

	t.Run("returns sorted directory names", func(t *testing.T) {
		t.Parallel()

		store := NewStore(t.TempDir())
		for _, id := range []string{"2026-03-10_031500", "2026-03-08_031500", "2026-03-09_031500"} {
			if _, err := store.Create(id); err != nil {
				t.Fatal(err)
			}
		}
		// A stray file must not show up as a run.
		if err := os.WriteFile(filepath.Join(store.Root(), "notes.txt"), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}

		ids, err := store.List()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"2026-03-08_031500", "2026-03-09_031500", "2026-03-10_031500"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("got %v, want %v", ids, want)
		}
	})
}

func TestLoadPrevious(t *testing.T) {
	t.Parallel()

	t.Run("no other runs yields nil", func(t *testing.T) {
		t.Parallel()

		store := NewStore(t.TempDir())
		if _, err := store.Create("2026-03-09_031500"); err != nil {
			t.Fatal(err)
		}

		snap, err := store.LoadPrevious("2026-03-09_031500")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot, got %+v", snap)
		}
	})

	t.Run("latest other run is the baseline", func(t *testing.T) {
		t.Parallel()

		store := NewStore(t.TempDir())
		for _, id := range []string{"2026-03-07_031500", "2026-03-08_031500"} {
			run, err := store.Create(id)
			if err != nil {
				t.Fatal(err)
			}
			if err := run.WriteSnapshot(testSnapshot(id)); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := store.Create("2026-03-09_031500"); err != nil {
			t.Fatal(err)
		}

		snap, err := store.LoadPrevious("2026-03-09_031500")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap == nil || snap.RunID != "2026-03-08_031500" {
			t.Errorf("expected baseline 2026-03-08_031500, got %+v", snap)
		}
	})

	t.Run("previous run without snapshot yields nil", func(t *testing.T) {
		t.Parallel()

		store := NewStore(t.TempDir())
		if _, err := store.Create("2026-03-08_031500"); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Create("2026-03-09_031500"); err != nil {
			t.Fatal(err)
		}

		snap, err := store.LoadPrevious("2026-03-09_031500")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil for snapshot-less previous run, got %+v", snap)
		}
	})

	t.Run("corrupt snapshot returns error", func(t *testing.T) {
		t.Parallel()

		store := NewStore(t.TempDir())
		prev, err := store.Create("2026-03-08_031500")
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(prev.IssuesJSONPath(), []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Create("2026-03-09_031500"); err != nil {
			t.Fatal(err)
		}

		if _, err := store.LoadPrevious("2026-03-09_031500"); err == nil {
			t.Error("expected error for corrupt snapshot")
		}
	})
}
