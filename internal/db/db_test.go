package db

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "journal", "journal.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGetRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	run := &models.SyncRun{
		ID:         "run-1",
		Release:    "gnome-49",
		Language:   "sv",
		Source:     models.SourceRemote,
		Status:     models.RunDone,
		Total:      3,
		Fetched:    1,
		Skipped:    2,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Failures: []models.SyncFailure{
			{Module: "nautilus", Branch: "main", Error: "503"},
			{Module: "orphan", Branch: "main", Error: "module has no statistics resource"},
		},
	}
	if err := db.Record(ctx, run); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if !reflect.DeepEqual(got, run) {
		t.Errorf("GetRun() = %+v; want %+v", got, run)
	}
	if d := got.Duration(); d != 1500*time.Millisecond {
		t.Errorf("Duration() = %v; want 1.5s", d)
	}
}

func TestGetRunMissing(t *testing.T) {
	got, err := openTestDB(t).GetRun(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("GetRun(%q) = %+v, %v; want nil, nil", "nope", got, err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := &models.SyncRun{
			ID:         id,
			Release:    "gnome-49",
			Language:   "sv",
			Source:     models.SourceCache,
			Status:     models.RunDone,
			StartedAt:  start.Add(time.Duration(i) * time.Minute),
			FinishedAt: start.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Record(ctx, run); err != nil {
			t.Fatalf("Record(%q) failed: %v", id, err)
		}
	}

	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if want := []string{"c", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ListRuns(2) ids = %v; want %v", ids, want)
	}
}

func TestRecordDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	run := &models.SyncRun{ID: "dup", Release: "gnome-49", Language: "sv", Source: models.SourceCache, Status: models.RunDone}
	if err := db.Record(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(ctx, run); err == nil {
		t.Error("Record() accepted a duplicate run id")
	}
}
