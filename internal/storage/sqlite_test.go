package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "liftlog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteLoadMissing verifies that a fresh database reports no stored
// payload rather than an error, so first launch starts from an empty store.
func TestSQLiteLoadMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	data, ok, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Errorf("Load on empty db: ok = true, want false")
	}
	if data != nil {
		t.Errorf("Load on empty db: data = %q, want nil", data)
	}

	rev, err := s.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if rev != 0 {
		t.Errorf("Revision on empty db = %d, want 0", rev)
	}
}

// TestSQLiteSaveLoadRoundTrip verifies that saved payloads come back intact
// and that each save bumps the revision counter.
func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []byte(`{"version":1,"sessions":[]}`)
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, ok, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load after Save: ok = false, want true")
	}
	if string(data) != string(first) {
		t.Errorf("Load = %q, want %q", data, first)
	}

	rev, err := s.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if rev != 1 {
		t.Errorf("Revision after first save = %d, want 1", rev)
	}

	second := []byte(`{"version":1,"sessions":[{"id":"abc"}]}`)
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	data, _, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load (second): %v", err)
	}
	if string(data) != string(second) {
		t.Errorf("Load after overwrite = %q, want %q", data, second)
	}

	rev, err = s.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision (second): %v", err)
	}
	if rev != 2 {
		t.Errorf("Revision after second save = %d, want 2", rev)
	}
}

// TestSQLiteImportLog verifies insert and newest-first retrieval of import
// records, including the nullable error message.
func TestSQLiteImportLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msg := "unexpected end of JSON input"
	records := []ImportRecord{
		{Source: "backup-2026-01-01.json", Mode: "replace", Status: "success", SessionsAdded: 12},
		{Source: "backup-2026-02-01.json", Mode: "merge", Status: "success", SessionsAdded: 3, SessionsSkipped: 9},
		{Source: "broken.json", Mode: "merge", Status: "error", ErrorMessage: &msg},
	}
	for _, rec := range records {
		id, err := s.InsertImportRecord(ctx, rec)
		if err != nil {
			t.Fatalf("InsertImportRecord(%q): %v", rec.Source, err)
		}
		if id <= 0 {
			t.Errorf("InsertImportRecord(%q) id = %d, want > 0", rec.Source, id)
		}
	}

	got, err := s.QueryImportRecords(ctx, 10)
	if err != nil {
		t.Fatalf("QueryImportRecords: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("QueryImportRecords returned %d records, want 3", len(got))
	}
	if got[0].Source != "broken.json" {
		t.Errorf("newest record source = %q, want %q", got[0].Source, "broken.json")
	}
	if got[0].ErrorMessage == nil || *got[0].ErrorMessage != msg {
		t.Errorf("newest record error = %v, want %q", got[0].ErrorMessage, msg)
	}
	if got[2].ErrorMessage != nil {
		t.Errorf("oldest record error = %q, want nil", *got[2].ErrorMessage)
	}
	if got[1].SessionsSkipped != 9 {
		t.Errorf("merge record skipped = %d, want 9", got[1].SessionsSkipped)
	}

	limited, err := s.QueryImportRecords(ctx, 2)
	if err != nil {
		t.Fatalf("QueryImportRecords (limit): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("QueryImportRecords(2) returned %d records, want 2", len(limited))
	}
}
