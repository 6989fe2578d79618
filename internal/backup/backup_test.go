package backup

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// memBackend is an in-memory storage.Backend for tests.
type memBackend struct {
	mu      sync.Mutex
	data    []byte
	ok      bool
	rev     int64
	records []storage.ImportRecord
	nextID  int64
}

func (b *memBackend) Load(ctx context.Context) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ok {
		return nil, false, nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, true, nil
}

func (b *memBackend) Save(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.ok = true
	b.rev++
	return nil
}

func (b *memBackend) Revision(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rev, nil
}

func (b *memBackend) InsertImportRecord(ctx context.Context, rec storage.ImportRecord) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	rec.ID = b.nextID
	rec.CreatedAt = time.Now()
	b.records = append(b.records, rec)
	return rec.ID, nil
}

func (b *memBackend) QueryImportRecords(ctx context.Context, limit int) ([]storage.ImportRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []storage.ImportRecord
	for i := len(b.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, b.records[i])
	}
	return out, nil
}

func (b *memBackend) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *session.Manager, *memBackend) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	be := &memBackend{}
	mgr := session.NewManager(log, be)
	if err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(mgr.Close)
	svc := NewService(log, mgr, be, t.TempDir())
	return svc, mgr, be
}

// storeJSON builds a one-session store payload for import tests.
func storeJSON(t *testing.T) ([]byte, string) {
	t.Helper()
	sess := models.NewSession(models.TypePull, time.Now())
	sess.Completed = true
	st := &models.Store{Version: models.StoreVersion, Sessions: []models.Session{sess}}
	data, err := st.EncodePretty()
	if err != nil {
		t.Fatalf("EncodePretty: %v", err)
	}
	return data, sess.ID
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// TestDecompress checks payload sniffing for all three accepted shapes.
func TestDecompress(t *testing.T) {
	plain := []byte(`{"version":1,"sessions":[]}`)

	tests := []struct {
		name    string
		data    []byte
		want    []byte
		wantErr bool
	}{
		{name: "plain passthrough", data: plain, want: plain},
		{name: "gzip", data: gzipBytes(t, plain), want: plain},
		{name: "zip single file", data: zipBytes(t, map[string][]byte{"backup.json": plain}), want: plain},
		{name: "zip two files", data: zipBytes(t, map[string][]byte{"a.json": plain, "b.json": plain}), wantErr: true},
		{name: "truncated gzip", data: []byte{0x1f, 0x8b, 0x01}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decompress(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFileName checks the dated export name.
func TestFileName(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	if got, want := FileName(now), "liftlog-backup-2026-03-09.json"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

// TestExportCollisionSuffix checks that a second export on the same day gets
// a numeric suffix instead of clobbering the first.
func TestExportCollisionSuffix(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := filepath.Base(first); got != "liftlog-backup-2026-03-09.json" {
		t.Errorf("first export named %q", got)
	}

	second, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if got := filepath.Base(second); got != "liftlog-backup-2026-03-09-02.json" {
		t.Errorf("second export named %q", got)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("reading first export: %v", err)
	}
	if _, err := models.DecodeStore(data); err != nil {
		t.Errorf("export is not a valid store: %v", err)
	}
}

// TestImportGzip checks a compressed merge import end to end, including the
// audit record.
func TestImportGzip(t *testing.T) {
	svc, mgr, _ := newTestService(t)
	ctx := context.Background()

	payload, importedID := storeJSON(t)
	res, err := svc.Import(ctx, "phone.json.gz", gzipBytes(t, payload), session.ImportMerge)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Added != 1 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 1 added", res)
	}
	if _, ok := mgr.Get(importedID); !ok {
		t.Error("imported session not in store")
	}

	recs, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("history has %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Status != "success" || rec.SessionsAdded != 1 || rec.Source != "phone.json.gz" {
		t.Errorf("record = %+v", rec)
	}
}

// TestImportBadPayload checks that unparseable data fails the import,
// records the failure, and leaves the store alone.
func TestImportBadPayload(t *testing.T) {
	svc, mgr, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "broken.json", []byte(`{"version":`), session.ImportReplace); err == nil {
		t.Fatal("Import succeeded with truncated JSON")
	}
	if got := len(mgr.Sessions()); got != 0 {
		t.Errorf("store has %d sessions after failed import, want 0", got)
	}

	recs, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != "error" {
		t.Fatalf("history = %+v, want one error record", recs)
	}
	if recs[0].ErrorMessage == nil || *recs[0].ErrorMessage == "" {
		t.Error("error record has no message")
	}
}

// TestImportFile checks the disk path wrapper uses the base name as source.
func TestImportFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload, _ := storeJSON(t)
	path := filepath.Join(t.TempDir(), "liftlog-backup-2026-01-01.json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	res, err := svc.ImportFile(ctx, path, session.ImportReplace)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Source != "liftlog-backup-2026-01-01.json" {
		t.Errorf("source = %q", res.Source)
	}
}

// TestPrune checks that only the newest exports survive and foreign files
// are untouched.
func TestPrune(t *testing.T) {
	svc, _, _ := newTestService(t)

	base := time.Now().Add(-time.Hour)
	names := []string{
		"liftlog-backup-2026-01-01.json",
		"liftlog-backup-2026-01-02.json",
		"liftlog-backup-2026-01-03.json",
		"liftlog-backup-2026-01-04.json",
	}
	if err := os.MkdirAll(svc.dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for i, name := range names {
		path := filepath.Join(svc.dir, name)
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		mod := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}
	foreign := filepath.Join(svc.dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("writing foreign file: %v", err)
	}

	removed, err := svc.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	for _, name := range names[:2] {
		if _, err := os.Stat(filepath.Join(svc.dir, name)); err == nil {
			t.Errorf("%s survived pruning", name)
		}
	}
	for _, name := range names[2:] {
		if _, err := os.Stat(filepath.Join(svc.dir, name)); err != nil {
			t.Errorf("%s was pruned, want kept", name)
		}
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("foreign file was pruned")
	}
}
