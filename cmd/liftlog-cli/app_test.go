package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/backup"
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

// newTestEnv wires a cliEnv to in-memory storage and a capture buffer. The
// seeded manager makes setup skip config loading and store opening, so the
// commands under test run against exactly this environment.
func newTestEnv(t *testing.T, be *memBackend, statePath string) (*cliEnv, *bytes.Buffer) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(log, be)
	if err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(mgr.Close)
	out := &bytes.Buffer{}
	return &cliEnv{
		log:     log,
		backend: be,
		manager: mgr,
		backup:  backup.NewService(log, mgr, be, t.TempDir()),
		state:   stateFile{path: statePath},
		out:     out,
	}, out
}

// run invokes one command the way a shell would, one fresh app per call,
// and returns captured stdout.
func run(t *testing.T, env *cliEnv, out *bytes.Buffer, args ...string) string {
	t.Helper()
	got, err := runErr(env, out, args...)
	if err != nil {
		t.Fatalf("liftlog %s: %v", strings.Join(args, " "), err)
	}
	return got
}

func runErr(env *cliEnv, out *bytes.Buffer, args ...string) (string, error) {
	out.Reset()
	app := newApp(env)
	err := app.Run(append([]string{"liftlog"}, args...))
	return out.String(), err
}

// TestCLIWorkflow drives a complete training day through the command tree:
// strength session with edits and undo, a murph, a run, then stats and a
// backup round trip.
func TestCLIWorkflow(t *testing.T) {
	be := &memBackend{}
	env, out := newTestEnv(t, be, filepath.Join(t.TempDir(), "cli-state.json"))

	// 1. Start a push session; the template fills it and the draft marker
	//    points at it.
	got := run(t, env, out, "start", "push")
	require.Contains(t, got, "push")
	require.Contains(t, got, "Bankdrücken")
	startedID := env.state.read().ActiveID
	require.NotEmpty(t, startedID)

	// 2. Log two working sets and an extra exercise.
	got = run(t, env, out, "set", "edit", "--weight", "80", "--reps", "5", "1", "1")
	require.Contains(t, got, "1) 80 kg x 5")
	got = run(t, env, out, "set", "edit", "--weight", "82,5", "--reps", "3", "1", "2")
	require.Contains(t, got, "2) 82.5 kg x 3")
	got = run(t, env, out, "exercise", "add", "--variation", "weighted", "Dips")
	require.Contains(t, got, "Dips (weighted)")

	// 3. Remove the second set, then restore it through the persisted undo.
	got = run(t, env, out, "set", "remove", "1", "2")
	require.Contains(t, got, "set undo")
	require.NotNil(t, env.state.read().Undo)
	got = run(t, env, out, "set", "undo")
	require.Contains(t, got, "82.5 kg x 3")
	require.Nil(t, env.state.read().Undo)

	// 4. Finish: totals appear and the draft marker clears.
	got = run(t, env, out, "finish")
	require.Contains(t, got, "done")
	require.Contains(t, got, "total 647.5 kg over 38 sets")
	require.Empty(t, env.state.read().ActiveID)

	// 5. Log a finished murph and a run, no live timer involved.
	got = run(t, env, out, "murph", "log", "--time", "45:10", "--rounds", "20")
	require.Contains(t, got, "20 rounds, 45:10")
	got = run(t, env, out, "run", "log", "5,2", "26:30")
	require.Contains(t, got, "run saved: 5.2 km in 26:30 (5:06 min/km)")

	// 6. The list shows all three and the stats add up.
	got = run(t, env, out, "list")
	require.Contains(t, got, "push")
	require.Contains(t, got, "murph")
	require.Contains(t, got, "run")
	got = run(t, env, out, "stats", "--days", "7")
	require.Contains(t, got, "sessions 3")
	require.Contains(t, got, "volume   647.5 kg")

	// 7. Export, drop the run, and merge it back from the backup file.
	path := strings.TrimSpace(run(t, env, out, "export"))
	require.FileExists(t, path)

	var runID string
	for _, s := range env.manager.Sessions() {
		if s.Type == models.TypeRun {
			runID = s.ID
		}
	}
	require.NotEmpty(t, runID)
	got = run(t, env, out, "delete", runID[:8])
	require.Contains(t, got, "deleted")

	got = run(t, env, out, "import", "--mode", "merge", path)
	require.Contains(t, got, "imported 1 sessions, skipped 2 (merge)")
	_, ok := env.manager.Get(runID)
	require.True(t, ok)

	// 8. The import log remembers the merge.
	got = run(t, env, out, "imports")
	require.Contains(t, got, "success")
	require.Contains(t, got, filepath.Base(path))
}

// TestDraftMarkerAcrossProcesses checks that a second invocation with a
// fresh manager picks the draft back up from the marker file, the way two
// consecutive shell commands share one open session.
func TestDraftMarkerAcrossProcesses(t *testing.T) {
	be := &memBackend{}
	statePath := filepath.Join(t.TempDir(), "cli-state.json")

	env1, out1 := newTestEnv(t, be, statePath)
	run(t, env1, out1, "start", "pull")
	id := env1.state.read().ActiveID
	require.NotEmpty(t, id)

	env2, out2 := newTestEnv(t, be, statePath)
	got := run(t, env2, out2, "set", "edit", "--weight", "60", "--reps", "8", "1", "1")
	require.Contains(t, got, "1) 60 kg x 8")

	sess, ok := env2.manager.Get(id)
	require.True(t, ok)
	require.NotNil(t, sess.Exercises[0].Sets[0].WeightKg)
	require.Equal(t, 60.0, *sess.Exercises[0].Sets[0].WeightKg)
}

// TestMurphLogAbsorbsMarkedDraft checks that logging a murph from a fresh
// process folds into the marked untimed draft instead of creating a second
// session.
func TestMurphLogAbsorbsMarkedDraft(t *testing.T) {
	be := &memBackend{}
	statePath := filepath.Join(t.TempDir(), "cli-state.json")

	env1, out1 := newTestEnv(t, be, statePath)
	run(t, env1, out1, "start", "murph")
	id := env1.state.read().ActiveID
	require.NotEmpty(t, id)

	env2, out2 := newTestEnv(t, be, statePath)
	got := run(t, env2, out2, "murph", "log", "--time", "45:10", "--rounds", "20")
	require.Contains(t, got, "done")

	sess, ok := env2.manager.Get(id)
	require.True(t, ok)
	require.True(t, sess.Completed)
	require.Equal(t, 20, sess.MurphData.Rounds)
	require.Empty(t, env2.state.read().ActiveID)
	require.Len(t, env2.manager.Sessions(), 1)
}

func TestResolveID(t *testing.T) {
	be := &memBackend{}
	env, _ := newTestEnv(t, be, filepath.Join(t.TempDir(), "cli-state.json"))
	ctx := context.Background()

	a := models.NewSession(models.TypePush, time.Now())
	a.ID = "abc11111-aaaa"
	a.Completed = true
	b := models.NewSession(models.TypePull, time.Now())
	b.ID = "abc22222-bbbb"
	b.Completed = true
	st := &models.Store{Version: models.StoreVersion, Sessions: []models.Session{a, b}}
	if _, _, err := env.manager.ImportStore(ctx, st, session.ImportReplace); err != nil {
		t.Fatalf("ImportStore: %v", err)
	}

	id, err := env.resolveID("abc1")
	if err != nil || id != a.ID {
		t.Errorf("resolveID(abc1) = %q, %v, want %q", id, err, a.ID)
	}
	if id, err := env.resolveID(b.ID); err != nil || id != b.ID {
		t.Errorf("resolveID(full) = %q, %v, want %q", id, err, b.ID)
	}
	if _, err := env.resolveID("abc"); err == nil || !strings.Contains(err.Error(), "matches 2 sessions") {
		t.Errorf("resolveID(abc) err = %v, want ambiguity", err)
	}
	if _, err := env.resolveID("zzz"); err == nil || !strings.Contains(err.Error(), "no session matches") {
		t.Errorf("resolveID(zzz) err = %v, want no match", err)
	}
	if _, err := env.resolveID(""); err == nil {
		t.Error("resolveID(\"\") should fail")
	}
}

func TestStartRejectsUnknownType(t *testing.T) {
	be := &memBackend{}
	env, out := newTestEnv(t, be, filepath.Join(t.TempDir(), "cli-state.json"))
	if _, err := runErr(env, out, "start", "yoga"); err == nil {
		t.Fatal("start yoga should fail")
	}
	if st := env.state.read(); st.ActiveID != "" {
		t.Errorf("state marker = %q, want empty", st.ActiveID)
	}
}

func TestMutationWithoutDraftFails(t *testing.T) {
	be := &memBackend{}
	env, out := newTestEnv(t, be, filepath.Join(t.TempDir(), "cli-state.json"))
	_, err := runErr(env, out, "set", "edit", "--weight", "80", "1", "1")
	if err == nil || !strings.Contains(err.Error(), "no open session") {
		t.Fatalf("err = %v, want no open session", err)
	}
}
