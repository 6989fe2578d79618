package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
)

// newClientServer creates an httptest server that routes requests to handler
// functions keyed by path. Verifies the HTTP client sends correct paths and
// query params.
func newClientServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestClientSessions verifies the client sends type/completed/limit params
// and parses the session array response.
func TestClientSessions(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("type"); got != "murph" {
				t.Errorf("type=%q, want murph", got)
			}
			if got := q.Get("completed"); got != "true" {
				t.Errorf("completed=%q, want true", got)
			}
			if got := q.Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}

			writeTestJSON(t, w, []models.Session{
				models.NewSession(models.TypeMurph, time.Now()),
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	completed := true
	sessions, err := client.Sessions(context.Background(), models.TypeMurph, &completed, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Type != models.TypeMurph {
		t.Errorf("type=%q, want murph", sessions[0].Type)
	}
}

// TestClientTrainingStats verifies the client unwraps the windows envelope.
func TestClientTrainingStats(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("days"); got != "30" {
				t.Errorf("days=%q, want 30", got)
			}
			writeTestJSON(t, w, map[string]any{
				"windows": []stats.Summary{{WindowDays: 30, SessionCount: 12, VolumeKg: 5400}},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	summary, err := client.TrainingStats(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if summary.SessionCount != 12 {
		t.Errorf("session_count=%d, want 12", summary.SessionCount)
	}
	if summary.VolumeKg != 5400 {
		t.Errorf("volume_kg=%v, want 5400", summary.VolumeKg)
	}
}

// TestClientLastSetFound verifies last-set parsing on a hit.
func TestClientLastSetFound(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/last-set": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("exercise"); got != "Bankdrücken" {
				t.Errorf("exercise=%q, want Bankdrücken", got)
			}
			if got := q.Get("setIndex"); got != "1" {
				t.Errorf("setIndex=%q, want 1", got)
			}

			weight := 82.5
			reps := 3
			writeTestJSON(t, w, models.Set{ID: "s1", WeightKg: &weight, Reps: &reps})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	set, err := client.LastSet(context.Background(), models.TypePush, "Bankdrücken", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if set == nil {
		t.Fatal("expected a set")
	}
	if *set.WeightKg != 82.5 {
		t.Errorf("weight=%v, want 82.5", *set.WeightKg)
	}
}

// TestClientLastSetNoContent verifies a 204 maps to nil without error.
func TestClientLastSetNoContent(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/last-set": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	set, err := client.LastSet(context.Background(), models.TypePush, "Kreuzheben", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if set != nil {
		t.Errorf("expected nil set, got %+v", set)
	}
}

// TestClientAPIKeyHeader verifies the API key is sent as X-API-Key.
func TestClientAPIKeyHeader(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			writeTestJSON(t, w, []stats.ExerciseInfo{{Name: "Klimmzüge", Sessions: 4}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "secret")
	exercises, err := client.Exercises(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) != 1 {
		t.Fatalf("got %d exercises, want 1", len(exercises))
	}
}

// TestClientTemplates verifies catalog parsing.
func TestClientTemplates(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/templates": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, []TemplateGroup{
				{Type: models.TypePush},
				{Type: models.TypePull},
				{Type: models.TypeLegsCore},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	groups, err := client.Templates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
}

// TestClientServerError verifies the client returns an error on non-200
// responses.
func TestClientServerError(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/exercises": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"store unavailable"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	if _, err := client.Exercises(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

// TestClientProgression verifies progression query params and parsing.
func TestClientProgression(t *testing.T) {
	ts := newClientServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/progression": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("exercise"); got != "Schrägbankdrücken" {
				t.Errorf("exercise=%q, want Schrägbankdrücken", got)
			}
			if got := q.Get("days"); got != "90" {
				t.Errorf("days=%q, want 90", got)
			}
			writeTestJSON(t, w, []stats.ProgressionPoint{
				{Date: "2026-08-01", MaxWeight: 60},
				{Date: "2026-08-08", MaxWeight: 62.5},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	points, err := client.ExerciseProgression(context.Background(), "Schrägbankdrücken", 90)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[1].MaxWeight != 62.5 {
		t.Errorf("max_weight=%v, want 62.5", points[1].MaxWeight)
	}
}
