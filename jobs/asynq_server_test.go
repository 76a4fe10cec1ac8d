package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
)

type stubEnqueuer struct {
	trigger string
	err     error
}

func (s *stubEnqueuer) EnqueueRollupRefresh(ctx context.Context, trigger string) (*asynq.TaskInfo, error) {
	s.trigger = trigger
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(client RefreshEnqueuer) http.Handler {
	h := NewHandler(nil, client, nil)
	r := chi.NewRouter()
	r.Route("/jobs", func(sr chi.Router) {
		h.MountRoutes(sr)
	})
	return r
}

func TestRefreshEnqueuesManualTask(t *testing.T) {
	client := &stubEnqueuer{}
	router := newJobsRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/jobs/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if client.trigger != TriggerManual {
		t.Fatalf("expected manual trigger, got %q", client.trigger)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["task"] != "task-1" || resp["queue"] != QueueDefault {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestRefreshWithoutClient(t *testing.T) {
	router := newJobsRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHealthWithoutInspector(t *testing.T) {
	router := newJobsRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"queue":"default"`) {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}
}
