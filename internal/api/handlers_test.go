package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/quality-monitor/internal/aggregate"
	"github.com/ignite/quality-monitor/internal/alert"
	"github.com/ignite/quality-monitor/internal/config"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/notifier"
	"github.com/ignite/quality-monitor/internal/pkg/distlock"
	"github.com/ignite/quality-monitor/internal/repository/memory"
	"github.com/ignite/quality-monitor/internal/scheduler"
	"github.com/ignite/quality-monitor/internal/service/history"
	"github.com/ignite/quality-monitor/internal/service/trend"
	"github.com/ignite/quality-monitor/internal/snapshot"
)

// gateProvider delays snapshots until released, for exercising the
// run-in-progress conflict paths.
type gateProvider struct {
	inner expectation.Provider
	mu    sync.Mutex
	gate  chan struct{}
}

func (p *gateProvider) Snapshot(ctx context.Context, dataset string) (expectation.Snapshot, error) {
	p.mu.Lock()
	gate := p.gate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.inner.Snapshot(ctx, dataset)
}

func (p *gateProvider) hold() chan struct{} {
	gate := make(chan struct{})
	p.mu.Lock()
	p.gate = gate
	p.mu.Unlock()
	return gate
}

type testAPI struct {
	srv   *httptest.Server
	sched *scheduler.Scheduler
	prov  *gateProvider
}

func newTestAPI(t *testing.T, pipeline string) *testAPI {
	t.Helper()

	suites := []config.SuiteConfig{
		{Dataset: "users", Expectations: []config.ExpectationConfig{
			{Type: "column_exists", Column: "id"},
			{Type: "not_null", Column: "email"},
		}},
		{Dataset: "products", Expectations: []config.ExpectationConfig{
			{Type: "column_exists", Column: "sku"},
			{Type: "unique", Column: "sku"},
		}},
	}
	reg, err := expectation.NewRegistry(suites)
	require.NoError(t, err)

	prov := &gateProvider{inner: snapshot.NewStaticProvider()}
	audit := memory.NewAuditRepo()
	renderer, err := alert.NewMessageRenderer()
	require.NoError(t, err)
	disp := alert.NewDispatcher(notifier.LogNotifier{}, audit, renderer, alert.Policy{}, 1)

	trends := trend.NewService(memory.NewTrendRepo())
	hist := history.NewService(memory.NewHistoryRepo(), 0)

	sched := scheduler.New(reg, prov, aggregate.New(aggregate.DefaultThresholds),
		trends, hist, disp,
		func(key string, ttl time.Duration) distlock.DistLock {
			return distlock.NewLocalLock(key)
		},
		scheduler.Options{PipelineName: pipeline, Interval: time.Hour})
	require.NoError(t, sched.Start())
	t.Cleanup(sched.Stop)

	h := NewHandlers(sched, trends, hist, audit, reg)
	srv := httptest.NewServer(SetupRoutes(h))
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, sched: sched, prov: prov}
}

func (a *testAPI) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(a.srv.URL + path)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return resp, body
}

func (a *testAPI) post(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Post(a.srv.URL+path, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (a *testAPI) waitRunDone(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		st := a.sched.Status()
		return st.RunsCompleted >= 1 && !st.RunActive
	}, 5*time.Second, 5*time.Millisecond)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, "api-health")
	resp, body := a.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "api-health", body["pipeline"])
}

func TestListDatasets(t *testing.T) {
	a := newTestAPI(t, "api-datasets")
	resp, body := a.get(t, "/api/datasets")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	datasets := body["datasets"].([]any)
	require.Len(t, datasets, 2)
	first := datasets[0].(map[string]any)
	assert.Equal(t, "users", first["dataset"])
	assert.EqualValues(t, 2, first["expectations"])
}

func TestTriggerAndReadResults(t *testing.T) {
	a := newTestAPI(t, "api-trigger")

	resp := a.post(t, "/api/pipeline/trigger")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	a.waitRunDone(t)

	resp, body := a.get(t, "/api/datasets/products/latest")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "products", body["dataset"])
	assert.Equal(t, 100.0, body["success_rate"])
	assert.Equal(t, "success", body["status"])

	// users sample data has null emails, so not_null fails: 1/2 = 50%.
	resp, body = a.get(t, "/api/datasets/users/latest")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "critical", body["status"])
	assert.Equal(t, 50.0, body["success_rate"])

	resp, body = a.get(t, "/api/history")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "failed", entry["overall_status"])

	resp, body = a.get(t, "/api/trends")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	series := body["series"].(map[string]any)
	assert.Len(t, series, 2)

	resp, body = a.get(t, "/api/alerts/audit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	records := body["records"].([]any)
	require.Len(t, records, 1, "critical outcome produces one audited alert")
}

func TestTriggerConflict(t *testing.T) {
	a := newTestAPI(t, "api-conflict")
	gate := a.prov.hold()
	defer close(gate)

	resp := a.post(t, "/api/pipeline/trigger")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		return a.sched.Status().RunActive
	}, time.Second, time.Millisecond)

	resp = a.post(t, "/api/pipeline/trigger")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCancelEndpoints(t *testing.T) {
	a := newTestAPI(t, "api-cancel")

	resp := a.post(t, "/api/pipeline/cancel")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	gate := a.prov.hold()
	resp = a.post(t, "/api/pipeline/trigger")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		return a.sched.Status().RunActive
	}, time.Second, time.Millisecond)

	resp = a.post(t, "/api/pipeline/cancel")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	close(gate)

	require.Eventually(t, func() bool {
		return a.sched.Status().RunsCancelled == 1
	}, 5*time.Second, 5*time.Millisecond)
}

func TestLatestOutcomeUnknownDataset(t *testing.T) {
	a := newTestAPI(t, "api-unknown")
	resp, _ := a.get(t, "/api/datasets/ghost/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadDateRange(t *testing.T) {
	a := newTestAPI(t, "api-bad-range")
	resp, _ := a.get(t, "/api/history?from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.get(t, "/api/trends?from=2024-02-01&to=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditLimitValidation(t *testing.T) {
	a := newTestAPI(t, "api-audit-limit")
	resp, _ := a.get(t, "/api/alerts/audit?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.get(t, "/api/alerts/audit?limit=9999")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPipelineStatus(t *testing.T) {
	a := newTestAPI(t, "api-status")
	resp, body := a.get(t, "/api/pipeline/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "api-status", body["pipeline_name"])
	assert.Equal(t, true, body["scheduler_running"])
	assert.Equal(t, false, body["run_active"])
}
