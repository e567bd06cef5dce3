package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/quality-monitor/internal/alert"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/pkg/httputil"
	"github.com/ignite/quality-monitor/internal/scheduler"
	"github.com/ignite/quality-monitor/internal/service/history"
	"github.com/ignite/quality-monitor/internal/service/trend"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 30
	maxAuditLimit    = 500
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	sched     *scheduler.Scheduler
	trends    *trend.Service
	hist      *history.Service
	audit     alert.AuditRepository
	registry  *expectation.Registry
	startTime time.Time
}

// NewHandlers wires the handler set.
func NewHandlers(
	sched *scheduler.Scheduler,
	trends *trend.Service,
	hist *history.Service,
	audit alert.AuditRepository,
	registry *expectation.Registry,
) *Handlers {
	return &Handlers{
		sched:     sched,
		trends:    trends,
		hist:      hist,
		audit:     audit,
		registry:  registry,
		startTime: time.Now(),
	}
}

// Health reports liveness and basic process info.
//
//	GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	st := h.sched.Status()
	httputil.OK(w, map[string]any{
		"status":    "healthy",
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"pipeline":  st.PipelineName,
		"scheduler": st.SchedulerRunning,
	})
}

// ListDatasets returns the configured datasets and their suite sizes.
//
//	GET /api/datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	type datasetInfo struct {
		Dataset      string `json:"dataset"`
		Expectations int    `json:"expectations"`
	}
	out := make([]datasetInfo, 0, h.registry.Len())
	for _, ds := range h.registry.Datasets() {
		suite, _ := h.registry.Suite(ds)
		out = append(out, datasetInfo{Dataset: ds, Expectations: len(suite.Expectations)})
	}
	httputil.OK(w, map[string]any{"datasets": out})
}

// LatestOutcome returns a dataset's most recent run outcome.
//
//	GET /api/datasets/{dataset}/latest
func (h *Handlers) LatestOutcome(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	out, err := h.hist.LatestOutcome(r.Context(), dataset)
	if errors.Is(err, history.ErrNotFound) {
		httputil.NotFound(w, fmt.Sprintf("no outcome recorded for dataset %q", dataset))
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, out)
}

// History returns run history entries in a date range, newest first.
//
//	GET /api/history?from=2024-01-01&to=2024-01-31
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	entries, err := h.hist.List(r.Context(), from, to)
	if errors.Is(err, history.ErrInvalidRange) {
		httputil.BadRequest(w, "from must not be after to")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"from":    from.Format(dateLayout),
		"to":      to.Format(dateLayout),
		"entries": entries,
	})
}

// Trends returns success-rate series per dataset.
//
//	GET /api/trends?dataset=users&from=2024-01-01&to=2024-01-31
func (h *Handlers) Trends(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		dataset = trend.AllDatasets
	}

	series, err := h.trends.Series(r.Context(), dataset, from, to)
	if errors.Is(err, trend.ErrInvalidRange) {
		httputil.BadRequest(w, "from must not be after to")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
		"series": series,
	})
}

// AlertAudit returns recent alert delivery records, newest first.
//
//	GET /api/alerts/audit?limit=50
func (h *Handlers) AlertAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAuditLimit {
			httputil.BadRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxAuditLimit))
			return
		}
		limit = n
	}
	records, err := h.audit.List(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if records == nil {
		records = []alert.DeliveryRecord{}
	}
	httputil.OK(w, map[string]any{"records": records})
}

// PipelineStatus reports the scheduler's counters and last run.
//
//	GET /api/pipeline/status
func (h *Handlers) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.sched.Status())
}

// TriggerRun starts a run immediately. Returns 409 while another run is
// active; conflicting triggers are rejected, not queued.
//
//	POST /api/pipeline/trigger
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	err := h.sched.TriggerRun()
	if errors.Is(err, scheduler.ErrRunInProgress) {
		httputil.Conflict(w, "a pipeline run is already in progress")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Accepted(w, map[string]string{"status": "run started"})
}

// CancelRun aborts the in-flight run.
//
//	POST /api/pipeline/cancel
func (h *Handlers) CancelRun(w http.ResponseWriter, r *http.Request) {
	err := h.sched.CancelRun()
	if errors.Is(err, scheduler.ErrNoActiveRun) {
		httputil.NotFound(w, "no active pipeline run")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Accepted(w, map[string]string{"status": "cancellation requested"})
}

// dateRange parses optional from/to query params, defaulting to the last
// defaultRangeDays days ending today (UTC).
func (h *Handlers) dateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	now := time.Now().UTC()
	to = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	from = to.AddDate(0, 0, -defaultRangeDays)

	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httputil.BadRequest(w, "to must be formatted YYYY-MM-DD")
			return from, to, false
		}
		to = t.Add(24*time.Hour - time.Second)
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httputil.BadRequest(w, "from must be formatted YYYY-MM-DD")
			return from, to, false
		}
		from = t
	}
	return from, to, true
}
