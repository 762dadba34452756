package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/auditstore"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/metrics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/session"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	records []syncer.Record
}

func (d *recordingDispatcher) Dispatch(rec syncer.Record) *syncer.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, rec)
	return nil
}

func (d *recordingDispatcher) Lookup(string) (*syncer.Task, bool) { return nil, false }

type fakeAudits map[string]auditstore.Audit

func (f fakeAudits) Get(_ context.Context, id string) (auditstore.Audit, error) {
	a, ok := f[id]
	if !ok {
		return auditstore.Audit{}, auditstore.ErrNotFound
	}
	return a, nil
}

func (f fakeAudits) ListBySession(_ context.Context, sessionID string, limit int) ([]auditstore.Audit, error) {
	var out []auditstore.Audit
	for _, a := range f {
		if a.SessionID == sessionID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAudits) CountByBottleneck(context.Context) (map[diagnostic.BottleneckType]int, error) {
	out := map[diagnostic.BottleneckType]int{}
	for _, a := range f {
		out[a.Verdict.Bottleneck]++
	}
	return out, nil
}

type testEnv struct {
	handler  http.Handler
	dispatch *recordingDispatcher
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T, audits AuditReader) testEnv {
	t.Helper()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	n := 0
	d := &recordingDispatcher{}
	m := metrics.New()
	h := NewServer(Deps{
		Sessions: session.NewMemoryStore(),
		Audits:   audits,
		Sync:     d,
		Metrics:  m,
		Clock:    func() time.Time { return now },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	return testEnv{handler: h, dispatch: d, metrics: m}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var blob []byte
	switch b := body.(type) {
	case string:
		blob = []byte(b)
	default:
		var err error
		blob, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rr)
	if ok, _ := body["ok"].(bool); ok {
		t.Fatalf("expected error envelope, got %s", rr.Body.String())
	}
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := get(t, env.handler, "/v1/health")
	if rr.Code != 200 {
		t.Fatalf("unexpected status: got=%d want=200", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestAuditReturnsVerdictAndSchedulesSync(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/audit", map[string]any{
		"metrics":    map[string]any{"total_outreach": 0},
		"goals":      map[string]any{"revenue_goal": 10000, "price_per_client": 1000, "max_clients": 10, "close_rate": 70},
		"session_id": "s-9",
	})
	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		VerdictID string             `json:"verdict_id"`
		Verdict   diagnostic.Verdict `json:"verdict"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.VerdictID != "id-1" || resp.Verdict.Bottleneck != diagnostic.BottleneckVolumeOutreach {
		t.Fatalf("unexpected verdict: id=%s bottleneck=%s", resp.VerdictID, resp.Verdict.Bottleneck)
	}
	if len(env.dispatch.records) != 1 {
		t.Fatalf("unexpected dispatched records: %d", len(env.dispatch.records))
	}
	rec := env.dispatch.records[0]
	if rec.Kind != syncer.KindVerdict || rec.VerdictID != "id-1" || rec.SessionID != "s-9" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestAuditRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/audit", map[string]any{"metrics": map[string]any{"total_outreach": -1}})
	if rr.Code != 400 || errorCode(t, rr) != CodeValidation {
		t.Fatalf("expected validation error, got %d %s", rr.Code, rr.Body.String())
	}
	rr = postJSON(t, env.handler, "/v1/audit", "{not json")
	if rr.Code != 400 || errorCode(t, rr) != CodeValidation {
		t.Fatalf("expected json error, got %d %s", rr.Code, rr.Body.String())
	}
	if len(env.dispatch.records) != 0 {
		t.Fatal("rejected audits must not be synced")
	}
}

func TestModel(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/model", map[string]any{"revenue_goal": 20000, "current_revenue": 5000, "price_per_client": 2500, "max_clients": 10})
	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp struct {
		Model diagnostic.ModelPlayOut `json:"model"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Model.Gap != 15000 || resp.Model.ClientsNeededAtCurrentPrice != 6 {
		t.Fatalf("unexpected model: %+v", resp.Model)
	}
}

func TestEscalate(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/prescriptions/escalate", map[string]any{"bottleneck": "volume_outreach", "skip_count": 1})
	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp struct {
		Prescription diagnostic.Prescription `json:"prescription"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Prescription.Quantity != 25 {
		t.Fatalf("unexpected quantity: got=%d want=25", resp.Prescription.Quantity)
	}
	rr = postJSON(t, env.handler, "/v1/prescriptions/escalate", map[string]any{"bottleneck": "vibes"})
	if rr.Code != 400 {
		t.Fatalf("expected 400 for unknown bottleneck, got %d", rr.Code)
	}
}

func TestPlanWithNarrative(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/plan", map[string]any{
		"bottleneck":      "skill_sales",
		"soft_bottleneck": "belief",
		"metrics":         map[string]any{"leads": 40, "sales_calls": 2, "price_per_client": 2500, "close_rate": 50},
		"narrate":         true,
	})
	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if note, _ := body["narrative"].(string); note == "" {
		t.Fatal("expected narrative")
	}
	var resp struct {
		Plan diagnostic.GeneratedPlan `json:"plan"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Plan.Days) != 3 || resp.Plan.MissingCalls != 4 {
		t.Fatalf("unexpected plan: days=%d missing=%d", len(resp.Plan.Days), resp.Plan.MissingCalls)
	}
}

func TestPlanUnknownSoftBottleneck(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/plan", map[string]any{"bottleneck": "price", "soft_bottleneck": "mood"})
	if rr.Code != 400 || errorCode(t, rr) != CodeValidation {
		t.Fatalf("expected validation error, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestCACAndUnitEconomics(t *testing.T) {
	env := newTestEnv(t, nil)
	c := map[string]any{"amount": 100, "source": "user_provided"}
	inputs := map[string]any{"mode": "per_customer", "ad_spend": c, "content_cost": c, "sales_commission": c, "salary_allocation": c, "tools_cost": c}

	rr := postJSON(t, env.handler, "/v1/cac", map[string]any{"inputs": inputs, "price": 1000, "margin_pct": 50})
	if rr.Code != 200 {
		t.Fatalf("unexpected cac status: %d body=%s", rr.Code, rr.Body.String())
	}
	cac := decodeBody(t, rr)["cac"].(map[string]any)
	if cac["total_cac_per_customer"].(float64) != 500 {
		t.Fatalf("unexpected cac: %v", cac)
	}

	rr = postJSON(t, env.handler, "/v1/unit-economics", map[string]any{"inputs": inputs, "price": 1000, "margin_pct": 50, "retention_months": 12, "retention_source": "user_provided"})
	if rr.Code != 200 {
		t.Fatalf("unexpected unit economics status: %d body=%s", rr.Code, rr.Body.String())
	}
	if _, ok := decodeBody(t, rr)["unit_economics"].(map[string]any); !ok {
		t.Fatal("expected unit_economics in response")
	}

	rr = postJSON(t, env.handler, "/v1/cac", map[string]any{"inputs": map[string]any{"mode": "yearly"}, "price": 1000})
	if rr.Code != 400 {
		t.Fatalf("expected 400 for bad mode, got %d", rr.Code)
	}
}

func TestOffersEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/offers/score", map[string]any{
		"offers": []map[string]any{
			{"id": "a", "name": "Program", "price": 10000},
			{"id": "b", "name": "Audit", "price": 500},
		},
		"context": map[string]any{"revenue_gap": 20000, "constraint": "lead_flow"},
	})
	if rr.Code != 200 {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}
	scored := decodeBody(t, rr)["offers"].([]any)
	if len(scored) != 2 {
		t.Fatalf("unexpected scored offers: %d", len(scored))
	}
	first := scored[0].(map[string]any)["offer"].(map[string]any)
	if first["id"] != "a" {
		t.Fatalf("expected high-leverage offer first, got %v", first["id"])
	}

	rr = postJSON(t, env.handler, "/v1/offers/score", map[string]any{"offers": []any{}})
	if rr.Code != 400 {
		t.Fatalf("expected 400 for empty offers, got %d", rr.Code)
	}

	rr = postJSON(t, env.handler, "/v1/offers/constraint", map[string]any{"survey": map[string]any{"primary": "too_busy_to_deliver"}})
	if got := decodeBody(t, rr)["constraint"]; got != "delivery_capacity" {
		t.Fatalf("unexpected constraint: got=%v want=delivery_capacity", got)
	}
}

func TestSessionFlowSchedulesVerdictAndPlan(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := postJSON(t, env.handler, "/v1/sessions", map[string]any{"id": "s-1"})
	if rr.Code != 201 {
		t.Fatalf("unexpected create status: %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := postJSON(t, env.handler, "/v1/sessions", map[string]any{"id": "s-1"}); rr.Code != 409 {
		t.Fatalf("expected conflict on duplicate session, got %d", rr.Code)
	}

	cmds := []map[string]any{
		{"type": "update_metrics", "metrics": map[string]any{"total_outreach": 200, "total_responses": 40, "sales_calls": 2, "clients_closed": 1}},
		{"type": "update_goals", "goals": map[string]any{"revenue_goal": 20000, "current_revenue": 5000, "price_per_client": 2500, "max_clients": 10, "close_rate": 50}},
		{"type": "submit_audit"},
		{"type": "skip_prescription"},
		{"type": "attach_soft_bottleneck", "soft_bottleneck": "time"},
	}
	for _, cmd := range cmds {
		rr := postJSON(t, env.handler, "/v1/sessions/s-1/commands", cmd)
		if rr.Code != 200 {
			t.Fatalf("command %v failed: %d %s", cmd["type"], rr.Code, rr.Body.String())
		}
	}

	rr = get(t, env.handler, "/v1/sessions/s-1")
	var resp struct {
		Session session.State `json:"session"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	st := resp.Session
	if st.Version != int64(len(cmds)) || st.Screen != session.ScreenPlan || st.Plan == nil || st.SkipCount != 1 {
		t.Fatalf("unexpected session: version=%d screen=%s skip=%d", st.Version, st.Screen, st.SkipCount)
	}

	if len(env.dispatch.records) != 2 {
		t.Fatalf("unexpected dispatched records: %d", len(env.dispatch.records))
	}
	v, p := env.dispatch.records[0], env.dispatch.records[1]
	if v.Kind != syncer.KindVerdict || p.Kind != syncer.KindPlan || v.VerdictID != p.VerdictID || v.VerdictID != st.VerdictID {
		t.Fatalf("unexpected records: %+v / %+v", v, p)
	}
}

func TestSessionCommandErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	if rr := postJSON(t, env.handler, "/v1/sessions/missing/commands", map[string]any{"type": "reset"}); rr.Code != 404 {
		t.Fatalf("expected 404 for missing session, got %d", rr.Code)
	}
	postJSON(t, env.handler, "/v1/sessions", map[string]any{"id": "s-2"})

	if rr := postJSON(t, env.handler, "/v1/sessions/s-2/commands", map[string]any{}); rr.Code != 400 {
		t.Fatalf("expected 400 without command type, got %d", rr.Code)
	}
	if rr := postJSON(t, env.handler, "/v1/sessions/s-2/commands", map[string]any{"type": "attach_soft_bottleneck", "soft_bottleneck": "time"}); rr.Code != 400 {
		t.Fatalf("expected 400 without verdict, got %d", rr.Code)
	}
	rr := postJSON(t, env.handler, "/v1/sessions/s-2/commands", map[string]any{"type": "set_screen", "screen": "goals", "expected_version": 7})
	if rr.Code != 409 || errorCode(t, rr) != CodeConflict {
		t.Fatalf("expected version conflict, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestAuditReport(t *testing.T) {
	v := diagnostic.BuildVerdict(diagnostic.AuditMetrics{TotalOutreach: 60}, diagnostic.GoalData{})
	plan, err := diagnostic.GeneratePlan(v.Bottleneck, diagnostic.SoftAttention, diagnostic.PlanMetricsFromVerdict(v))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	audits := fakeAudits{"v-1": {VerdictID: "v-1", Verdict: v, Plan: &plan, CompletedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}}
	env := newTestEnv(t, audits)

	rr := get(t, env.handler, "/v1/audits/v-1")
	if rr.Code != 200 {
		t.Fatalf("unexpected audit status: %d", rr.Code)
	}

	rr = get(t, env.handler, "/v1/audits/v-1/report?format=md")
	if rr.Code != 200 || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("unexpected md report: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "# Bottleneck Audit") || !strings.Contains(rr.Body.String(), "## Coach's Note") {
		t.Fatalf("unexpected report body:\n%s", rr.Body.String())
	}

	rr = get(t, env.handler, "/v1/audits/v-1/report?format=html")
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "<!doctype html>") {
		t.Fatalf("unexpected html report: %d", rr.Code)
	}

	if rr := get(t, env.handler, "/v1/audits/v-1/report?format=pdf"); rr.Code != 503 {
		t.Fatalf("expected 503 without pdf renderer, got %d", rr.Code)
	}
	if rr := get(t, env.handler, "/v1/audits/v-1/report?format=docx"); rr.Code != 400 {
		t.Fatalf("expected 400 for bad format, got %d", rr.Code)
	}
	if rr := get(t, env.handler, "/v1/audits/nope"); rr.Code != 404 {
		t.Fatalf("expected 404 for unknown audit, got %d", rr.Code)
	}
}

func TestAuditsUnavailableWithoutStore(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := get(t, env.handler, "/v1/audits/v-1")
	if rr.Code != 503 || errorCode(t, rr) != CodeUnavailable {
		t.Fatalf("expected unavailable, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	postJSON(t, env.handler, "/v1/model", map[string]any{})
	rr := get(t, env.handler, "/metrics")
	if rr.Code != 200 {
		t.Fatalf("unexpected metrics status: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `diagnostic_http_requests_total{method="POST",route="/v1/model",status="200"} 1`) {
		t.Fatalf("metrics missing request counter:\n%s", rr.Body.String())
	}
}

func TestSessionAuditsAndStats(t *testing.T) {
	outreach := diagnostic.BuildVerdict(diagnostic.AuditMetrics{}, diagnostic.GoalData{})
	messaging := diagnostic.BuildVerdict(diagnostic.AuditMetrics{TotalOutreach: 60}, diagnostic.GoalData{})
	env := newTestEnv(t, fakeAudits{
		"v-1": {VerdictID: "v-1", SessionID: "s-1", Verdict: outreach},
		"v-2": {VerdictID: "v-2", SessionID: "s-1", Verdict: messaging},
		"v-3": {VerdictID: "v-3", SessionID: "s-2", Verdict: outreach},
	})

	rr := get(t, env.handler, "/v1/sessions/s-1/audits")
	var list struct {
		Audits []auditstore.Audit `json:"audits"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || rr.Code != 200 {
		t.Fatalf("unexpected list response: %d %s", rr.Code, rr.Body.String())
	}
	if len(list.Audits) != 2 {
		t.Fatalf("unexpected audits: got=%d want=2", len(list.Audits))
	}
	if rr := get(t, env.handler, "/v1/sessions/s-1/audits?limit=0"); rr.Code != 400 {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}

	rr = get(t, env.handler, "/v1/audits/stats")
	var stats struct {
		Total        int            `json:"total"`
		ByBottleneck map[string]int `json:"by_bottleneck"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil || rr.Code != 200 {
		t.Fatalf("unexpected stats response: %d %s", rr.Code, rr.Body.String())
	}
	if stats.Total != 3 || stats.ByBottleneck["volume_outreach"] != 2 || stats.ByBottleneck["skill_messaging"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if rr := get(t, newTestEnv(t, nil).handler, "/v1/audits/stats"); rr.Code != 503 {
		t.Fatalf("expected 503 without audit store, got %d", rr.Code)
	}
}

type blockingSink struct{ release chan struct{} }

func (s blockingSink) Name() string { return "blocking" }

func (s blockingSink) Write(ctx context.Context, _ syncer.Record) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestGetSessionReportsSyncState(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	d := syncer.NewDispatcher(syncer.Options{Timeout: 5 * time.Second}, sink)
	h := NewServer(Deps{Sync: d, NewID: func() string { return "v-1" }})

	postJSON(t, h, "/v1/sessions", map[string]any{"id": "s-1"})
	if rr := postJSON(t, h, "/v1/sessions/s-1/commands", map[string]any{"type": "submit_audit"}); rr.Code != 200 {
		t.Fatalf("submit failed: %d %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Sync map[string]string `json:"sync"`
	}
	rr := get(t, h, "/v1/sessions/s-1")
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sync["verdict"] != string(syncer.TaskPending) {
		t.Fatalf("unexpected sync state: %v", resp.Sync)
	}
	if _, ok := resp.Sync["plan"]; ok {
		t.Fatalf("plan was never dispatched: %v", resp.Sync)
	}

	close(sink.release)
	task, _ := d.Lookup("v-1/verdict")
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	rr = get(t, h, "/v1/sessions/s-1")
	resp.Sync = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sync["verdict"] != string(syncer.TaskSucceeded) {
		t.Fatalf("unexpected sync state after write: %v", resp.Sync)
	}
	_ = d.Close(context.Background())
}
