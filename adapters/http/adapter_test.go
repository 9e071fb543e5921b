package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aws-cost/adapters/html"
	"aws-cost/core/analysis"
	"aws-cost/core/cancellation"
	apperrors "aws-cost/internal/errors"
)

type fakeCanceler struct {
	got    cancellation.Request
	result cancellation.Result
	err    error
}

func (f *fakeCanceler) Cancel(_ context.Context, req cancellation.Request) (cancellation.Result, error) {
	f.got = req
	return f.result, f.err
}

type fakeReports struct {
	calls int
	err   error
}

func (f *fakeReports) GenerateReport(_ context.Context, req analysis.ReportRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return req.OutputPath, os.WriteFile(req.OutputPath, []byte("<html>generated</html>"), 0o644)
}

func newTestAdapter(t *testing.T, c Canceler, r ReportSource) *Adapter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ReportsDir = t.TempDir()
	a := New(c, r, cfg)
	a.now = func() time.Time { return time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestHealth(t *testing.T) {
	a := newTestAdapter(t, &fakeCanceler{}, nil)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("request id header missing")
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCancelServiceRequiresName(t *testing.T) {
	c := &fakeCanceler{}
	a := newTestAdapter(t, c, nil)

	for _, body := range []string{"", `{}`, `{"service_id":"x"}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cancel-service", strings.NewReader(body))
		a.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if c.got.Service != "" {
		t.Error("canceler called without a service name")
	}
}

func TestCancelService(t *testing.T) {
	c := &fakeCanceler{result: cancellation.Result{
		Success: true,
		Message: "deleted",
		Details: map[string]any{"action": cancellation.ActionDeleted},
	}}
	a := newTestAdapter(t, c, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cancel-service",
		strings.NewReader(`{"service_name":"Amazon OpenSearch Service","service_id":"orders","region":"us-west-2","cost":"42.10"}`))
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if c.got.ResourceID != "orders" || c.got.Region != "us-west-2" || c.got.Cost.String() != "42.1" {
		t.Errorf("request = %+v", c.got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
	var result cancellation.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Action() != cancellation.ActionDeleted {
		t.Errorf("result = %+v", result)
	}
}

func TestCancelServicePassesConfirmation(t *testing.T) {
	c := &fakeCanceler{result: cancellation.Result{
		Success: true,
		Details: map[string]any{"action": cancellation.ActionConfirmed},
	}}
	a := newTestAdapter(t, c, nil)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cancel-service",
		strings.NewReader(`{"service_name":"AWS Skill Builder","cost":"29","confirmed":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !c.got.Confirmed || c.got.Service != "AWS Skill Builder" {
		t.Errorf("request = %+v", c.got)
	}

	a.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/cancel-service",
		strings.NewReader(`{"service_name":"AWS Skill Builder"}`)))
	if c.got.Confirmed {
		t.Error("confirmation assumed when absent")
	}
}

func TestCancelServiceLedgerFailure(t *testing.T) {
	c := &fakeCanceler{
		result: cancellation.Result{Success: true, Details: map[string]any{"action": cancellation.ActionDeleted}},
		err:    apperrors.Persistence("record cancellation", os.ErrPermission),
	}
	a := newTestAdapter(t, c, nil)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cancel-service",
		strings.NewReader(`{"service_name":"AWS Lambda","resource_id":"fn"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDashboardGeneratesOnce(t *testing.T) {
	reports := &fakeReports{}
	a := newTestAdapter(t, &fakeCanceler{}, reports)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "generated") {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
		}
	}
	if reports.calls != 1 {
		t.Errorf("generate calls = %d, want 1", reports.calls)
	}
	if _, err := os.Stat(filepath.Join(a.config.ReportsDir, html.FileName(a.now()))); err != nil {
		t.Errorf("report not at default path: %v", err)
	}
}

func TestDashboardGenerationFailure(t *testing.T) {
	a := newTestAdapter(t, &fakeCanceler{}, &fakeReports{err: apperrors.Unavailable("cost explorer", nil)})
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestReportsServesFilesInsideDir(t *testing.T) {
	a := newTestAdapter(t, &fakeCanceler{}, nil)
	if err := os.WriteFile(filepath.Join(a.config.ReportsDir, "r.html"), []byte("report"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r.html", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "report" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/missing.html", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing report status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "report not found: missing.html") {
		t.Errorf("missing report body = %s", rec.Body.String())
	}
}

func TestReportPathStaysInsideDir(t *testing.T) {
	a := newTestAdapter(t, &fakeCanceler{}, nil)
	path, ok := a.reportPath("../../etc/passwd")
	if !ok || !strings.HasPrefix(path, a.config.ReportsDir) {
		t.Errorf("reportPath escaped: %s", path)
	}
	if _, ok := a.reportPath(""); ok {
		t.Error("empty name accepted")
	}
}
