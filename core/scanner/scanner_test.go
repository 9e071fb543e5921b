package scanner

import (
	"context"
	"errors"
	"strings"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

type fakeLister struct {
	rt      types.ResourceType
	mu      sync.Mutex
	calls   []string
	records map[string][]types.ResourceRecord
	errs    map[string]error
	delay   time.Duration
}

func (f *fakeLister) Type() types.ResourceType { return f.rt }

func (f *fakeLister) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, region)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[region]; err != nil {
		return nil, err
	}
	return append([]types.ResourceRecord(nil), f.records[region]...), nil
}

func newScanner(t *testing.T, listers ...Lister) *Scanner {
	t.Helper()
	reg := NewRegistry()
	for _, l := range listers {
		if err := reg.Register(l); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return New(reg, WithWorkers(2), WithCallTimeout(time.Second))
}

func TestScanSkipsUnsupportedRegion(t *testing.T) {
	lister := &fakeLister{
		rt: types.ResourceOpenSearchCollection,
		records: map[string][]types.ResourceRecord{
			"us-east-1": {{ID: "abc123", Name: "logs"}},
		},
		errs: map[string]error{
			"eu-west-1": apperrors.NotSupported("opensearch serverless in eu-west-1"),
		},
	}
	s := newScanner(t, lister)

	res, err := s.Scan(context.Background(), types.ResourceOpenSearchCollection, []string{"us-east-1", "eu-west-1"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Resources) != 1 {
		t.Fatalf("resources = %d, want 1", len(res.Resources))
	}
	r := res.Resources[0]
	if r.Region != "us-east-1" || r.Type != types.ResourceOpenSearchCollection || r.Status != types.ResourceActive {
		t.Errorf("record not annotated: %+v", r)
	}
	if !strings.Contains(r.ConsoleURL, "#/serverless/collections/abc123") {
		t.Errorf("ConsoleURL = %q", r.ConsoleURL)
	}
	if res.HasErrors() {
		t.Errorf("unsupported region reported as error: %+v", res.Errors)
	}
	if len(res.Unsupported) != 1 || res.Unsupported[0] != "eu-west-1" {
		t.Errorf("Unsupported = %v", res.Unsupported)
	}
}

func TestScanIsolatesRegionFailures(t *testing.T) {
	lister := &fakeLister{
		rt: types.ResourceLambdaFunction,
		records: map[string][]types.ResourceRecord{
			"us-east-1": {{ID: "zeta"}, {ID: "alpha"}},
			"us-west-2": {{ID: "beta"}},
		},
		errs: map[string]error{
			"eu-central-1": apperrors.New(apperrors.TypeDenied, "AccessDenied"),
		},
	}
	s := newScanner(t, lister)

	regions := []string{"us-east-1", "eu-central-1", "us-west-2"}
	res, err := s.Scan(context.Background(), types.ResourceLambdaFunction, regions)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var names []string
	for _, r := range res.Resources {
		names = append(names, r.Region+"/"+r.Name)
	}
	want := "us-east-1/alpha,us-east-1/zeta,us-west-2/beta"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("resources = %s, want %s", got, want)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	if res.Errors[0].Region != "eu-central-1" || res.Errors[0].Kind != apperrors.TypeDenied {
		t.Errorf("error = %+v", res.Errors[0])
	}
	if len(lister.calls) != len(regions) {
		t.Errorf("lister called %d times, want %d", len(lister.calls), len(regions))
	}
}

type countingLister struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (c *countingLister) Type() types.ResourceType { return types.ResourceLambdaFunction }

func (c *countingLister) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	c.calls.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []types.ResourceRecord{{ID: region}}, nil
}

func TestScanRespectsWorkerLimit(t *testing.T) {
	const workers = 3
	lister := &countingLister{}
	reg := NewRegistry()
	if err := reg.Register(lister); err != nil {
		t.Fatal(err)
	}
	s := New(reg, WithWorkers(workers), WithCallTimeout(time.Second))

	regions := make([]string, 12)
	for i := range regions {
		regions[i] = fmt.Sprintf("region-%02d", i)
	}
	res, err := s.Scan(context.Background(), types.ResourceLambdaFunction, regions)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := int(lister.calls.Load()); got != len(regions) {
		t.Errorf("List calls = %d, want %d", got, len(regions))
	}
	if len(res.Resources) != len(regions) {
		t.Errorf("resources = %d, want %d", len(res.Resources), len(regions))
	}
	peak := lister.peak.Load()
	if peak > workers {
		t.Errorf("peak concurrent List calls = %d, want at most %d", peak, workers)
	}
	if peak < 2 {
		t.Errorf("peak concurrent List calls = %d, regions were not listed in parallel", peak)
	}
}

func TestScanTimeoutIsUnavailable(t *testing.T) {
	lister := &fakeLister{rt: types.ResourceEC2Instance, delay: time.Second}
	reg := NewRegistry()
	_ = reg.Register(lister)
	s := New(reg, WithCallTimeout(10*time.Millisecond))

	res, err := s.Scan(context.Background(), types.ResourceEC2Instance, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Errors) != 1 || res.Errors[0].Kind != apperrors.TypeUnavailable {
		t.Errorf("errors = %+v, want one unavailable", res.Errors)
	}
}

func TestScanUnregisteredType(t *testing.T) {
	s := newScanner(t)
	_, err := s.Scan(context.Background(), types.ResourceEC2Instance, []string{"us-east-1"})
	if !apperrors.IsType(err, apperrors.TypeNotSupported) {
		t.Errorf("err = %v, want not supported", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&fakeLister{rt: types.ResourceLambdaFunction}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&fakeLister{rt: types.ResourceLambdaFunction}); err == nil {
		t.Error("duplicate registration accepted")
	}
	if err := reg.Register(&fakeLister{rt: "rds:instance"}); err == nil {
		t.Error("unknown resource type accepted")
	}
}

type fakeAudit struct {
	events map[string][]types.AuditEvent
	err    map[string]error
	query  types.AuditQuery
	mu     sync.Mutex
}

func (f *fakeAudit) LookupEvents(_ context.Context, region string, q types.AuditQuery) ([]types.AuditEvent, error) {
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
	if err := f.err[region]; err != nil {
		return nil, err
	}
	return f.events[region], nil
}

func TestRecentlyDeleted(t *testing.T) {
	now := time.Date(2025, 4, 21, 12, 0, 0, 0, time.UTC)
	deletedAt := now.Add(-72 * time.Hour)

	audit := &fakeAudit{
		events: map[string][]types.AuditEvent{
			"us-east-1": {
				{ID: "ev-1", Name: "DeleteDomain", Time: deletedAt, Username: "ops",
					Payload: `{"requestParameters":{"domainName":"search-logs"}}`},
				{ID: "ev-2", Name: "DeleteDomain", Time: deletedAt, Payload: `{}`},
			},
		},
		err: map[string]error{"eu-west-1": errors.New("throttled")},
	}
	reg := NewRegistry()
	s := New(reg, WithAudit(audit), WithClock(func() time.Time { return now }))

	res, err := s.RecentlyDeleted(context.Background(), "DeleteDomain", types.ResourceOpenSearchDomain, []string{"us-east-1", "eu-west-1"})
	if err != nil {
		t.Fatalf("RecentlyDeleted() error = %v", err)
	}
	if len(res.Resources) != 1 {
		t.Fatalf("resources = %+v, want 1", res.Resources)
	}
	r := res.Resources[0]
	if r.Name != "search-logs" || r.Status != types.ResourceDeleted || !r.Timestamp.Equal(deletedAt) {
		t.Errorf("record = %+v", r)
	}
	if !strings.Contains(r.ConsoleURL, "EventId=ev-1") {
		t.Errorf("ConsoleURL = %q", r.ConsoleURL)
	}
	if len(res.Errors) != 1 || res.Errors[0].Region != "eu-west-1" {
		t.Errorf("errors = %+v", res.Errors)
	}
	if !audit.query.Start.Equal(now.Add(-DeletionLookback)) || audit.query.EventName != "DeleteDomain" {
		t.Errorf("query = %+v", audit.query)
	}
}

func TestRecentlyDeletedWithoutAudit(t *testing.T) {
	s := New(NewRegistry())
	if _, err := s.RecentlyDeleted(context.Background(), "DeleteDomain", types.ResourceOpenSearchDomain, nil); err == nil {
		t.Error("expected error without audit port")
	}
}

func TestResourceNameFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   types.AuditEvent
		want string
	}{
		{"request parameter", types.AuditEvent{Payload: `{"requestParameters":{"domainName":"logs"}}`}, "logs"},
		{"resource arn", types.AuditEvent{Payload: `{"resources":[{"ARN":"arn:aws:es:us-east-1:123:domain/metrics"}]}`}, "metrics"},
		{"event resources", types.AuditEvent{Resources: []string{"arn:aws:aoss:us-east-1:123:collection/abc"}}, "abc"},
		{"bad payload", types.AuditEvent{Payload: `not json`, Resources: []string{"plain"}}, "plain"},
		{"nothing", types.AuditEvent{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResourceNameFromEvent(tt.ev); got != tt.want {
				t.Errorf("ResourceNameFromEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}
