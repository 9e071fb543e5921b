package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aws-cost/core/catalog"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

type memLedger struct {
	records map[string]types.CancellationRecord
	writes  int
	err     error
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]types.CancellationRecord)}
}

func (l *memLedger) Load(context.Context) (map[string]types.CancellationRecord, error) {
	return l.records, nil
}

func (l *memLedger) Record(_ context.Context, rec types.CancellationRecord) error {
	if l.err != nil {
		return l.err
	}
	l.writes++
	l.records[rec.Service] = rec
	return nil
}

type fakeHandler struct {
	kind    ResourceKind
	outcome Outcome
	err     error
	got     Request
}

func (h *fakeHandler) Kind() ResourceKind { return h.kind }

func (h *fakeHandler) Cancel(_ context.Context, req Request) (Outcome, error) {
	h.got = req
	return h.outcome, h.err
}

var today = time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)

func newDispatcher(ledger *memLedger, handlers ...Handler) *Dispatcher {
	d := NewDispatcher(ledger, WithClock(func() time.Time { return today }))
	d.Register(handlers...)
	return d
}

func TestKindForService(t *testing.T) {
	tests := map[string]ResourceKind{
		"Amazon OpenSearch Service":              KindOpenSearchDomain,
		"OpenSearch Serverless":                  KindOpenSearchCollection,
		"Amazon Redshift":                        KindRedshiftCluster,
		"AWS Lambda":                             KindLambdaFunction,
		"Amazon EC2":                             KindEC2Instance,
		"Amazon Elastic Compute Cloud - Compute": KindEC2Instance,
		"Amazon RDS":                             KindRDSInstance,
		"Amazon Relational Database Service":     KindRDSInstance,
		"Amazon S3":                              KindS3Bucket,
		"Amazon Simple Storage Service":          KindS3Bucket,
		"AWS Skill Builder":                      KindMarketplace,
		"AWS Marketplace: Acme Scanner":          KindMarketplace,
		"Amazon Rekognition":                     KindUnknown,
		"Tax":                                    KindUnknown,
		"Amazon EC2 Container Registry (ECR)":    KindUnknown,
		"Amazon EC2 Container Service":           KindUnknown,
		"Amazon Elastic Container Service":       KindUnknown,
		"AWS EC2 - Other":                        KindUnknown,
		"Amazon S3 Glacier Deep Archive":         KindUnknown,
		"Amazon RDS Performance Insights":        KindUnknown,
	}
	for name, want := range tests {
		if got := KindForService(name); got != want {
			t.Errorf("KindForService(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestCancelUnmappedServiceIsNotImplemented(t *testing.T) {
	ledger := newMemLedger()
	d := newDispatcher(ledger)

	res, err := d.Cancel(context.Background(), Request{Service: "Amazon Rekognition"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !res.Success || res.Action() != ActionNotImplemented {
		t.Errorf("result = %+v, want success with not_implemented", res)
	}
	if ledger.writes != 0 {
		t.Errorf("ledger writes = %d, want 0", ledger.writes)
	}
}

func TestCancelMappedKindWithoutHandlerIsNotImplemented(t *testing.T) {
	d := newDispatcher(newMemLedger())
	res, err := d.Cancel(context.Background(), Request{Service: "Amazon Redshift", ResourceID: "warehouse"})
	if err != nil || !res.Success || res.Action() != ActionNotImplemented {
		t.Errorf("Cancel() = %+v, %v", res, err)
	}
}

func TestCancelListOnlyDoesNotWriteLedger(t *testing.T) {
	ledger := newMemLedger()
	h := &fakeHandler{kind: KindLambdaFunction, outcome: Outcome{
		Action:    ActionListOnly,
		Message:   "Found 2 Lambda functions",
		Resources: []types.ResourceRecord{{ID: "a"}, {ID: "b"}},
	}}
	d := newDispatcher(ledger, h)

	res, err := d.Cancel(context.Background(), Request{Service: "AWS Lambda"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !res.Success || res.Action() != ActionListOnly {
		t.Errorf("result = %+v", res)
	}
	if got, ok := res.Details["resources"].([]types.ResourceRecord); !ok || len(got) != 2 {
		t.Errorf("resources = %#v", res.Details["resources"])
	}
	if h.got.Region != "us-east-1" {
		t.Errorf("region = %q, want default us-east-1", h.got.Region)
	}
	if ledger.writes != 0 {
		t.Errorf("ledger writes = %d, want 0", ledger.writes)
	}
}

func TestCancelSuccessRecordsLedger(t *testing.T) {
	ledger := newMemLedger()
	h := &fakeHandler{kind: KindOpenSearchDomain, outcome: Outcome{
		Action:  ActionDeleted,
		Message: "Deletion of domain logs initiated",
	}}
	d := newDispatcher(ledger, h)

	res, err := d.Cancel(context.Background(), Request{
		Service:    "Amazon OpenSearch Service",
		ResourceID: "logs",
		Region:     "eu-west-1",
		Cost:       decimal.RequireFromString("42.10"),
	})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !res.Success || res.Action() != ActionDeleted || res.Details["resource_id"] != "logs" {
		t.Errorf("result = %+v", res)
	}
	rec, ok := ledger.records["Amazon OpenSearch Service"]
	if !ok {
		t.Fatal("ledger not written")
	}
	want := types.CancellationRecord{
		Service:            "Amazon OpenSearch Service",
		Status:             types.LedgerStatusCanceled,
		CanceledOn:         "2025-04-21",
		CostAtCancellation: 42.10,
	}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
	if ledger.writes != 1 {
		t.Errorf("ledger writes = %d, want 1", ledger.writes)
	}
}

func TestCancelHandlerFailureLeavesLedger(t *testing.T) {
	ledger := newMemLedger()
	h := &fakeHandler{
		kind: KindEC2Instance,
		err:  apperrors.New(apperrors.TypeDenied, "not authorized to terminate").WithCode("UnauthorizedOperation"),
	}
	d := newDispatcher(ledger, h)

	res, err := d.Cancel(context.Background(), Request{Service: "Amazon EC2", ResourceID: "i-0abc"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if res.Success || res.ErrorCode != "UnauthorizedOperation" {
		t.Errorf("result = %+v", res)
	}
	if ledger.writes != 0 {
		t.Errorf("ledger writes = %d, want 0", ledger.writes)
	}
}

func TestCancelLedgerWriteFailureIsSurfaced(t *testing.T) {
	ledger := newMemLedger()
	ledger.err = errors.New("disk full")
	h := &fakeHandler{kind: KindS3Bucket, outcome: Outcome{Action: ActionDeleted}}
	d := newDispatcher(ledger, h)

	res, err := d.Cancel(context.Background(), Request{Service: "Amazon S3", ResourceID: "bucket"})
	if !apperrors.IsType(err, apperrors.TypePersistence) {
		t.Errorf("err = %v, want persistence error", err)
	}
	if !res.Success {
		t.Error("deletion result lost after ledger failure")
	}
}

func TestCancelMarketplaceIsManual(t *testing.T) {
	ledger := newMemLedger()
	d := newDispatcher(ledger)

	res, err := d.Cancel(context.Background(), Request{Service: "AWS Skill Builder"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !res.Success || res.Action() != ActionManual || res.Details["url"] == "" {
		t.Errorf("result = %+v", res)
	}
	if ledger.writes != 0 {
		t.Error("manual cancellation wrote the ledger")
	}
}

func TestCancelContainerRegistryNeverReachesEC2(t *testing.T) {
	ledger := newMemLedger()
	ec2 := &fakeHandler{kind: KindEC2Instance, outcome: Outcome{Action: ActionTerminated}}
	d := newDispatcher(ledger, ec2)

	for _, name := range []string{"Amazon EC2 Container Registry (ECR)", "Amazon EC2 Container Service"} {
		res, err := d.Cancel(context.Background(), Request{Service: name, ResourceID: "my-repo"})
		if err != nil {
			t.Fatalf("Cancel(%q) error = %v", name, err)
		}
		if res.Action() != ActionNotImplemented {
			t.Errorf("Cancel(%q) action = %s, want not_implemented", name, res.Action())
		}
	}
	if ec2.got.Service != "" {
		t.Errorf("EC2 handler called for %q", ec2.got.Service)
	}
	if ledger.writes != 0 {
		t.Errorf("ledger writes = %d, want 0", ledger.writes)
	}
}

func TestCancelConfirmedManualRecordsRelatedKey(t *testing.T) {
	ledger := newMemLedger()
	d := NewDispatcher(ledger,
		WithClock(func() time.Time { return today }),
		WithCatalog(catalog.Default()))

	res, err := d.Cancel(context.Background(), Request{
		Service:   "AWS Skill Builder",
		Cost:      decimal.NewFromInt(29),
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !res.Success || res.Action() != ActionConfirmed {
		t.Errorf("result = %+v", res)
	}
	want := types.CancellationRecord{
		Service:            "AWS Skill Builder Individual",
		Status:             types.LedgerStatusCanceled,
		CanceledOn:         "2025-04-21",
		CostAtCancellation: 29,
	}
	if rec := ledger.records["AWS Skill Builder Individual"]; rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
}

func TestCancelConfirmedManualWithoutCatalogUsesServiceName(t *testing.T) {
	ledger := newMemLedger()
	d := newDispatcher(ledger)

	if _, err := d.Cancel(context.Background(), Request{Service: "AWS Marketplace: Acme Scanner", Confirmed: true}); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, ok := ledger.records["AWS Marketplace: Acme Scanner"]; !ok || ledger.writes != 1 {
		t.Errorf("records = %+v, writes = %d", ledger.records, ledger.writes)
	}
}

func TestCancelConfirmedManualLedgerFailure(t *testing.T) {
	ledger := newMemLedger()
	ledger.err = errors.New("read-only file system")
	d := newDispatcher(ledger)

	res, err := d.Cancel(context.Background(), Request{Service: "AWS Skill Builder", Confirmed: true})
	if !apperrors.IsType(err, apperrors.TypePersistence) {
		t.Errorf("err = %v, want persistence error", err)
	}
	if res.Details["ledger_error"] == nil {
		t.Errorf("result = %+v, want ledger_error detail", res)
	}
}

func TestCancelRequiresService(t *testing.T) {
	d := newDispatcher(newMemLedger())
	if _, err := d.Cancel(context.Background(), Request{}); !apperrors.IsType(err, apperrors.TypeInput) {
		t.Errorf("err = %v, want input error", err)
	}
}
