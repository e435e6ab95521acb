package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
)

func strPtr(s string) *string { return &s }

func newTestCallService(t *testing.T, calls *fakeCallRepo, attempts *fakeAttemptRepo, history *fakeHistoryRepo) *CallService {
	t.Helper()

	svc, err := NewCallService(
		calls,
		attempts,
		history,
		&fakeTxManager{calls: calls, attempts: attempts, history: history},
		10,
		nil,
	)
	if err != nil {
		t.Fatalf("NewCallService() error = %v", err)
	}
	return svc
}

func TestCallServiceCreateDefaults(t *testing.T) {
	t.Parallel()

	var stored *domain.Call
	calls := &fakeCallRepo{
		createFn: func(ctx context.Context, c *domain.Call) error {
			stored = c
			return nil
		},
	}

	svc := newTestCallService(t, calls, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	created, err := svc.Create(context.Background(), &domain.Call{
		LeadType:      domain.LeadCorporate,
		ClientName:    "  Acme Corp  ",
		PhoneNumber:   "+905551112233",
		CompanyName:   strPtr("Acme"),
		ContactPerson: strPtr("Jane Doe"),
		Stage:         domain.StageDemo,
		Disposition:   strPtr("Interested"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if stored == nil {
		t.Fatal("call should be persisted")
	}
	if created.ID == "" {
		t.Fatal("id should be generated")
	}
	if !strings.HasPrefix(created.CallRef, "CALL-") {
		t.Fatalf("callRef = %q, want CALL- prefix", created.CallRef)
	}
	if created.ClientName != "Acme Corp" {
		t.Fatalf("clientName = %q, want trimmed", created.ClientName)
	}
	if created.Stage != domain.StageFresh {
		t.Fatalf("stage = %s, want fresh regardless of input", created.Stage)
	}
	if created.Disposition != nil {
		t.Fatal("disposition should be cleared at ingestion")
	}
}

func TestCallServiceCreateValidation(t *testing.T) {
	t.Parallel()

	svc := newTestCallService(t, &fakeCallRepo{}, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	testCases := []struct {
		name string
		call domain.Call
	}{
		{name: "missing client name", call: domain.Call{LeadType: domain.LeadCorporate, PhoneNumber: "+90555", CompanyName: strPtr("Acme"), ContactPerson: strPtr("Jane")}},
		{name: "missing phone", call: domain.Call{LeadType: domain.LeadCorporate, ClientName: "Acme", CompanyName: strPtr("Acme"), ContactPerson: strPtr("Jane")}},
		{name: "corporate without company", call: domain.Call{LeadType: domain.LeadCorporate, ClientName: "Acme", PhoneNumber: "+90555", ContactPerson: strPtr("Jane")}},
		{name: "corporate without contact person", call: domain.Call{LeadType: domain.LeadCorporate, ClientName: "Acme", PhoneNumber: "+90555", CompanyName: strPtr("Acme")}},
		{name: "institution without institution name", call: domain.Call{LeadType: domain.LeadInstitution, ClientName: "College", PhoneNumber: "+90555"}},
		{name: "unknown lead type", call: domain.Call{LeadType: "person", ClientName: "X", PhoneNumber: "+90555"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Create(context.Background(), &tc.call); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCallServiceBulkImport(t *testing.T) {
	t.Parallel()

	var batch []*domain.Call
	calls := &fakeCallRepo{
		createBatchFn: func(ctx context.Context, c []*domain.Call) error {
			batch = c
			return nil
		},
	}

	svc := newTestCallService(t, calls, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	databaseID := "db-7"
	created, err := svc.BulkImport(context.Background(), &databaseID, []domain.Call{
		{LeadType: domain.LeadInstitution, ClientName: "City College", PhoneNumber: "+90555", InstitutionName: strPtr("City College")},
		{LeadType: domain.LeadCorporate, ClientName: "Acme", PhoneNumber: "+90556", CompanyName: strPtr("Acme"), ContactPerson: strPtr("Jane")},
	})
	if err != nil {
		t.Fatalf("BulkImport() error = %v", err)
	}

	if len(created) != 2 || len(batch) != 2 {
		t.Fatalf("created = %d persisted = %d, want 2 and 2", len(created), len(batch))
	}
	for i, c := range created {
		if c.ID == "" {
			t.Fatalf("call %d missing generated id", i)
		}
		if c.DatabaseID == nil || *c.DatabaseID != "db-7" {
			t.Fatalf("call %d databaseId = %v, want db-7", i, c.DatabaseID)
		}
		if c.Stage != domain.StageFresh {
			t.Fatalf("call %d stage = %s, want fresh", i, c.Stage)
		}
	}
}

func TestCallServiceBulkImportRejectsBadBatches(t *testing.T) {
	t.Parallel()

	svc := newTestCallService(t, &fakeCallRepo{}, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	if _, err := svc.BulkImport(context.Background(), nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for empty import", err)
	}

	oversized := make([]domain.Call, 11)
	for i := range oversized {
		oversized[i] = domain.Call{LeadType: domain.LeadInstitution, ClientName: "X", PhoneNumber: "+90555", InstitutionName: strPtr("X")}
	}
	if _, err := svc.BulkImport(context.Background(), nil, oversized); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for oversized import", err)
	}

	mixed := []domain.Call{
		{LeadType: domain.LeadInstitution, ClientName: "X", PhoneNumber: "+90555", InstitutionName: strPtr("X")},
		{LeadType: domain.LeadCorporate, ClientName: "Broken", PhoneNumber: "+90556"},
	}
	if _, err := svc.BulkImport(context.Background(), nil, mixed); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation when one row is invalid", err)
	}
}

func TestCallServiceFunnelSummary(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		stageSummaryFn: func(ctx context.Context) ([]repository.StageCount, error) {
			return []repository.StageCount{
				{Stage: domain.StageFresh, Count: 4},
				{Stage: domain.StageDemo, Count: 2},
				{Stage: domain.StageClosure, Count: 3},
				{Stage: domain.StageConverted, Count: 1},
			}, nil
		},
	}

	svc := newTestCallService(t, calls, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	summary, err := svc.GetFunnelSummary(context.Background())
	if err != nil {
		t.Fatalf("GetFunnelSummary() error = %v", err)
	}

	if summary.TotalCalls != 10 {
		t.Fatalf("totalCalls = %d, want 10", summary.TotalCalls)
	}
	if summary.ConnectedCalls != 4 {
		t.Fatalf("connectedCalls = %d, want 4 (closure + converted)", summary.ConnectedCalls)
	}
	if summary.ConvertedCalls != 1 {
		t.Fatalf("convertedCalls = %d, want 1", summary.ConvertedCalls)
	}
	if summary.ConversionRate != 25 {
		t.Fatalf("conversionRate = %v, want 25", summary.ConversionRate)
	}
}

func TestCallServiceFunnelSummaryEmptyPipeline(t *testing.T) {
	t.Parallel()

	svc := newTestCallService(t, &fakeCallRepo{}, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	summary, err := svc.GetFunnelSummary(context.Background())
	if err != nil {
		t.Fatalf("GetFunnelSummary() error = %v", err)
	}
	if summary.TotalCalls != 0 || summary.ConversionRate != 0 {
		t.Fatalf("summary = %+v, want zeros", summary)
	}
}

func TestCallServiceAttemptCountsAndHistoryRequireCall(t *testing.T) {
	t.Parallel()

	attempts := &fakeAttemptRepo{}
	history := &fakeHistoryRepo{}
	calls := &fakeCallRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Call, error) {
			if id != "c-1" {
				return nil, domain.ErrNotFound
			}
			return &domain.Call{ID: id, Stage: domain.StageFresh}, nil
		},
	}

	if _, err := attempts.Increment(context.Background(), "c-1", domain.RingingGroup); err != nil {
		t.Fatalf("seed increment error = %v", err)
	}
	if err := history.Append(context.Background(), &domain.CallEvent{ID: "e-1", CallID: "c-1", ActorID: "a-1", Disposition: "Ringing Number"}); err != nil {
		t.Fatalf("seed append error = %v", err)
	}

	svc := newTestCallService(t, calls, attempts, history)

	counts, err := svc.AttemptCounts(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("AttemptCounts() error = %v", err)
	}
	if counts[domain.RingingGroup] != 1 {
		t.Fatalf("count = %d, want 1", counts[domain.RingingGroup])
	}

	if _, err := svc.AttemptCounts(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	events, err := svc.History(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	if _, err := svc.History(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCallServicePurge(t *testing.T) {
	t.Parallel()

	purged := ""
	calls := &fakeCallRepo{
		purgeFn: func(ctx context.Context, id string) error {
			purged = id
			return nil
		},
	}

	svc := newTestCallService(t, calls, &fakeAttemptRepo{}, &fakeHistoryRepo{})

	if err := svc.Purge(context.Background(), " c-1 "); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if purged != "c-1" {
		t.Fatalf("purged = %q, want c-1", purged)
	}

	if err := svc.Purge(context.Background(), "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for blank id", err)
	}
}
