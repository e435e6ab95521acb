package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/queue"
)

func newTestCommunicationService(
	t *testing.T,
	comms *fakeCommunicationRepo,
	calls *fakeCallRepo,
	agents *fakeAgentRepo,
	publisher *fakePublisher,
) *CommunicationService {
	t.Helper()

	if calls == nil {
		calls = &fakeCallRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Call, error) {
				return &domain.Call{ID: id, Stage: domain.StageFresh}, nil
			},
		}
	}
	if agents == nil {
		agents = &fakeAgentRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Agent, error) {
				return activeAgent(id), nil
			},
		}
	}

	var pub queue.Publisher
	if publisher != nil {
		pub = publisher
	}
	svc, err := NewCommunicationService(comms, calls, agents, pub, nil, nil)
	if err != nil {
		t.Fatalf("NewCommunicationService() error = %v", err)
	}
	return svc
}

func TestCommunicationServiceLogHappyPath(t *testing.T) {
	t.Parallel()

	comms := &fakeCommunicationRepo{}
	published := false
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.CommunicationMessage) error {
			if queueName != "whatsapp" {
				t.Fatalf("queue = %q, want whatsapp", queueName)
			}
			if msg.CommunicationID == "" || msg.CallID != "c-1" {
				t.Fatalf("message = %+v, want communication and call ids set", msg)
			}
			published = true
			return nil
		},
	}

	svc := newTestCommunicationService(t, comms, nil, nil, publisher)

	logged, err := svc.Log(context.Background(), &domain.Communication{
		CallID:  "c-1",
		ActorID: "agent-1",
		Kind:    domain.CommWhatsApp,
		Message: "following up after our demo",
	})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	if logged.ID == "" {
		t.Fatal("id should be generated")
	}
	if logged.Status != domain.CommStatusSent {
		t.Fatalf("status = %s, want sent", logged.Status)
	}
	if !published {
		t.Fatal("expected event to be published")
	}

	stored, err := comms.ListByCall(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("ListByCall() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(stored))
	}
}

func TestCommunicationServiceLogPublishFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	comms := &fakeCommunicationRepo{}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.CommunicationMessage) error {
			return errors.New("broker unavailable")
		},
	}

	svc := newTestCommunicationService(t, comms, nil, nil, publisher)

	logged, err := svc.Log(context.Background(), &domain.Communication{
		CallID:  "c-1",
		ActorID: "agent-1",
		Kind:    domain.CommWhatsApp,
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("Log() error = %v, want nil when only the publish fails", err)
	}
	if logged.Status != domain.CommStatusSent {
		t.Fatalf("status = %s, want sent", logged.Status)
	}
}

func TestCommunicationServiceLogValidation(t *testing.T) {
	t.Parallel()

	svc := newTestCommunicationService(t, &fakeCommunicationRepo{}, nil, nil, nil)

	if _, err := svc.Log(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for nil communication", err)
	}
	if _, err := svc.Log(context.Background(), &domain.Communication{ActorID: "a-1", Kind: domain.CommWhatsApp, Message: "hi"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for missing call id", err)
	}
	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "c-1", ActorID: "a-1", Kind: domain.CommWhatsApp, Message: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for blank message", err)
	}
	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "c-1", ActorID: "a-1", Kind: domain.CommEmail, Message: "proposal attached"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for email without subject", err)
	}
	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "c-1", Kind: domain.CommWhatsApp, Message: "hi"}); !errors.Is(err, domain.ErrInvalidActor) {
		t.Fatalf("error = %v, want ErrInvalidActor for missing actor", err)
	}
}

func TestCommunicationServiceLogUnknownActorOrCall(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Call, error) {
			if id != "c-1" {
				return nil, domain.ErrNotFound
			}
			return &domain.Call{ID: id}, nil
		},
	}
	agents := &fakeAgentRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Agent, error) {
			if id == "ghost" {
				return nil, domain.ErrNotFound
			}
			return activeAgent(id), nil
		},
	}

	svc := newTestCommunicationService(t, &fakeCommunicationRepo{}, calls, agents, nil)

	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "c-1", ActorID: "ghost", Kind: domain.CommWhatsApp, Message: "hi"}); !errors.Is(err, domain.ErrInvalidActor) {
		t.Fatalf("error = %v, want ErrInvalidActor for unknown agent", err)
	}
	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "missing", ActorID: "a-1", Kind: domain.CommWhatsApp, Message: "hi"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound for unknown call", err)
	}
}

func TestCommunicationServiceListByCall(t *testing.T) {
	t.Parallel()

	comms := &fakeCommunicationRepo{}
	svc := newTestCommunicationService(t, comms, nil, nil, nil)

	if _, err := svc.Log(context.Background(), &domain.Communication{CallID: "c-1", ActorID: "a-1", Kind: domain.CommWhatsApp, Message: "hi"}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	listed, err := svc.ListByCall(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("ListByCall() error = %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d, want 1", len(listed))
	}

	if _, err := svc.ListByCall(context.Background(), " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for blank call id", err)
	}
}
