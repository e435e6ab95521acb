package service

import (
	"context"
	"sync"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/lock"
	"github.com/kursadbilgin/funnel-engine/internal/queue"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
)

type fakeCallRepo struct {
	createFn           func(ctx context.Context, c *domain.Call) error
	createBatchFn      func(ctx context.Context, calls []*domain.Call) error
	getByIDFn          func(ctx context.Context, id string) (*domain.Call, error)
	lockByIDFn         func(ctx context.Context, id string) (*domain.Call, error)
	listFn             func(ctx context.Context, params repository.ListParams) ([]domain.Call, int64, error)
	applyDispositionFn func(ctx context.Context, id string, u repository.DispositionUpdate) error
	assignBulkFn       func(ctx context.Context, agentID string, callIDs []string) (int64, error)
	stageSummaryFn     func(ctx context.Context) ([]repository.StageCount, error)
	purgeFn            func(ctx context.Context, id string) error
}

func (f *fakeCallRepo) Create(ctx context.Context, c *domain.Call) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}
	return nil
}

func (f *fakeCallRepo) CreateBatch(ctx context.Context, calls []*domain.Call) error {
	if f.createBatchFn != nil {
		return f.createBatchFn(ctx, calls)
	}
	return nil
}

func (f *fakeCallRepo) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCallRepo) LockByID(ctx context.Context, id string) (*domain.Call, error) {
	if f.lockByIDFn != nil {
		return f.lockByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCallRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Call, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeCallRepo) ApplyDisposition(ctx context.Context, id string, u repository.DispositionUpdate) error {
	if f.applyDispositionFn != nil {
		return f.applyDispositionFn(ctx, id, u)
	}
	return nil
}

func (f *fakeCallRepo) AssignBulk(ctx context.Context, agentID string, callIDs []string) (int64, error) {
	if f.assignBulkFn != nil {
		return f.assignBulkFn(ctx, agentID, callIDs)
	}
	return int64(len(callIDs)), nil
}

func (f *fakeCallRepo) StageSummary(ctx context.Context) ([]repository.StageCount, error) {
	if f.stageSummaryFn != nil {
		return f.stageSummaryFn(ctx)
	}
	return nil, nil
}

func (f *fakeCallRepo) Purge(ctx context.Context, id string) error {
	if f.purgeFn != nil {
		return f.purgeFn(ctx, id)
	}
	return nil
}

// fakeAttemptRepo keeps a real in-memory ledger so multi-step scenarios see
// counts accumulate exactly as the database upsert would produce them.
type fakeAttemptRepo struct {
	mu     sync.Mutex
	counts map[string]int

	incrementFn func(ctx context.Context, callID, groupLabel string) (int, error)
	clearFn     func(ctx context.Context, callID string) error
	readFn      func(ctx context.Context, callID string) (map[string]int, error)
}

func (f *fakeAttemptRepo) Increment(ctx context.Context, callID, groupLabel string) (int, error) {
	if f.incrementFn != nil {
		return f.incrementFn(ctx, callID, groupLabel)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	key := callID + "|" + groupLabel
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeAttemptRepo) Clear(ctx context.Context, callID string) error {
	if f.clearFn != nil {
		return f.clearFn(ctx, callID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.counts {
		if len(key) > len(callID) && key[:len(callID)] == callID && key[len(callID)] == '|' {
			delete(f.counts, key)
		}
	}
	return nil
}

func (f *fakeAttemptRepo) Read(ctx context.Context, callID string) (map[string]int, error) {
	if f.readFn != nil {
		return f.readFn(ctx, callID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for key, count := range f.counts {
		if len(key) > len(callID) && key[:len(callID)] == callID && key[len(callID)] == '|' {
			out[key[len(callID)+1:]] = count
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) count(callID, groupLabel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[callID+"|"+groupLabel]
}

type fakeHistoryRepo struct {
	mu     sync.Mutex
	events []domain.CallEvent

	appendFn     func(ctx context.Context, e *domain.CallEvent) error
	listByCallFn func(ctx context.Context, callID string) ([]domain.CallEvent, error)
}

func (f *fakeHistoryRepo) Append(ctx context.Context, e *domain.CallEvent) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, e)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeHistoryRepo) ListByCall(ctx context.Context, callID string) ([]domain.CallEvent, error) {
	if f.listByCallFn != nil {
		return f.listByCallFn(ctx, callID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CallEvent, 0, len(f.events))
	for _, e := range f.events {
		if e.CallID == callID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAgentRepo struct {
	getByIDFn    func(ctx context.Context, id string) (*domain.Agent, error)
	listActiveFn func(ctx context.Context) ([]domain.Agent, error)
}

func (f *fakeAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAgentRepo) ListActive(ctx context.Context) ([]domain.Agent, error) {
	if f.listActiveFn != nil {
		return f.listActiveFn(ctx)
	}
	return nil, nil
}

type fakeCommunicationRepo struct {
	mu    sync.Mutex
	comms []domain.Communication

	createFn     func(ctx context.Context, c *domain.Communication) error
	listByCallFn func(ctx context.Context, callID string) ([]domain.Communication, error)
}

func (f *fakeCommunicationRepo) Create(ctx context.Context, c *domain.Communication) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.comms = append(f.comms, *c)
	return nil
}

func (f *fakeCommunicationRepo) ListByCall(ctx context.Context, callID string) ([]domain.Communication, error) {
	if f.listByCallFn != nil {
		return f.listByCallFn(ctx, callID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Communication, 0, len(f.comms))
	for _, c := range f.comms {
		if c.CallID == callID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.CommunicationMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.CommunicationMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeTxManager runs the unit inline against the shared fakes. Rollback is
// not simulated; tests assert on the error instead.
type fakeTxManager struct {
	calls    repository.CallRepository
	attempts repository.AttemptRepository
	history  repository.HistoryRepository

	inTxFn func(ctx context.Context, fn func(r repository.Repos) error) error
}

func (f *fakeTxManager) InTx(ctx context.Context, fn func(r repository.Repos) error) error {
	if f.inTxFn != nil {
		return f.inTxFn(ctx, fn)
	}
	return fn(repository.Repos{
		Calls:    f.calls,
		Attempts: f.attempts,
		History:  f.history,
	})
}

// fakeLocker serializes per call id like the Redis lock does across
// processes, so concurrency tests exercise the same mutual exclusion.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	acquireFn func(ctx context.Context, callID string) (func(context.Context) error, error)
}

func (f *fakeLocker) Acquire(ctx context.Context, callID string) (lock.ReleaseFunc, error) {
	if f.acquireFn != nil {
		release, err := f.acquireFn(ctx, callID)
		if err != nil {
			return nil, err
		}
		return lock.ReleaseFunc(release), nil
	}

	f.mu.Lock()
	if f.locks == nil {
		f.locks = map[string]*sync.Mutex{}
	}
	m, ok := f.locks[callID]
	if !ok {
		m = &sync.Mutex{}
		f.locks[callID] = m
	}
	f.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(m.Unlock)
		return nil
	}, nil
}
