package service

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/events"
	"github.com/spec-kit/waitline/internal/observability"
	"github.com/spec-kit/waitline/internal/repository"
)

// errNoWaiting signals an empty line inside a withQueue closure; callNext maps
// it to a nil entry rather than an error.
var errNoWaiting = errors.New("no waiting entries")

// QueueService coordinates queue aggregate operations. Mutations are
// serialized per queue: position assignment and recompute are read-then-write
// sequences that would lose updates under concurrent requests.
type QueueService struct {
	queues     repository.QueueRepository
	merchants  repository.MerchantRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	random     io.Reader
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	QueueRepo    repository.QueueRepository
	MerchantRepo repository.MerchantRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// AddCustomerInput describes a join request.
type AddCustomerInput struct {
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	PartySize     int
	Notes         string
}

// CreateQueueInput describes a new service line.
type CreateQueueInput struct {
	Name               string
	MaxCapacity        int
	AverageServiceTime int
}

// QueueStats summarizes a queue for the dashboard.
type QueueStats struct {
	QueueID            string
	Waiting            int
	Active             int
	ServedCount        int
	NoShowCount        int
	AverageServiceTime int
	AcceptingCustomers bool
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	return &QueueService{
		queues:     deps.QueueRepo,
		merchants:  deps.MerchantRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		random:     rand.Reader,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// queueLock returns the serialization mutex for one queue.
func (s *QueueService) queueLock(queueID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[queueID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[queueID] = lock
	}
	return lock
}

// withQueue loads a queue under its lock, applies the mutation and saves. The
// save happens before the lock is released so either the full transition
// persists or nothing does.
func (s *QueueService) withQueue(ctx context.Context, queueID string, fn func(*domain.Queue) error) (*domain.Queue, error) {
	lock := s.queueLock(queueID)
	lock.Lock()
	defer lock.Unlock()

	queue, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if err := fn(queue); err != nil {
		return nil, err
	}
	if err := s.queues.Save(ctx, queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// CreateQueue registers a new queue for a merchant.
func (s *QueueService) CreateQueue(ctx context.Context, merchantID string, input CreateQueueInput) (*domain.Queue, error) {
	queue := &domain.Queue{
		MerchantID:         merchantID,
		Name:               strings.TrimSpace(input.Name),
		MaxCapacity:        input.MaxCapacity,
		AverageServiceTime: input.AverageServiceTime,
		AcceptingCustomers: true,
	}
	if queue.MaxCapacity < 1 {
		queue.MaxCapacity = 1
	}
	if queue.AverageServiceTime < 1 {
		queue.AverageServiceTime = 1
	}
	if err := s.queues.Create(ctx, queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// GetQueue loads a queue with its entries.
func (s *QueueService) GetQueue(ctx context.Context, queueID string) (*domain.Queue, error) {
	return s.queues.GetByID(ctx, queueID)
}

// ListQueues returns a merchant's queues without entries.
func (s *QueueService) ListQueues(ctx context.Context, merchantID string) ([]domain.Queue, error) {
	return s.queues.ListByMerchant(ctx, merchantID)
}

// GetMerchant loads the owning merchant, including notification settings.
func (s *QueueService) GetMerchant(ctx context.Context, merchantID string) (*domain.Merchant, error) {
	return s.merchants.GetByID(ctx, merchantID)
}

// AddCustomer appends a customer to the waiting line. Fails when the queue is
// closed or at capacity; on success the entry carries its position and the
// estimated wait fixed at join time.
func (s *QueueService) AddCustomer(ctx context.Context, queueID string, input AddCustomerInput) (*domain.Entry, error) {
	entry := &domain.Entry{
		ID:            uuid.NewString(),
		CustomerID:    input.CustomerID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		PartySize:     input.PartySize,
		Notes:         strings.TrimSpace(input.Notes),
	}
	if entry.CustomerID == "" {
		entry.CustomerID = uuid.NewString()
	}

	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		return q.AddCustomer(entry, s.now())
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordQueueOp(queueID, "join")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryAdded,
		QueueID: queueID,
		Payload: events.EntryAddedPayload{
			EntryID:       entry.ID,
			CustomerID:    entry.CustomerID,
			CustomerName:  entry.CustomerName,
			PartySize:     entry.PartySize,
			Position:      entry.Position,
			EstimatedWait: entry.EstimatedWait,
		},
	})
	return entry, nil
}

// CallNext calls the first waiting customer and issues a verification code.
// Returns nil without error when nobody is waiting.
func (s *QueueService) CallNext(ctx context.Context, queueID string) (*domain.Entry, error) {
	var called *domain.Entry
	_, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.NextWaiting()
		if entry == nil {
			return errNoWaiting
		}
		if err := s.callEntry(q, entry); err != nil {
			return err
		}
		called = entry
		return nil
	})
	if errors.Is(err, errNoWaiting) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.afterCall(ctx, queueID, called, false)
	return called, nil
}

// CallSpecific calls a given waiting entry out of FIFO order. Staff use this
// deliberately; it is never a silent reorder.
func (s *QueueService) CallSpecific(ctx context.Context, queueID, entryID string) (*domain.Entry, error) {
	var called *domain.Entry
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if entry == nil || entry.Status != domain.EntryStatusWaiting {
			return domain.ErrEntryNotFound
		}
		if err := s.callEntry(q, entry); err != nil {
			return err
		}
		called = entry
		return nil
	}); err != nil {
		return nil, err
	}

	s.afterCall(ctx, queueID, called, true)
	return called, nil
}

// callEntry generates a day-unique code and transitions the entry to called.
func (s *QueueService) callEntry(q *domain.Queue, entry *domain.Entry) error {
	now := s.now()
	code, err := q.UniqueCode(now, s.random)
	if err != nil {
		if errors.Is(err, domain.ErrCodeGenerationExhausted) {
			s.logger.Error("verification code space exhausted",
				zap.String("queue_id", q.ID))
		}
		return err
	}
	return q.Call(entry, code, now)
}
