package worker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/events"
	"github.com/spec-kit/waitline/internal/observability"
	"github.com/spec-kit/waitline/internal/service"
	"github.com/spec-kit/waitline/internal/timers"
)

type memQueues struct {
	mu     sync.Mutex
	queues map[string]*domain.Queue
}

func (r *memQueues) clone(q *domain.Queue) *domain.Queue {
	dup := *q
	dup.Entries = make([]*domain.Entry, len(q.Entries))
	for i, e := range q.Entries {
		entry := *e
		dup.Entries[i] = &entry
	}
	return &dup
}

func (r *memQueues) Create(ctx context.Context, queue *domain.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if queue.ID == "" {
		queue.ID = uuid.NewString()
	}
	r.queues[queue.ID] = r.clone(queue)
	return nil
}

func (r *memQueues) GetByID(ctx context.Context, id string) (*domain.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue, ok := r.queues[id]
	if !ok {
		return nil, domain.ErrQueueNotFound
	}
	return r.clone(queue), nil
}

func (r *memQueues) Save(ctx context.Context, queue *domain.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[queue.ID] = r.clone(queue)
	return nil
}

func (r *memQueues) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Queue, error) {
	return nil, nil
}

type memMerchants struct {
	merchant *domain.Merchant
}

func (r *memMerchants) Create(ctx context.Context, merchant *domain.Merchant) error {
	r.merchant = merchant
	return nil
}

func (r *memMerchants) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	if r.merchant == nil || r.merchant.ID != id {
		return nil, domain.ErrQueueNotFound
	}
	return r.merchant, nil
}

func (r *memMerchants) UpdateNotificationSettings(ctx context.Context, merchantID string, settings *domain.NotificationSettings) error {
	r.merchant.Notification = settings
	return nil
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Send(ctx context.Context, customerID, channel, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return true
}

type captureRelay struct {
	mu       sync.Mutex
	channel  string
	payloads [][]byte
}

func (r *captureRelay) Publish(ctx context.Context, channel string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channel = channel
	r.payloads = append(r.payloads, payload)
	return nil
}

type idleClock struct{}

type idleHandle struct{}

func (idleHandle) Stop() bool { return false }

func (idleClock) AfterFunc(d time.Duration, fn func()) timers.Handle { return idleHandle{} }

func setupWorker(t *testing.T) (*service.QueueService, *captureNotifier, *captureRelay, events.Dispatcher, string) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	merchants := &memMerchants{}
	svc := service.NewQueueService(service.QueueDependencies{
		QueueRepo:    &memQueues{queues: make(map[string]*domain.Queue)},
		MerchantRepo: merchants,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		Metrics:      observability.NewMetrics(),
	})

	merchant := &domain.Merchant{ID: uuid.NewString(), Name: "Nonna"}
	if err := merchants.Create(context.Background(), merchant); err != nil {
		t.Fatalf("create merchant: %v", err)
	}

	queue, err := svc.CreateQueue(context.Background(), merchant.ID, service.CreateQueueInput{
		Name:               "Main",
		MaxCapacity:        10,
		AverageServiceTime: 10,
	})
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}

	notifier := &captureNotifier{}
	relay := &captureRelay{}
	scheduler := service.NewNotificationScheduler(svc, notifier, idleClock{}, zap.NewNop())
	w := NewNotificationWorker(NotificationWorkerDeps{
		Queues:    svc,
		Scheduler: scheduler,
		Notifier:  notifier,
		Relay:     relay,
		Channel:   "waitline:events",
		Logger:    zap.NewNop(),
	})
	w.RegisterHandlers(dispatcher)

	return svc, notifier, relay, dispatcher, queue.ID
}

func TestCalledEventSendsPickupCode(t *testing.T) {
	svc, notifier, relay, _, queueID := setupWorker(t)

	entry, err := svc.AddCustomer(context.Background(), queueID, service.AddCustomerInput{
		CustomerName: "Alice",
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	called, err := svc.CallNext(context.Background(), queueID)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if called.ID != entry.ID {
		t.Fatalf("called %s, want %s", called.ID, entry.ID)
	}

	notifier.mu.Lock()
	messages := append([]string{}, notifier.messages...)
	notifier.mu.Unlock()
	if len(messages) != 1 {
		t.Fatalf("messages = %v, want exactly the called message", messages)
	}
	if !strings.Contains(messages[0], called.VerificationCode) {
		t.Fatalf("message %q missing pickup code %q", messages[0], called.VerificationCode)
	}
	if !strings.Contains(messages[0], "Alice") {
		t.Fatalf("message %q missing customer name", messages[0])
	}

	fresh, err := svc.GetEntry(context.Background(), queueID, entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if fresh.NotificationCount != 1 {
		t.Fatalf("notificationCount = %d, want 1", fresh.NotificationCount)
	}

	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.channel != "waitline:events" {
		t.Fatalf("relay channel = %q", relay.channel)
	}
	// entry_added then entry_called.
	if len(relay.payloads) != 2 {
		t.Fatalf("relayed %d events, want 2", len(relay.payloads))
	}
	var relayed events.Event
	if err := json.Unmarshal(relay.payloads[1], &relayed); err != nil {
		t.Fatalf("unmarshal relayed event: %v", err)
	}
	if relayed.Type != events.EventEntryCalled || relayed.QueueID != queueID {
		t.Fatalf("relayed event = %+v", relayed)
	}
}

func TestCompletedEventRelayed(t *testing.T) {
	svc, _, relay, _, queueID := setupWorker(t)

	entry, err := svc.AddCustomer(context.Background(), queueID, service.AddCustomerInput{CustomerName: "Alice"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.CallNext(context.Background(), queueID); err != nil {
		t.Fatalf("call: %v", err)
	}
	if _, err := svc.CompleteService(context.Background(), queueID, entry.ID, domain.EntryStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	relay.mu.Lock()
	defer relay.mu.Unlock()
	var last events.Event
	if err := json.Unmarshal(relay.payloads[len(relay.payloads)-1], &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last.Type != events.EventEntryCompleted {
		t.Fatalf("last relayed = %s, want entry_completed", last.Type)
	}
}
