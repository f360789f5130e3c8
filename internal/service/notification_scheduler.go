package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/notify"
	"github.com/spec-kit/waitline/internal/timers"
)

// QueueGateway is the scheduler's narrow view of the queue service: re-read an
// entry at fire time, force a no-show, record a delivered message. The
// scheduler keeps no entry state of its own beyond identities.
type QueueGateway interface {
	GetEntry(ctx context.Context, queueID, entryID string) (*domain.Entry, error)
	MarkNoShow(ctx context.Context, queueID, entryID string) error
	RecordNotification(ctx context.Context, queueID, entryID string) error
}

// timerSet tracks the live timers for one called customer.
type timerSet struct {
	queueID string
	entryID string
	first   timers.Handle
	final   timers.Handle
	warning timers.Handle
	noShow  timers.Handle
}

func (t *timerSet) stopAll() {
	for _, handle := range []timers.Handle{t.first, t.final, t.warning, t.noShow} {
		if handle != nil {
			handle.Stop()
		}
	}
}

// NotificationScheduler owns the per-customer reminder and no-show timers.
// Scheduling for a customer always clears any pre-existing set first, so at
// most one set is live per customer and re-calling a customer never leaks a
// stale timer.
type NotificationScheduler struct {
	queues   QueueGateway
	notifier notify.Notifier
	clock    timers.Scheduler
	logger   *zap.Logger

	mu   sync.Mutex
	sets map[string]*timerSet // keyed by customer id
}

// NewNotificationScheduler constructs the scheduler.
func NewNotificationScheduler(queues QueueGateway, notifier notify.Notifier, clock timers.Scheduler, logger *zap.Logger) *NotificationScheduler {
	return &NotificationScheduler{
		queues:   queues,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		sets:     make(map[string]*timerSet),
	}
}

// ScheduleCustomerNotifications arms the reminder timers for a just-called
// customer. Missing merchant notification settings are tolerated: nothing is
// scheduled and a warning is logged.
func (s *NotificationScheduler) ScheduleCustomerNotifications(queue *domain.Queue, entry *domain.Entry, merchant *domain.Merchant) {
	if merchant == nil || merchant.Notification == nil {
		s.logger.Warn("merchant notification settings missing; skipping scheduling",
			zap.String("queue_id", queue.ID),
			zap.String("customer_id", entry.CustomerID))
		return
	}
	cfg := *merchant.Notification
	restaurant := merchant.Name
	customerID := entry.CustomerID

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(customerID)

	set := &timerSet{queueID: queue.ID, entryID: entry.ID}
	s.sets[customerID] = set

	wait := entry.EstimatedWait
	if cfg.FirstNotification > 0 {
		set.first = s.clock.AfterFunc(minutesFromNow(wait-cfg.FirstNotification), func() {
			s.fireFirst(customerID, restaurant, cfg)
		})
	}
	set.final = s.clock.AfterFunc(minutesFromNow(wait-cfg.FinalNotification), func() {
		s.fireFinal(customerID, restaurant, cfg)
	})
}

// ScheduleNoShowWarning arms the grace-period chain for a customer whose
// table-ready notice already went out.
func (s *NotificationScheduler) ScheduleNoShowWarning(queue *domain.Queue, entry *domain.Entry, merchant *domain.Merchant) {
	if merchant == nil || merchant.Notification == nil {
		s.logger.Warn("merchant notification settings missing; skipping no-show chain",
			zap.String("queue_id", queue.ID),
			zap.String("customer_id", entry.CustomerID))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armNoShowWarningLocked(entry.CustomerID, merchant.Name, *merchant.Notification)
}

func (s *NotificationScheduler) armNoShowWarningLocked(customerID, restaurant string, cfg domain.NotificationSettings) {
	set, ok := s.sets[customerID]
	if !ok {
		return
	}
	set.warning = s.clock.AfterFunc(minutesFromNow(cfg.GracePeriod), func() {
		s.fireWarning(customerID, restaurant, cfg)
	})
}

// fireFirst sends the "almost ready" reminder.
func (s *NotificationScheduler) fireFirst(customerID, restaurant string, cfg domain.NotificationSettings) {
	ctx := context.Background()
	entry, ok := s.entryStillCalled(ctx, customerID)
	if !ok {
		return
	}
	vars := MessageVars(restaurant, entry)
	vars["Minutes"] = strconv.Itoa(cfg.FirstNotification)
	s.deliver(ctx, customerID, RenderTemplate(cfg.Templates.AlmostReady, vars))
}

// fireFinal sends "table ready" and, when enabled, chains into the no-show
// warning.
func (s *NotificationScheduler) fireFinal(customerID, restaurant string, cfg domain.NotificationSettings) {
	ctx := context.Background()
	entry, ok := s.entryStillCalled(ctx, customerID)
	if !ok {
		return
	}
	s.deliver(ctx, customerID, RenderTemplate(cfg.Templates.TableReady, MessageVars(restaurant, entry)))

	if !cfg.SendNoShowWarning {
		return
	}
	s.mu.Lock()
	s.armNoShowWarningLocked(customerID, restaurant, cfg)
	s.mu.Unlock()
}

// fireWarning sends the hold warning and arms the terminal no-show timer.
func (s *NotificationScheduler) fireWarning(customerID, restaurant string, cfg domain.NotificationSettings) {
	ctx := context.Background()
	entry, ok := s.entryStillCalled(ctx, customerID)
	if !ok {
		return
	}
	remaining := cfg.NoShowTimeout - cfg.GracePeriod
	vars := MessageVars(restaurant, entry)
	vars["Timeout"] = strconv.Itoa(remaining)
	s.deliver(ctx, customerID, RenderTemplate(cfg.Templates.NoShowWarning, vars))

	s.mu.Lock()
	if set, ok := s.sets[customerID]; ok {
		set.noShow = s.clock.AfterFunc(minutesFromNow(remaining), func() {
			s.handleNoShow(customerID, restaurant, cfg)
		})
	}
	s.mu.Unlock()
}

// handleNoShow releases the table. This is the scheduler's single mutating
// path into the aggregate; every other timer is a pure observer.
func (s *NotificationScheduler) handleNoShow(customerID, restaurant string, cfg domain.NotificationSettings) {
	ctx := context.Background()

	s.mu.Lock()
	set, ok := s.sets[customerID]
	s.mu.Unlock()
	if !ok {
		return
	}

	entry, err := s.queues.GetEntry(ctx, set.queueID, set.entryID)
	if err != nil || entry.Status != domain.EntryStatusCalled {
		// Customer already moved on; nothing to release.
		s.ClearCustomerTimers(customerID)
		return
	}

	if err := s.queues.MarkNoShow(ctx, set.queueID, set.entryID); err != nil {
		s.logger.Warn("no-show transition rejected",
			zap.String("customer_id", customerID),
			zap.Error(err))
		s.ClearCustomerTimers(customerID)
		return
	}

	s.ClearCustomerTimers(customerID)

	vars := MessageVars(restaurant, entry)
	message := RenderTemplate(cfg.Templates.NoShowFinal, vars)
	if !s.notifier.Send(ctx, customerID, notify.ChannelPush, message) {
		s.logger.Warn("no-show release message failed", zap.String("customer_id", customerID))
	}
}

// entryStillCalled re-reads the entry and reports whether the reminder is
// still relevant. A customer who completed, cancelled or was requeued gets no
// further messages.
func (s *NotificationScheduler) entryStillCalled(ctx context.Context, customerID string) (*domain.Entry, bool) {
	s.mu.Lock()
	set, ok := s.sets[customerID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	entry, err := s.queues.GetEntry(ctx, set.queueID, set.entryID)
	if err != nil {
		s.logger.Warn("entry lookup failed at timer fire",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, false
	}
	if entry.Status != domain.EntryStatusCalled {
		return nil, false
	}
	return entry, true
}

// deliver sends through the notifier. Failures are logged and swallowed; a
// failed send never aborts the timer chain or touches entry state.
func (s *NotificationScheduler) deliver(ctx context.Context, customerID, message string) {
	s.mu.Lock()
	set, ok := s.sets[customerID]
	s.mu.Unlock()

	if !s.notifier.Send(ctx, customerID, notify.ChannelPush, message) {
		s.logger.Warn("notification send failed", zap.String("customer_id", customerID))
		return
	}
	if ok {
		if err := s.queues.RecordNotification(ctx, set.queueID, set.entryID); err != nil {
			s.logger.Warn("record notification failed", zap.Error(err))
		}
	}
}

// ClearCustomerTimers cancels any live timers for the customer. Safe when no
// timers exist and safe to call repeatedly.
func (s *NotificationScheduler) ClearCustomerTimers(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(customerID)
}

func (s *NotificationScheduler) clearLocked(customerID string) {
	if set, ok := s.sets[customerID]; ok {
		set.stopAll()
		delete(s.sets, customerID)
	}
}

// ClearAllTimers cancels everything; used at shutdown so no scheduled work
// dangles past the process.
func (s *NotificationScheduler) ClearAllTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for customerID, set := range s.sets {
		set.stopAll()
		delete(s.sets, customerID)
	}
}

// minutesFromNow clamps negative offsets to fire immediately.
func minutesFromNow(minutes int) time.Duration {
	if minutes < 0 {
		minutes = 0
	}
	return time.Duration(minutes) * time.Minute
}
