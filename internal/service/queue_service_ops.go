package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/events"
)

// afterCall records metrics and publishes the called event once the
// transition is saved. Notification scheduling hangs off this event; the
// aggregate itself stays free of delivery concerns.
func (s *QueueService) afterCall(ctx context.Context, queueID string, entry *domain.Entry, outOfOrder bool) {
	s.metrics.RecordQueueOp(queueID, "call")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryCalled,
		QueueID: queueID,
		Payload: events.EntryCalledPayload{
			EntryID:       entry.ID,
			CustomerID:    entry.CustomerID,
			CustomerName:  entry.CustomerName,
			EstimatedWait: entry.EstimatedWait,
			OutOfOrder:    outOfOrder,
		},
	})
}

// CompleteService transitions a called or serving entry to a terminal status
// chosen by staff and recomputes waiting positions.
func (s *QueueService) CompleteService(ctx context.Context, queueID, entryID string, status domain.EntryStatus) (*domain.Entry, error) {
	var completed *domain.Entry
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if err := q.Complete(entry, status, s.now()); err != nil {
			return err
		}
		q.RecomputePositions()
		completed = entry
		return nil
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordQueueOp(queueID, string(completed.Status))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryCompleted,
		QueueID: queueID,
		Payload: events.EntryCompletedPayload{
			EntryID:    completed.ID,
			CustomerID: completed.CustomerID,
			Status:     completed.Status,
		},
	})
	return completed, nil
}

// MarkNoShow is the no-show timer's path into the aggregate: the entry is
// released, positions recompute and the queue's no-show counter moves. Safe to
// race against staff actions: a non-called entry fails the transition check.
func (s *QueueService) MarkNoShow(ctx context.Context, queueID, entryID string) error {
	var noShowCount int
	var customerID string
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if entry == nil || entry.Status != domain.EntryStatusCalled {
			return domain.ErrEntryNotFound
		}
		if err := q.Complete(entry, domain.EntryStatusNoShow, s.now()); err != nil {
			return err
		}
		q.RecomputePositions()
		noShowCount = q.NoShowCount
		customerID = entry.CustomerID
		return nil
	}); err != nil {
		return err
	}

	s.metrics.RecordQueueOp(queueID, "no_show")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryNoShow,
		QueueID: queueID,
		Payload: events.EntryNoShowPayload{
			EntryID:     entryID,
			CustomerID:  customerID,
			NoShowCount: noShowCount,
		},
	})
	return nil
}

// CancelEntry withdraws a customer's own entry from the line. Works from any
// active state; the freed position closes up immediately.
func (s *QueueService) CancelEntry(ctx context.Context, queueID, entryID string) (*domain.Entry, error) {
	var cancelled *domain.Entry
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if err := q.Cancel(entry, s.now()); err != nil {
			return err
		}
		q.RecomputePositions()
		cancelled = entry
		return nil
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordQueueOp(queueID, "cancel")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryCompleted,
		QueueID: queueID,
		Payload: events.EntryCompletedPayload{
			EntryID:    cancelled.ID,
			CustomerID: cancelled.CustomerID,
			Status:     cancelled.Status,
		},
	})
	return cancelled, nil
}

// VerifyAndSeat checks a presented pickup code and moves the entry to serving.
func (s *QueueService) VerifyAndSeat(ctx context.Context, queueID, entryID, code string) (*domain.Entry, error) {
	var seated *domain.Entry
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if entry == nil {
			return domain.ErrEntryNotFound
		}
		if !q.VerifyCode(entry, code) {
			return domain.ErrEntryNotFound
		}
		if err := q.StartServing(entry, s.now()); err != nil {
			return err
		}
		seated = entry
		return nil
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordQueueOp(queueID, "seat")
	return seated, nil
}

// Requeue puts a completed entry back at the end of the line ("customer came
// back"). Capacity applies as if joining fresh.
func (s *QueueService) Requeue(ctx context.Context, queueID, entryID string) (*domain.Entry, error) {
	var requeued *domain.Entry
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if err := q.Requeue(entry, s.now()); err != nil {
			return err
		}
		q.RecomputePositions()
		requeued = entry
		return nil
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordQueueOp(queueID, "requeue")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventEntryRequeued,
		QueueID: queueID,
		Payload: events.EntryRequeuedPayload{
			EntryID:    requeued.ID,
			CustomerID: requeued.CustomerID,
			Position:   requeued.Position,
		},
	})
	return requeued, nil
}

// ToggleAccepting flips whether the queue takes new customers.
func (s *QueueService) ToggleAccepting(ctx context.Context, queueID string) (bool, error) {
	var accepting bool
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		accepting = q.ToggleAccepting()
		return nil
	}); err != nil {
		return false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventQueueAcceptingChange,
		QueueID: queueID,
		Payload: events.QueueAcceptingChangedPayload{Accepting: accepting},
	})
	return accepting, nil
}

// StopAccepting closes the queue to new customers.
func (s *QueueService) StopAccepting(ctx context.Context, queueID string) error {
	if _, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		q.StopAccepting()
		return nil
	}); err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventQueueAcceptingChange,
		QueueID: queueID,
		Payload: events.QueueAcceptingChangedPayload{Accepting: false},
	})
	return nil
}

// GetEntry re-reads current entry state. Timer handlers call this at fire time
// instead of acting on the snapshot captured when they were scheduled.
func (s *QueueService) GetEntry(ctx context.Context, queueID, entryID string) (*domain.Entry, error) {
	queue, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	entry := queue.FindEntry(entryID)
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

// RecordNotification stamps lastNotified and bumps the per-entry counter after
// a successful send.
func (s *QueueService) RecordNotification(ctx context.Context, queueID, entryID string) error {
	_, err := s.withQueue(ctx, queueID, func(q *domain.Queue) error {
		entry := q.FindEntry(entryID)
		if entry == nil {
			return domain.ErrEntryNotFound
		}
		notified := s.now()
		entry.LastNotified = &notified
		entry.NotificationCount++
		return nil
	})
	return err
}

// Stats summarizes the queue for the dashboard.
func (s *QueueService) Stats(ctx context.Context, queueID string) (*QueueStats, error) {
	queue, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	return &QueueStats{
		QueueID:            queue.ID,
		Waiting:            queue.WaitingCount(),
		Active:             queue.ActiveCount(),
		ServedCount:        queue.ServedCount,
		NoShowCount:        queue.NoShowCount,
		AverageServiceTime: queue.AverageServiceTime,
		AcceptingCustomers: queue.AcceptingCustomers,
	}, nil
}

func (s *QueueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
