package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/events"
	"github.com/spec-kit/waitline/internal/notify"
	"github.com/spec-kit/waitline/internal/service"
)

// Relay publishes serialized events to a realtime channel. *persistence.Redis
// satisfies it; a nil relay disables the feature.
type Relay interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationWorker bridges queue events to the outbound side: it sends the
// immediate "you have been called" message, arms and clears reminder timers,
// and relays every event onto the realtime channel for dashboards.
type NotificationWorker struct {
	queues    *service.QueueService
	scheduler *service.NotificationScheduler
	notifier  notify.Notifier
	relay     Relay
	channel   string
	fallback  *domain.NotificationSettings
	logger    *zap.Logger
}

// NotificationWorkerDeps bundles collaborators for the worker. Relay may be
// nil to disable the realtime channel; Fallback supplies reminder timing for
// merchants who never configured their own.
type NotificationWorkerDeps struct {
	Queues    *service.QueueService
	Scheduler *service.NotificationScheduler
	Notifier  notify.Notifier
	Relay     Relay
	Channel   string
	Fallback  *domain.NotificationSettings
	Logger    *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(deps NotificationWorkerDeps) *NotificationWorker {
	return &NotificationWorker{
		queues:    deps.Queues,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		relay:     deps.Relay,
		channel:   deps.Channel,
		fallback:  deps.Fallback,
		logger:    deps.Logger,
	}
}

// RegisterHandlers subscribes the worker to queue events.
func (w *NotificationWorker) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventEntryCalled, w.handleCalled)
	dispatcher.Subscribe(events.EventEntryCompleted, w.handleDeparted)
	dispatcher.Subscribe(events.EventEntryRequeued, w.handleDeparted)

	for _, eventType := range []events.EventType{
		events.EventEntryAdded,
		events.EventEntryCalled,
		events.EventEntryCompleted,
		events.EventEntryRequeued,
		events.EventEntryNoShow,
		events.EventQueueAcceptingChange,
	} {
		dispatcher.Subscribe(eventType, w.relayEvent)
	}
}

// handleCalled sends the pickup-code message right away and arms the reminder
// timers for the called customer.
func (w *NotificationWorker) handleCalled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EntryCalledPayload)
	if !ok {
		w.logger.Warn("unexpected payload for entry_called", zap.String("event_id", event.ID))
		return nil
	}

	queue, err := w.queues.GetQueue(ctx, event.QueueID)
	if err != nil {
		return err
	}
	merchant, err := w.queues.GetMerchant(ctx, queue.MerchantID)
	if err != nil {
		return err
	}
	entry, err := w.queues.GetEntry(ctx, event.QueueID, payload.EntryID)
	if err != nil {
		return err
	}

	if merchant.Notification == nil && w.fallback != nil {
		withDefaults := *merchant
		withDefaults.Notification = w.fallback
		merchant = &withDefaults
	}

	templates := domain.DefaultTemplates()
	if merchant.Notification != nil {
		templates = merchant.Notification.Templates.WithDefaults()
	}
	message := service.RenderTemplate(templates.Called, service.MessageVars(merchant.Name, entry))
	if w.notifier.Send(ctx, entry.CustomerID, notify.ChannelPush, message) {
		if err := w.queues.RecordNotification(ctx, event.QueueID, entry.ID); err != nil {
			w.logger.Warn("record called notification failed", zap.Error(err))
		}
	} else {
		w.logger.Warn("called message failed",
			zap.String("customer_id", entry.CustomerID),
			zap.String("queue_id", event.QueueID))
	}

	w.scheduler.ScheduleCustomerNotifications(queue, entry, merchant)
	return nil
}

// handleDeparted drops timers for a customer who completed service or went
// back into the waiting line.
func (w *NotificationWorker) handleDeparted(ctx context.Context, event events.Event) error {
	var customerID string
	switch payload := event.Payload.(type) {
	case events.EntryCompletedPayload:
		customerID = payload.CustomerID
	case events.EntryRequeuedPayload:
		customerID = payload.CustomerID
	default:
		return nil
	}
	w.scheduler.ClearCustomerTimers(customerID)
	return nil
}

// relayEvent forwards the event as JSON to the realtime channel. Relay
// failures never block queue operations.
func (w *NotificationWorker) relayEvent(ctx context.Context, event events.Event) error {
	if w.relay == nil || w.channel == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.Warn("event marshal failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := w.relay.Publish(ctx, w.channel, payload); err != nil {
		w.logger.Warn("realtime relay failed", zap.String("event_id", event.ID), zap.Error(err))
	}
	return nil
}
