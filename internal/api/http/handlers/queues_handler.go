package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/waitline/internal/api/dto"
	"github.com/spec-kit/waitline/internal/auth"
	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/service"
	apperrors "github.com/spec-kit/waitline/pkg/util"
)

// QueuesHandler exposes the staff dashboard queue operations.
type QueuesHandler struct {
	service *service.QueueService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queueService *service.QueueService) *QueuesHandler {
	return &QueuesHandler{service: queueService}
}

// merchantQueue loads the queue from the :id param and verifies it belongs to
// the authenticated staff member's merchant.
func (h *QueuesHandler) merchantQueue(c *fiber.Ctx) (*domain.Queue, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	queue, err := h.service.GetQueue(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if queue.MerchantID != principal.Staff.MerchantID {
		return nil, apperrors.NewForbidden("queue belongs to another merchant")
	}
	return queue, nil
}

// Create POST /staff/queues.
func (h *QueuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.CreateQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	queue, err := h.service.CreateQueue(c.Context(), principal.Staff.MerchantID, service.CreateQueueInput{
		Name:               req.Name,
		MaxCapacity:        req.MaxCapacity,
		AverageServiceTime: req.AverageServiceTime,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": queueResponse(queue, false)})
}

// List GET /staff/queues.
func (h *QueuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	queues, err := h.service.ListQueues(c.Context(), principal.Staff.MerchantID)
	if err != nil {
		return err
	}
	items := make([]dto.QueueResponse, 0, len(queues))
	for i := range queues {
		items = append(items, queueResponse(&queues[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/queues/:id.
func (h *QueuesHandler) Get(c *fiber.Ctx) error {
	queue, err := h.merchantQueue(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queueResponse(queue, true)})
}

// CallNext POST /staff/queues/:id/call-next. An empty waiting line is not an
// error; the response carries a null entry.
func (h *QueuesHandler) CallNext(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	entry, err := h.service.CallNext(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if entry == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": staffEntryResponse(entry)})
}

// CallSpecific POST /staff/queues/:id/call.
func (h *QueuesHandler) CallSpecific(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	var req dto.CallSpecificRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EntryID == "" {
		return apperrors.NewValidationError("entry_id required", nil)
	}
	entry, err := h.service.CallSpecific(c.Context(), c.Params("id"), req.EntryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffEntryResponse(entry)})
}

// Complete POST /staff/queues/:id/complete.
func (h *QueuesHandler) Complete(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EntryID == "" {
		return apperrors.NewValidationError("entry_id required", nil)
	}
	entry, err := h.service.CompleteService(c.Context(), c.Params("id"), req.EntryID, domain.EntryStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffEntryResponse(entry)})
}

// Verify POST /staff/queues/:id/verify.
func (h *QueuesHandler) Verify(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EntryID == "" || req.Code == "" {
		return apperrors.NewValidationError("entry_id and code required", nil)
	}
	entry, err := h.service.VerifyAndSeat(c.Context(), c.Params("id"), req.EntryID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffEntryResponse(entry)})
}

// Requeue POST /staff/queues/:id/requeue.
func (h *QueuesHandler) Requeue(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	var req dto.RequeueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EntryID == "" {
		return apperrors.NewValidationError("entry_id required", nil)
	}
	entry, err := h.service.Requeue(c.Context(), c.Params("id"), req.EntryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffEntryResponse(entry)})
}

// ToggleAccepting POST /staff/queues/:id/accepting/toggle.
func (h *QueuesHandler) ToggleAccepting(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	accepting, err := h.service.ToggleAccepting(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"accepting_customers": accepting}})
}

// StopAccepting POST /staff/queues/:id/accepting/stop.
func (h *QueuesHandler) StopAccepting(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	if err := h.service.StopAccepting(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"accepting_customers": false}})
}

// Stats GET /staff/queues/:id/stats.
func (h *QueuesHandler) Stats(c *fiber.Ctx) error {
	if _, err := h.merchantQueue(c); err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.QueueStatsResponse{
		QueueID:            stats.QueueID,
		Waiting:            stats.Waiting,
		Active:             stats.Active,
		ServedCount:        stats.ServedCount,
		NoShowCount:        stats.NoShowCount,
		AverageServiceTime: stats.AverageServiceTime,
		AcceptingCustomers: stats.AcceptingCustomers,
	}})
}

// staffEntryResponse is the dashboard view; it always carries the pickup code
// for called entries.
func staffEntryResponse(entry *domain.Entry) dto.EntryResponse {
	return entryResponse(entry, true)
}

func queueResponse(queue *domain.Queue, includeEntries bool) dto.QueueResponse {
	resp := dto.QueueResponse{
		ID:                 queue.ID,
		Name:               queue.Name,
		MaxCapacity:        queue.MaxCapacity,
		AverageServiceTime: queue.AverageServiceTime,
		AcceptingCustomers: queue.AcceptingCustomers,
		Waiting:            queue.WaitingCount(),
		Active:             queue.ActiveCount(),
	}
	if includeEntries {
		resp.Entries = make([]dto.EntryResponse, 0, len(queue.Entries))
		for _, entry := range queue.Entries {
			if entry.Status.Active() {
				resp.Entries = append(resp.Entries, staffEntryResponse(entry))
			}
		}
	}
	return resp
}
