package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/waitline/internal/api/dto"
	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/service"
	apperrors "github.com/spec-kit/waitline/pkg/util"
)

// EntriesHandler exposes the public, unauthenticated customer endpoints: join
// a queue, check your spot, and leave the line.
type EntriesHandler struct {
	service *service.QueueService
}

// NewEntriesHandler constructs handler.
func NewEntriesHandler(queueService *service.QueueService) *EntriesHandler {
	return &EntriesHandler{service: queueService}
}

// Join POST /queues/:id/entries.
func (h *EntriesHandler) Join(c *fiber.Ctx) error {
	var req dto.JoinQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerName == "" {
		return apperrors.NewValidationError("customer_name required", nil)
	}

	entry, err := h.service.AddCustomer(c.Context(), c.Params("id"), service.AddCustomerInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PartySize:     req.PartySize,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entryResponse(entry, true)})
}

// Status GET /queues/:id/entries/:entryID.
func (h *EntriesHandler) Status(c *fiber.Ctx) error {
	entry, err := h.service.GetEntry(c.Context(), c.Params("id"), c.Params("entryID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry, true)})
}

// Leave DELETE /queues/:id/entries/:entryID.
func (h *EntriesHandler) Leave(c *fiber.Ctx) error {
	entry, err := h.service.CancelEntry(c.Context(), c.Params("id"), c.Params("entryID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry, false)})
}

// entryResponse maps an entry to its API view. The pickup code is only
// included for the customer-facing view and only once the entry is called.
func entryResponse(entry *domain.Entry, includeCode bool) dto.EntryResponse {
	resp := dto.EntryResponse{
		ID:            entry.ID,
		CustomerID:    entry.CustomerID,
		CustomerName:  entry.CustomerName,
		PartySize:     entry.PartySize,
		Position:      entry.Position,
		Status:        entry.Status,
		EstimatedWait: entry.EstimatedWait,
		JoinedAt:      entry.JoinedAt,
		CalledAt:      entry.CalledAt,
	}
	if includeCode && entry.Status == domain.EntryStatusCalled {
		resp.Code = entry.VerificationCode
	}
	return resp
}
