package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/waitline/internal/api/dto"
	"github.com/spec-kit/waitline/internal/auth"
	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/repository"
	"github.com/spec-kit/waitline/internal/service"
	apperrors "github.com/spec-kit/waitline/pkg/util"
)

// StaffHandler exposes merchant onboarding, staff login and merchant
// notification settings.
type StaffHandler struct {
	authService *service.AuthService
	merchants   repository.MerchantRepository
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, merchants repository.MerchantRepository) *StaffHandler {
	return &StaffHandler{authService: authService, merchants: merchants}
}

// Register handles POST /auth/merchants/register.
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MerchantName == "" || req.OwnerName == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("merchant_name, owner_name, email, password required", nil)
	}

	merchant, owner, err := h.authService.RegisterMerchant(c.Context(), req.MerchantName, req.OwnerName, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"merchant": fiber.Map{"id": merchant.ID, "name": merchant.Name},
			"owner":    staffResponse(owner),
		},
	})
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	staff, token, exp, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// UpdateNotificationSettings handles PUT /staff/merchant/notification-settings.
// Owner only; enforced by route middleware.
func (h *StaffHandler) UpdateNotificationSettings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.NotificationSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FinalNotification < 0 || req.GracePeriod < 0 || req.NoShowTimeout <= 0 {
		return apperrors.NewValidationError("timing values must be positive", nil)
	}
	if req.NoShowTimeout <= req.GracePeriod {
		return apperrors.NewValidationError("no_show_timeout_minutes must exceed grace_period_minutes", nil)
	}

	settings := &domain.NotificationSettings{
		FirstNotification: req.FirstNotification,
		FinalNotification: req.FinalNotification,
		GracePeriod:       req.GracePeriod,
		NoShowTimeout:     req.NoShowTimeout,
		SendNoShowWarning: req.SendNoShowWarning,
		Templates: domain.MessageTemplates{
			Called:        req.TemplateCalled,
			AlmostReady:   req.TemplateAlmostReady,
			TableReady:    req.TemplateTableReady,
			NoShowWarning: req.TemplateNoShowWarning,
			NoShowFinal:   req.TemplateNoShowFinal,
		}.WithDefaults(),
	}
	if err := h.merchants.UpdateNotificationSettings(c.Context(), principal.Staff.MerchantID, settings); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:         staff.ID,
		MerchantID: staff.MerchantID,
		Name:       staff.Name,
		Email:      staff.Email,
		Role:       staff.Role,
	}
}
