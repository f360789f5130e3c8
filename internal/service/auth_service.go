package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/waitline/internal/auth"
	"github.com/spec-kit/waitline/internal/config"
	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/repository"
)

// AuthService coordinates merchant onboarding and staff login.
type AuthService struct {
	merchants  repository.MerchantRepository
	staff      repository.StaffRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	MerchantRepo repository.MerchantRepository
	StaffRepo    repository.StaffRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		merchants:  deps.MerchantRepo,
		staff:      deps.StaffRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterMerchant creates a merchant together with its owner account.
func (s *AuthService) RegisterMerchant(ctx context.Context, merchantName, ownerName, email, password string) (*domain.Merchant, *domain.StaffMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.staff.GetByEmail(ctx, email); err == nil {
		return nil, nil, errors.New("email already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	merchant := &domain.Merchant{
		Name:     strings.TrimSpace(merchantName),
		Timezone: "UTC",
	}
	if err := s.merchants.Create(ctx, merchant); err != nil {
		return nil, nil, err
	}

	owner := &domain.StaffMember{
		MerchantID:   merchant.ID,
		Name:         strings.TrimSpace(ownerName),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.StaffRoleOwner,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, owner); err != nil {
		return nil, nil, err
	}
	return merchant, owner, nil
}

// Login authenticates a staff member and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, errors.New("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !staff.IsActive {
		return nil, "", time.Time{}, errors.New("account disabled")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(staff)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return staff, token, expiresAt, nil
}
