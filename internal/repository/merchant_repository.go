package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/waitline/internal/domain"
)

// MerchantRepository encapsulates merchant persistence.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	UpdateNotificationSettings(ctx context.Context, merchantID string, settings *domain.NotificationSettings) error
}

type merchantRepository struct {
	pool *pgxpool.Pool
}

// NewMerchantRepository instantiates repository.
func NewMerchantRepository(pool *pgxpool.Pool) MerchantRepository {
	return &merchantRepository{pool: pool}
}

func (r *merchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	const query = `
        INSERT INTO merchants (name, phone, timezone)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		merchant.Name,
		merchant.Phone,
		merchant.Timezone,
	).Scan(&merchant.ID, &merchant.CreatedAt, &merchant.UpdatedAt)
}

// GetByID loads the merchant. Notification settings are nil when the merchant
// never configured them; callers treat that as "do not schedule".
func (r *merchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	const query = `
        SELECT id, name, phone, timezone,
               first_notification_min, final_notification_min, grace_period_min, no_show_timeout_min,
               send_no_show_warning, tpl_called, tpl_almost_ready, tpl_table_ready,
               tpl_no_show_warning, tpl_no_show_final, created_at, updated_at
        FROM merchants WHERE id=$1`

	var merchant domain.Merchant
	var first, final, grace, timeout *int
	var warn *bool
	var tplCalled, tplAlmost, tplReady, tplWarning, tplFinal *string

	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&merchant.ID,
		&merchant.Name,
		&merchant.Phone,
		&merchant.Timezone,
		&first,
		&final,
		&grace,
		&timeout,
		&warn,
		&tplCalled,
		&tplAlmost,
		&tplReady,
		&tplWarning,
		&tplFinal,
		&merchant.CreatedAt,
		&merchant.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if final != nil && timeout != nil {
		settings := &domain.NotificationSettings{
			FinalNotification: *final,
			NoShowTimeout:     *timeout,
		}
		if first != nil {
			settings.FirstNotification = *first
		}
		if grace != nil {
			settings.GracePeriod = *grace
		}
		if warn != nil {
			settings.SendNoShowWarning = *warn
		}
		templates := domain.MessageTemplates{}
		if tplCalled != nil {
			templates.Called = *tplCalled
		}
		if tplAlmost != nil {
			templates.AlmostReady = *tplAlmost
		}
		if tplReady != nil {
			templates.TableReady = *tplReady
		}
		if tplWarning != nil {
			templates.NoShowWarning = *tplWarning
		}
		if tplFinal != nil {
			templates.NoShowFinal = *tplFinal
		}
		settings.Templates = templates.WithDefaults()
		merchant.Notification = settings
	}

	return &merchant, nil
}

func (r *merchantRepository) UpdateNotificationSettings(ctx context.Context, merchantID string, settings *domain.NotificationSettings) error {
	const query = `
        UPDATE merchants SET first_notification_min=$1, final_notification_min=$2, grace_period_min=$3,
            no_show_timeout_min=$4, send_no_show_warning=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		settings.FirstNotification,
		settings.FinalNotification,
		settings.GracePeriod,
		settings.NoShowTimeout,
		settings.SendNoShowWarning,
		merchantID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
