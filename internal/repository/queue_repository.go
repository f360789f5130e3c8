package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/waitline/internal/domain"
)

// QueueRepository encapsulates queue persistence. The aggregate is loaded and
// saved whole; entry rows ride along with their queue.
type QueueRepository interface {
	Create(ctx context.Context, queue *domain.Queue) error
	GetByID(ctx context.Context, id string) (*domain.Queue, error)
	Save(ctx context.Context, queue *domain.Queue) error
	ListByMerchant(ctx context.Context, merchantID string) ([]domain.Queue, error)
}

type queueRepository struct {
	pool *pgxpool.Pool
}

// NewQueueRepository instantiates repository.
func NewQueueRepository(pool *pgxpool.Pool) QueueRepository {
	return &queueRepository{pool: pool}
}

func (r *queueRepository) Create(ctx context.Context, queue *domain.Queue) error {
	const query = `
        INSERT INTO queues (merchant_id, name, max_capacity, average_service_time, accepting_customers)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		queue.MerchantID,
		queue.Name,
		queue.MaxCapacity,
		queue.AverageServiceTime,
		queue.AcceptingCustomers,
	).Scan(&queue.ID, &queue.CreatedAt, &queue.UpdatedAt)
}

func (r *queueRepository) GetByID(ctx context.Context, id string) (*domain.Queue, error) {
	const queueQuery = `
        SELECT id, merchant_id, name, max_capacity, average_service_time, accepting_customers,
               no_show_count, served_count, created_at, updated_at
        FROM queues WHERE id=$1`

	var queue domain.Queue
	if err := r.pool.QueryRow(ctx, queueQuery, id).Scan(
		&queue.ID,
		&queue.MerchantID,
		&queue.Name,
		&queue.MaxCapacity,
		&queue.AverageServiceTime,
		&queue.AcceptingCustomers,
		&queue.NoShowCount,
		&queue.ServedCount,
		&queue.CreatedAt,
		&queue.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQueueNotFound
		}
		return nil, err
	}

	const entryQuery = `
        SELECT id, customer_id, customer_name, customer_phone, party_size, notes, position, status,
               estimated_wait, verification_code, joined_at, called_at, served_at, completed_at,
               requeued_at, last_notified, notification_count
        FROM queue_entries WHERE queue_id=$1 ORDER BY joined_at ASC`

	rows, err := r.pool.Query(ctx, entryQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.CustomerID,
			&entry.CustomerName,
			&entry.CustomerPhone,
			&entry.PartySize,
			&entry.Notes,
			&entry.Position,
			&entry.Status,
			&entry.EstimatedWait,
			&entry.VerificationCode,
			&entry.JoinedAt,
			&entry.CalledAt,
			&entry.ServedAt,
			&entry.CompletedAt,
			&entry.RequeuedAt,
			&entry.LastNotified,
			&entry.NotificationCount,
		); err != nil {
			return nil, err
		}
		queue.Entries = append(queue.Entries, &entry)
	}
	return &queue, rows.Err()
}

// Save writes the queue row and upserts all entries in one transaction so a
// mutation either lands whole or not at all.
func (r *queueRepository) Save(ctx context.Context, queue *domain.Queue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const queueQuery = `
        UPDATE queues SET name=$1, max_capacity=$2, average_service_time=$3, accepting_customers=$4,
            no_show_count=$5, served_count=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := tx.Exec(ctx, queueQuery,
		queue.Name,
		queue.MaxCapacity,
		queue.AverageServiceTime,
		queue.AcceptingCustomers,
		queue.NoShowCount,
		queue.ServedCount,
		queue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrQueueNotFound
	}

	const entryQuery = `
        INSERT INTO queue_entries (id, queue_id, customer_id, customer_name, customer_phone, party_size,
            notes, position, status, estimated_wait, verification_code, joined_at, called_at, served_at,
            completed_at, requeued_at, last_notified, notification_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        ON CONFLICT (id) DO UPDATE SET
            position=EXCLUDED.position, status=EXCLUDED.status,
            verification_code=EXCLUDED.verification_code, called_at=EXCLUDED.called_at,
            served_at=EXCLUDED.served_at, completed_at=EXCLUDED.completed_at,
            requeued_at=EXCLUDED.requeued_at, last_notified=EXCLUDED.last_notified,
            notification_count=EXCLUDED.notification_count`
	for _, entry := range queue.Entries {
		if _, err := tx.Exec(ctx, entryQuery,
			entry.ID,
			queue.ID,
			entry.CustomerID,
			entry.CustomerName,
			entry.CustomerPhone,
			entry.PartySize,
			entry.Notes,
			entry.Position,
			entry.Status,
			entry.EstimatedWait,
			entry.VerificationCode,
			entry.JoinedAt,
			entry.CalledAt,
			entry.ServedAt,
			entry.CompletedAt,
			entry.RequeuedAt,
			entry.LastNotified,
			entry.NotificationCount,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *queueRepository) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Queue, error) {
	const query = `
        SELECT id, merchant_id, name, max_capacity, average_service_time, accepting_customers,
               no_show_count, served_count, created_at, updated_at
        FROM queues WHERE merchant_id=$1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queues := []domain.Queue{}
	for rows.Next() {
		var queue domain.Queue
		if err := rows.Scan(
			&queue.ID,
			&queue.MerchantID,
			&queue.Name,
			&queue.MaxCapacity,
			&queue.AverageServiceTime,
			&queue.AcceptingCustomers,
			&queue.NoShowCount,
			&queue.ServedCount,
			&queue.CreatedAt,
			&queue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}
