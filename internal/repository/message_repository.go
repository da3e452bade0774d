package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketero/queue-service/internal/domain"
)

const messageColumns = `id, ticket_id, address, template, delivery_status, attempt_count,
       next_attempt_at, provider_message_id, last_error, sent_at, created_at`

// MessageRepository encapsulates outbound message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.OutboundMessage) error
	GetByID(ctx context.Context, id int64) (*domain.OutboundMessage, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboundMessage, error)
	Update(ctx context.Context, message *domain.OutboundMessage) error
	CancelPendingByTicket(ctx context.Context, ticketID int64) (int, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.OutboundMessage) error {
	const query = `
        INSERT INTO outbound_message (ticket_id, address, template, delivery_status,
            attempt_count, next_attempt_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		message.TicketID,
		message.Address,
		message.Template,
		message.Status,
		message.AttemptCount,
		message.NextAttemptAt,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, id int64) (*domain.OutboundMessage, error) {
	const query = `SELECT ` + messageColumns + ` FROM outbound_message WHERE id=$1`
	return scanMessage(r.pool.QueryRow(ctx, query, id))
}

// FindDue selects PENDING messages whose next attempt time has passed.
// NULL next_attempt_at means never attempted and therefore due.
func (r *messageRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboundMessage, error) {
	const query = `SELECT ` + messageColumns + ` FROM outbound_message
        WHERE delivery_status='PENDING' AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
        ORDER BY created_at ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *messageRepository) Update(ctx context.Context, message *domain.OutboundMessage) error {
	const query = `
        UPDATE outbound_message SET delivery_status=$1, attempt_count=$2, next_attempt_at=$3,
            provider_message_id=$4, last_error=$5, sent_at=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		message.Status,
		message.AttemptCount,
		message.NextAttemptAt,
		message.ProviderMessageID,
		message.LastError,
		message.SentAt,
		message.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CancelPendingByTicket cancels every still-PENDING message for a ticket,
// used when the ticket leaves the queue before delivery.
func (r *messageRepository) CancelPendingByTicket(ctx context.Context, ticketID int64) (int, error) {
	const query = `
        UPDATE outbound_message SET delivery_status='CANCELLED', next_attempt_at=NULL
        WHERE ticket_id=$1 AND delivery_status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func scanMessage(row rowScanner) (*domain.OutboundMessage, error) {
	var message domain.OutboundMessage
	if err := row.Scan(
		&message.ID,
		&message.TicketID,
		&message.Address,
		&message.Template,
		&message.Status,
		&message.AttemptCount,
		&message.NextAttemptAt,
		&message.ProviderMessageID,
		&message.LastError,
		&message.SentAt,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &message, nil
}

func scanMessages(rows pgx.Rows) ([]domain.OutboundMessage, error) {
	var result []domain.OutboundMessage
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *message)
	}
	return result, rows.Err()
}
