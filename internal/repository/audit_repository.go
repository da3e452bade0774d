package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketero/queue-service/internal/domain"
)

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
	ListRecent(ctx context.Context, limit, offset int) ([]domain.AuditEvent, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO audit_event (event_type, actor, actor_type, ticket_number,
            previous_state, new_state, detail)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, ts`
	return r.pool.QueryRow(ctx, query,
		event.EventType,
		event.Actor,
		event.ActorType,
		event.TicketNumber,
		event.PreviousState,
		event.NewState,
		detail,
	).Scan(&event.ID, &event.Timestamp)
}

func (r *auditRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ts, event_type, actor, actor_type, ticket_number, previous_state, new_state, detail
        FROM audit_event ORDER BY ts DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var detail []byte
		if err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&event.EventType,
			&event.Actor,
			&event.ActorType,
			&event.TicketNumber,
			&event.PreviousState,
			&event.NewState,
			&detail,
		); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, err
			}
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
