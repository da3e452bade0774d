package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketero/queue-service/internal/domain"
)

// ErrConflict signals that a conditional update matched no row: the
// record was concurrently modified or never in the expected state.
var ErrConflict = errors.New("conflicting concurrent update")

const ticketColumns = `id, reference_code, number, national_id, phone, branch_office,
       queue_class, status, position_in_queue, estimated_wait_minutes, proximity_notified,
       advisor_id, advisor_name, module_number, created_at, updated_at`

// TicketRepository encapsulates ticket persistence. Ordering queries
// implement the assignment ordering rule: class priority rank descending,
// then creation time ascending, then id ascending.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByReferenceCode(ctx context.Context, code string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	FindActiveByNationalID(ctx context.Context, nationalID string) (*domain.Ticket, error)
	FindWaitingOrderedByPriority(ctx context.Context) ([]domain.Ticket, error)
	FindAssignedOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	Transition(ctx context.Context, ticketID int64, from, to domain.TicketStatus, now time.Time) error
	UpdateQueueState(ctx context.Context, ticket *domain.Ticket) error
	CountByStatusAndClass(ctx context.Context, status domain.TicketStatus, class domain.QueueClass) (int, error)
	CountCreatedTodayByClass(ctx context.Context, class domain.QueueClass) (int, error)
	BindToAdvisor(ctx context.Context, ticketID, advisorID int64, now time.Time) (*domain.Ticket, error)
	ReleaseAdvisor(ctx context.Context, advisorID int64, now time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO ticket (reference_code, number, national_id, phone, branch_office,
            queue_class, status, position_in_queue, estimated_wait_minutes, proximity_notified)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReferenceCode,
		ticket.Number,
		ticket.NationalID,
		ticket.Phone,
		ticket.BranchOffice,
		ticket.QueueClass,
		ticket.Status,
		ticket.Position,
		ticket.EstimatedWaitMinutes,
		ticket.ProximityNotified,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByReferenceCode(ctx context.Context, code string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket WHERE reference_code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket WHERE number=$1`
	return r.fetchSingle(ctx, query, number)
}

// FindActiveByNationalID returns the single non-terminal ticket for a
// customer identity, or pgx.ErrNoRows. Uniqueness of the active ticket is
// enforced by the store, consumed here as a precondition.
func (r *ticketRepository) FindActiveByNationalID(ctx context.Context, nationalID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket
        WHERE national_id=$1 AND status IN ('WAITING','ASSIGNED','IN_SERVICE')
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, nationalID)
}

// priorityOrder ranks queue classes for assignment; it must stay in sync
// with domain.QueueClass ranks.
const priorityOrder = `
        CASE queue_class
            WHEN 'GERENCIA' THEN 4
            WHEN 'EMPRESAS' THEN 3
            WHEN 'PERSONAL_BANKER' THEN 2
            ELSE 1
        END DESC, created_at ASC, id ASC`

func (r *ticketRepository) FindWaitingOrderedByPriority(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket
        WHERE status='WAITING' ORDER BY` + priorityOrder
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) FindAssignedOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM ticket
        WHERE status='ASSIGNED' AND updated_at < $1 ORDER BY updated_at ASC`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Transition performs the conditional status update. A zero-row result
// means the ticket left the expected state concurrently and maps to
// ErrConflict.
func (r *ticketRepository) Transition(ctx context.Context, ticketID int64, from, to domain.TicketStatus, now time.Time) error {
	const query = `
        UPDATE ticket SET status=$1, position_in_queue=NULL, updated_at=$2
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, to, now, ticketID, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateQueueState persists the recomputed position, wait estimate and
// proximity flag without touching lifecycle state.
func (r *ticketRepository) UpdateQueueState(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE ticket SET position_in_queue=$1, estimated_wait_minutes=$2,
            proximity_notified=$3, updated_at=$4
        WHERE id=$5 AND status='WAITING'`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Position,
		ticket.EstimatedWaitMinutes,
		ticket.ProximityNotified,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ticketRepository) CountByStatusAndClass(ctx context.Context, status domain.TicketStatus, class domain.QueueClass) (int, error) {
	const query = `SELECT COUNT(*) FROM ticket WHERE status=$1 AND queue_class=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, status, class).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountCreatedTodayByClass(ctx context.Context, class domain.QueueClass) (int, error) {
	const query = `SELECT COUNT(*) FROM ticket WHERE queue_class=$1 AND created_at::date = CURRENT_DATE`
	var count int
	if err := r.pool.QueryRow(ctx, query, class).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// BindToAdvisor atomically assigns a WAITING ticket to an AVAILABLE
// advisor: either both records update or neither does. A zero-row result
// on either side rolls back and returns ErrConflict.
func (r *ticketRepository) BindToAdvisor(ctx context.Context, ticketID, advisorID int64, now time.Time) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const advisorQuery = `
        UPDATE advisor SET current_tickets = current_tickets + 1,
            status = CASE WHEN current_tickets + 1 >= max_concurrent_tickets THEN 'BUSY' ELSE status END,
            updated_at = $1
        WHERE id=$2 AND status='AVAILABLE' AND current_tickets < max_concurrent_tickets
        RETURNING name, module_number`
	var advisorName string
	var moduleNumber int
	if err := tx.QueryRow(ctx, advisorQuery, now, advisorID).Scan(&advisorName, &moduleNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, err
	}

	const ticketQuery = `
        UPDATE ticket SET status='ASSIGNED', advisor_id=$1, advisor_name=$2,
            module_number=$3, position_in_queue=NULL, updated_at=$4
        WHERE id=$5 AND status='WAITING'
        RETURNING ` + ticketColumns
	row := tx.QueryRow(ctx, ticketQuery, advisorID, advisorName, moduleNumber, now, ticketID)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ReleaseAdvisor returns one unit of advisor capacity, flipping BUSY back
// to AVAILABLE below the ceiling. OFFLINE advisors keep their status.
func (r *ticketRepository) ReleaseAdvisor(ctx context.Context, advisorID int64, now time.Time) error {
	const query = `
        UPDATE advisor SET current_tickets = GREATEST(current_tickets - 1, 0),
            status = CASE WHEN status='BUSY' AND current_tickets - 1 < max_concurrent_tickets
                     THEN 'AVAILABLE' ELSE status END,
            updated_at = $1
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, now, advisorID)
	return err
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, query, arg))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ReferenceCode,
		&ticket.Number,
		&ticket.NationalID,
		&ticket.Phone,
		&ticket.BranchOffice,
		&ticket.QueueClass,
		&ticket.Status,
		&ticket.Position,
		&ticket.EstimatedWaitMinutes,
		&ticket.ProximityNotified,
		&ticket.AdvisorID,
		&ticket.AdvisorName,
		&ticket.ModuleNumber,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
