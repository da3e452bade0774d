package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketero/queue-service/internal/domain"
)

const advisorColumns = `id, name, email, password_hash, module_number, status,
       current_tickets, max_concurrent_tickets, created_at, updated_at`

// AdvisorRepository encapsulates advisor persistence.
type AdvisorRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Advisor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Advisor, error)
	List(ctx context.Context) ([]domain.Advisor, error)
	FindAvailableOrderedByLoad(ctx context.Context) ([]domain.Advisor, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AdvisorStatus, now time.Time) error
	CountByStatus(ctx context.Context) (map[domain.AdvisorStatus]int, error)
}

type advisorRepository struct {
	pool *pgxpool.Pool
}

// NewAdvisorRepository instantiates repository.
func NewAdvisorRepository(pool *pgxpool.Pool) AdvisorRepository {
	return &advisorRepository{pool: pool}
}

func (r *advisorRepository) GetByID(ctx context.Context, id int64) (*domain.Advisor, error) {
	const query = `SELECT ` + advisorColumns + ` FROM advisor WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *advisorRepository) GetByEmail(ctx context.Context, email string) (*domain.Advisor, error) {
	const query = `SELECT ` + advisorColumns + ` FROM advisor WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *advisorRepository) List(ctx context.Context) ([]domain.Advisor, error) {
	const query = `SELECT ` + advisorColumns + ` FROM advisor ORDER BY module_number ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAdvisors(rows)
}

// FindAvailableOrderedByLoad implements the load-balancing order: fewest
// current tickets first, then longest idle, then id for determinism.
func (r *advisorRepository) FindAvailableOrderedByLoad(ctx context.Context) ([]domain.Advisor, error) {
	const query = `SELECT ` + advisorColumns + ` FROM advisor
        WHERE status='AVAILABLE' AND current_tickets < max_concurrent_tickets
        ORDER BY current_tickets ASC, updated_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAdvisors(rows)
}

func (r *advisorRepository) UpdateStatus(ctx context.Context, id int64, status domain.AdvisorStatus, now time.Time) error {
	const query = `UPDATE advisor SET status=$1, updated_at=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, now, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *advisorRepository) CountByStatus(ctx context.Context) (map[domain.AdvisorStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM advisor GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AdvisorStatus]int)
	for rows.Next() {
		var status domain.AdvisorStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *advisorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Advisor, error) {
	var advisor domain.Advisor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&advisor.ID,
		&advisor.Name,
		&advisor.Email,
		&advisor.PasswordHash,
		&advisor.ModuleNumber,
		&advisor.Status,
		&advisor.CurrentTickets,
		&advisor.MaxConcurrentTickets,
		&advisor.CreatedAt,
		&advisor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &advisor, nil
}

func scanAdvisors(rows pgx.Rows) ([]domain.Advisor, error) {
	var result []domain.Advisor
	for rows.Next() {
		var advisor domain.Advisor
		if err := rows.Scan(
			&advisor.ID,
			&advisor.Name,
			&advisor.Email,
			&advisor.PasswordHash,
			&advisor.ModuleNumber,
			&advisor.Status,
			&advisor.CurrentTickets,
			&advisor.MaxConcurrentTickets,
			&advisor.CreatedAt,
			&advisor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, advisor)
	}
	return result, rows.Err()
}
