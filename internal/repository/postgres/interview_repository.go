package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/repository"
)

// InterviewRepository implements repository.InterviewRepository using PostgreSQL.
type InterviewRepository struct {
	db *sqlx.DB
}

// NewInterviewRepository constructs a new repository.
func NewInterviewRepository(db *sqlx.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

type interviewRow struct {
	ID        string    `db:"id"`
	Role      string    `db:"role"`
	Level     string    `db:"level"`
	Type      string    `db:"type"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Get fetches an interview by id.
func (r *InterviewRepository) Get(ctx context.Context, id string) (*domain.Interview, error) {
	q := `SELECT id, role, level, type, user_id, created_at FROM interviews WHERE id = $1`

	var row interviewRow
	if err := r.db.QueryRowxContext(ctx, q, id).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("interview repo: get: %w", err)
	}

	return &domain.Interview{
		ID:        row.ID,
		Role:      row.Role,
		Level:     row.Level,
		Type:      row.Type,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}, nil
}
