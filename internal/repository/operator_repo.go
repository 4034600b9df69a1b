package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenworks/intake-api/internal/models"
)

// OperatorRepo stores the back-office accounts. In practice the table holds
// the one seeded operator.
type OperatorRepo struct {
	db *sql.DB
}

func NewOperatorRepo(db *sql.DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

func (r *OperatorRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS operators (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("ensure operators schema: %w", err)
	}
	return nil
}

func (r *OperatorRepo) Create(ctx context.Context, op *models.Operator) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO operators (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		id, op.Email, op.PasswordHash, op.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert operator: %w", err)
	}
	op.ID = id
	return id, nil
}

func (r *OperatorRepo) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM operators WHERE email = ?", email).
		Scan(&op.ID, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}
	return &op, nil
}
