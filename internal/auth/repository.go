package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablestakes/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new player and returns it.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string) (*models.Player, error) {
	var p models.Player
	row := r.pool.QueryRow(ctx, `
		INSERT INTO players (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, created_at, updated_at
	`, email, passwordHash, name)
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail returns the player and password hash for login. Returns nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Player, string, error) {
	var p models.Player
	var passwordHash string
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM players WHERE email = $1
	`, email)
	err := row.Scan(&p.ID, &p.Email, &p.Name, &passwordHash, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &p, passwordHash, nil
}

// GetByID returns a player by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, created_at, updated_at
		FROM players WHERE id = $1
	`, id)
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
