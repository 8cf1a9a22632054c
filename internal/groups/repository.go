package groups

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a group and its owner membership in one transaction.
func (r *Repository) Create(ctx context.Context, name string, ownerID uuid.UUID, maxBuyin *decimal.Decimal) (*models.Group, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var g models.Group
	row := tx.QueryRow(ctx, `
		INSERT INTO groups (name, owner_id, max_buyin)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, max_buyin, created_at
	`, name, ownerID, maxBuyin)
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.MaxBuyin, &g.CreatedAt); err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, player_id, role)
		VALUES ($1, $2, $3)
	`, g.ID, ownerID, models.GroupRoleOwner)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var g models.Group
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, max_buyin, created_at FROM groups WHERE id = $1
	`, id)
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.MaxBuyin, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByPlayer returns every group the player belongs to.
func (r *Repository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.owner_id, g.max_buyin, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.player_id = $1
		ORDER BY g.created_at DESC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.MaxBuyin, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &g)
	}
	return list, rows.Err()
}

// AddMember inserts a membership; adding an existing member is a no-op.
func (r *Repository) AddMember(ctx context.Context, groupID, playerID uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_members (group_id, player_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, player_id) DO NOTHING
	`, groupID, playerID, role)
	return err
}

func (r *Repository) IsMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error) {
	var one int
	row := r.pool.QueryRow(ctx, `
		SELECT 1 FROM group_members WHERE group_id = $1 AND player_id = $2
	`, groupID, playerID)
	err := row.Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
