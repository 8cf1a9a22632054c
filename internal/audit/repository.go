// Package audit persists explicit audit rows for settlement-affecting actions.
package audit

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

// Insert writes an audit entry outside any transaction.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Detail)
	return err
}

// InsertTx writes an audit entry within the caller's transaction so the audit
// row commits or rolls back together with the change it describes.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Detail)
	return err
}

// ListByActor returns the most recent entries performed by a player.
func (r *Repository) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_log WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
