package settling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablestakes/backend/internal/models"
)

// ErrNotPending is returned when confirming a settlement that is already
// completed.
var ErrNotPending = errors.New("settlement is not pending")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn inside a transaction, committing on nil error.
func (r *Repository) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, s *models.Settlement) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO settlements (game_id, payer_id, payee_id, amount, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, created_at
	`, s.GameID, s.PayerID, s.PayeeID, s.Amount)
	return row.Scan(&s.ID, &s.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	var s models.Settlement
	row := r.pool.QueryRow(ctx, `
		SELECT id, game_id, payer_id, payee_id, amount, status, confirmed_by, confirmed_at, created_at
		FROM settlements WHERE id = $1
	`, id)
	if err := row.Scan(&s.ID, &s.GameID, &s.PayerID, &s.PayeeID, &s.Amount, &s.Status, &s.ConfirmedBy, &s.ConfirmedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByGame returns a game's settlements, payers first so the list reads as
// payment instructions.
func (r *Repository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]*models.Settlement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, game_id, payer_id, payee_id, amount, status, confirmed_by, confirmed_at, created_at
		FROM settlements WHERE game_id = $1 ORDER BY amount DESC, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Settlement
	for rows.Next() {
		var s models.Settlement
		if err := rows.Scan(&s.ID, &s.GameID, &s.PayerID, &s.PayeeID, &s.Amount, &s.Status, &s.ConfirmedBy, &s.ConfirmedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// ConfirmTx flips a pending settlement to completed. The status guard makes
// double confirmation a no-op failure rather than a silent overwrite.
func (r *Repository) ConfirmTx(ctx context.Context, tx pgx.Tx, id, confirmedBy uuid.UUID) error {
	result, err := tx.Exec(ctx, `
		UPDATE settlements
		SET status = 'completed', confirmed_by = $2, confirmed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, confirmedBy)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkGameSettledTx flips a completed game to settled alongside the
// settlement rows it generated.
func (r *Repository) MarkGameSettledTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID) error {
	result, err := tx.Exec(ctx, `
		UPDATE games SET status = 'settled', settled_at = now()
		WHERE id = $1 AND status = 'completed'
	`, gameID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("game is not completed")
	}
	return nil
}

// MarkGameFailed records that a game's ledger did not reconcile.
func (r *Repository) MarkGameFailed(ctx context.Context, gameID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE games SET status = 'failed' WHERE id = $1 AND status = 'completed'
	`, gameID)
	return err
}
