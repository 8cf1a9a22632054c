package games

import (
	"context"
	"errors"

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

func (r *Repository) CreateGame(ctx context.Context, groupID uuid.UUID, name string, createdBy uuid.UUID) (*models.Game, error) {
	var g models.Game
	row := r.pool.QueryRow(ctx, `
		INSERT INTO games (group_id, name, status, created_by)
		VALUES ($1, $2, 'active', $3)
		RETURNING id, group_id, name, status, created_by, created_at, completed_at, settled_at
	`, groupID, name, createdBy)
	if err := scanGame(row, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGameTx is CreateGame inside the caller's transaction (bulk import).
func (r *Repository) CreateGameTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, name string, createdBy uuid.UUID) (*models.Game, error) {
	var g models.Game
	row := tx.QueryRow(ctx, `
		INSERT INTO games (group_id, name, status, created_by)
		VALUES ($1, $2, 'active', $3)
		RETURNING id, group_id, name, status, created_by, created_at, completed_at, settled_at
	`, groupID, name, createdBy)
	if err := scanGame(row, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) GetByID(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	var g models.Game
	row := r.pool.QueryRow(ctx, `
		SELECT id, group_id, name, status, created_by, created_at, completed_at, settled_at
		FROM games WHERE id = $1
	`, gameID)
	if err := scanGame(row, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Game, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, name, status, created_by, created_at, completed_at, settled_at
		FROM games WHERE group_id = $1 ORDER BY created_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Game
	for rows.Next() {
		var g models.Game
		if err := scanGame(rows, &g); err != nil {
			return nil, err
		}
		list = append(list, &g)
	}
	return list, rows.Err()
}

func (r *Repository) InsertTransaction(ctx context.Context, t *models.GameTransaction) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO game_transactions (game_id, player_id, kind, amount, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.GameID, t.PlayerID, t.Kind, t.Amount, t.RecordedBy)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *Repository) InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.GameTransaction) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO game_transactions (game_id, player_id, kind, amount, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.GameID, t.PlayerID, t.Kind, t.Amount, t.RecordedBy)
	return row.Scan(&t.ID, &t.CreatedAt)
}

// ListTransactions returns a game's transactions in insertion order.
func (r *Repository) ListTransactions(ctx context.Context, gameID uuid.UUID) ([]*models.GameTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, game_id, player_id, kind, amount, recorded_by, created_at
		FROM game_transactions WHERE game_id = $1 ORDER BY created_at, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.GameTransaction
	for rows.Next() {
		var t models.GameTransaction
		if err := rows.Scan(&t.ID, &t.GameID, &t.PlayerID, &t.Kind, &t.Amount, &t.RecordedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// MarkCompleted flips an active game to completed. Fails if the game is not
// active, which makes completion race-safe under concurrent requests.
func (r *Repository) MarkCompleted(ctx context.Context, tx pgx.Tx, gameID uuid.UUID) error {
	result, err := tx.Exec(ctx, `
		UPDATE games SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status = 'active'
	`, gameID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("game is not active")
	}
	return nil
}

type gameScanner interface {
	Scan(dest ...any) error
}

func scanGame(row gameScanner, g *models.Game) error {
	return row.Scan(&g.ID, &g.GroupID, &g.Name, &g.Status, &g.CreatedBy, &g.CreatedAt, &g.CompletedAt, &g.SettledAt)
}
