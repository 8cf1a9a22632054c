package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/ledger"
	"github.com/tablestakes/backend/internal/models"
	"github.com/tablestakes/backend/internal/settling"
)

var (
	// ErrNotMember is returned when the caller or target player does not
	// belong to the game's group.
	ErrNotMember = errors.New("player is not a member of this group")
	// ErrGameNotActive is returned when recording against a finished game.
	ErrGameNotActive = errors.New("game is not active")
	// ErrBuyinLimit is returned when a buy-in exceeds the group's cap.
	ErrBuyinLimit = errors.New("buy-in exceeds the group limit")
)

// Store is the game persistence the service needs. *Repository implements it.
type Store interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	CreateGame(ctx context.Context, groupID uuid.UUID, name string, createdBy uuid.UUID) (*models.Game, error)
	CreateGameTx(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, name string, createdBy uuid.UUID) (*models.Game, error)
	GetByID(ctx context.Context, gameID uuid.UUID) (*models.Game, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Game, error)
	InsertTransaction(ctx context.Context, t *models.GameTransaction) error
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.GameTransaction) error
	ListTransactions(ctx context.Context, gameID uuid.UUID) ([]*models.GameTransaction, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, gameID uuid.UUID) error
}

// GroupStore is the slice of the groups repository the service needs.
type GroupStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	IsMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error)
}

// InsertSettleJobTxFunc enqueues a settle_game job within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertSettleJobTxFunc func(ctx context.Context, tx pgx.Tx, args settling.SettleGameArgs) error

// ImportedTransaction is one row of a bulk game import.
type ImportedTransaction struct {
	PlayerID uuid.UUID
	Kind     string
	Amount   decimal.Decimal
}

type Service interface {
	CreateGame(ctx context.Context, callerID, groupID uuid.UUID, name string) (*models.Game, error)
	GetGame(ctx context.Context, callerID, gameID uuid.UUID) (*models.Game, error)
	ListByGroup(ctx context.Context, callerID, groupID uuid.UUID) ([]*models.Game, error)
	RecordTransaction(ctx context.Context, callerID, gameID, playerID uuid.UUID, kind string, amount decimal.Decimal) (*models.GameTransaction, error)
	Positions(ctx context.Context, callerID, gameID uuid.UUID) ([]ledger.Position, error)
	CompleteGame(ctx context.Context, callerID, gameID uuid.UUID) error
	ImportGame(ctx context.Context, callerID, groupID uuid.UUID, name string, txs []ImportedTransaction) (*models.Game, error)
}

type service struct {
	repo         Store
	groups       GroupStore
	insertSettle InsertSettleJobTxFunc
	epsilon      decimal.Decimal
}

// NewService creates a games service. insertSettle is typically a closure
// over river.Client.InsertTx.
func NewService(repo Store, groups GroupStore, insertSettle InsertSettleJobTxFunc) Service {
	return &service{
		repo:         repo,
		groups:       groups,
		insertSettle: insertSettle,
		epsilon:      ledger.DefaultEpsilon,
	}
}

var _ Service = (*service)(nil)

func (s *service) CreateGame(ctx context.Context, callerID, groupID uuid.UUID, name string) (*models.Game, error) {
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.CreateGame(ctx, groupID, name, callerID)
}

func (s *service) GetGame(ctx context.Context, callerID, gameID uuid.UUID) (*models.Game, error) {
	game, err := s.repo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, game.GroupID, callerID); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *service) ListByGroup(ctx context.Context, callerID, groupID uuid.UUID) ([]*models.Game, error) {
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroup(ctx, groupID)
}

// RecordTransaction appends a buy-in or cash-out to an active game. Anyone in
// the group may record for anyone else in the group (the banker pattern), but
// buy-ins are capped by the group's max_buyin when one is set.
func (s *service) RecordTransaction(ctx context.Context, callerID, gameID, playerID uuid.UUID, kind string, amount decimal.Decimal) (*models.GameTransaction, error) {
	game, err := s.repo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusActive {
		return nil, ErrGameNotActive
	}
	if err := s.requireMember(ctx, game.GroupID, callerID); err != nil {
		return nil, err
	}
	if playerID != callerID {
		if err := s.requireMember(ctx, game.GroupID, playerID); err != nil {
			return nil, err
		}
	}
	if err := s.checkAmount(ctx, game.GroupID, kind, amount); err != nil {
		return nil, err
	}

	t := &models.GameTransaction{
		GameID:     gameID,
		PlayerID:   playerID,
		Kind:       kind,
		Amount:     amount,
		RecordedBy: callerID,
	}
	if err := s.repo.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Positions returns the live net positions of a game. The zero-sum check is
// deliberately skipped: a running game is not balanced until everyone has
// cashed out.
func (s *service) Positions(ctx context.Context, callerID, gameID uuid.UUID) ([]ledger.Position, error) {
	game, err := s.repo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, game.GroupID, callerID); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return ledger.AggregatePositions(toLedgerTxs(txs))
}

// CompleteGame freezes an active game and enqueues settlement generation.
// The status flip and the job insert commit atomically.
func (s *service) CompleteGame(ctx context.Context, callerID, gameID uuid.UUID) error {
	game, err := s.repo.GetByID(ctx, gameID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, game.GroupID, callerID); err != nil {
		return err
	}
	return s.repo.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.MarkCompleted(ctx, tx, gameID); err != nil {
			return err
		}
		return s.insertSettle(ctx, tx, settling.SettleGameArgs{GameID: gameID})
	})
}

// ImportGame records a finished game in one shot: the ledger must already
// reconcile, otherwise the import is rejected before anything is written.
func (s *service) ImportGame(ctx context.Context, callerID, groupID uuid.UUID, name string, txs []ImportedTransaction) (*models.Game, error) {
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	ledgerTxs := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		if t.PlayerID != callerID {
			if err := s.requireMember(ctx, groupID, t.PlayerID); err != nil {
				return nil, fmt.Errorf("transaction %d: %w", i, err)
			}
		}
		if err := s.checkAmount(ctx, groupID, t.Kind, t.Amount); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		ledgerTxs[i] = ledger.Transaction{
			PlayerID: t.PlayerID,
			Kind:     ledger.TxKind(t.Kind),
			Amount:   t.Amount,
		}
	}
	if _, err := ledger.ComputeNetPositions(ledgerTxs, s.epsilon); err != nil {
		return nil, err
	}

	var game *models.Game
	err := s.repo.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		game, err = s.repo.CreateGameTx(ctx, tx, groupID, name, callerID)
		if err != nil {
			return err
		}
		for _, t := range txs {
			gt := &models.GameTransaction{
				GameID:     game.ID,
				PlayerID:   t.PlayerID,
				Kind:       t.Kind,
				Amount:     t.Amount,
				RecordedBy: callerID,
			}
			if err := s.repo.InsertTransactionTx(ctx, tx, gt); err != nil {
				return err
			}
		}
		if err := s.repo.MarkCompleted(ctx, tx, game.ID); err != nil {
			return err
		}
		return s.insertSettle(ctx, tx, settling.SettleGameArgs{GameID: game.ID})
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *service) requireMember(ctx context.Context, groupID, playerID uuid.UUID) error {
	ok, err := s.groups.IsMember(ctx, groupID, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

func (s *service) checkAmount(ctx context.Context, groupID uuid.UUID, kind string, amount decimal.Decimal) error {
	switch kind {
	case models.TxKindBuyin:
		if !amount.IsPositive() {
			return fmt.Errorf("buy-in must be positive: %w", ledger.ErrInvalidAmount)
		}
		group, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group.MaxBuyin != nil && amount.GreaterThan(*group.MaxBuyin) {
			return ErrBuyinLimit
		}
	case models.TxKindCashout:
		if amount.IsNegative() {
			return fmt.Errorf("cash-out must not be negative: %w", ledger.ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("kind %q: %w", kind, ledger.ErrInvalidAmount)
	}
	return nil
}

func toLedgerTxs(txs []*models.GameTransaction) []ledger.Transaction {
	out := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		out[i] = ledger.Transaction{
			PlayerID: t.PlayerID,
			Kind:     ledger.TxKind(t.Kind),
			Amount:   t.Amount,
		}
	}
	return out
}
