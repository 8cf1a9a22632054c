// Package settling generates and tracks the payment instructions that close
// out a completed game. Generation runs as a background job so a request
// never blocks on it; confirmation is a player action over HTTP.
package settling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/ledger"
	"github.com/tablestakes/backend/internal/metrics"
	"github.com/tablestakes/backend/internal/models"
)

var (
	// ErrNotParty is returned when a player who is neither payer nor payee
	// tries to confirm a settlement.
	ErrNotParty = errors.New("only the payer or payee may confirm a settlement")
	// ErrNotMember is returned when the caller does not belong to the
	// game's group.
	ErrNotMember = errors.New("player is not a member of this group")
)

// Store is the settlement persistence the service needs. *Repository
// implements it.
type Store interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	InsertTx(ctx context.Context, tx pgx.Tx, s *models.Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]*models.Settlement, error)
	ConfirmTx(ctx context.Context, tx pgx.Tx, id, confirmedBy uuid.UUID) error
	MarkGameSettledTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID) error
	MarkGameFailed(ctx context.Context, gameID uuid.UUID) error
}

// GameStore is the slice of the games repository the service needs.
type GameStore interface {
	GetByID(ctx context.Context, gameID uuid.UUID) (*models.Game, error)
	ListTransactions(ctx context.Context, gameID uuid.UUID) ([]*models.GameTransaction, error)
}

// MemberStore answers group membership for read access checks.
type MemberStore interface {
	IsMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error)
}

// Auditor writes audit rows. *audit.Repository implements it.
type Auditor interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
	InsertTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error
}

type Service interface {
	// SettleGame turns a completed game's ledger into pending settlements.
	// Called by the background worker, not by handlers.
	SettleGame(ctx context.Context, gameID uuid.UUID) error
	ListByGame(ctx context.Context, callerID, gameID uuid.UUID) ([]*models.Settlement, error)
	ConfirmSettlement(ctx context.Context, callerID, settlementID uuid.UUID) (*models.Settlement, error)
}

type service struct {
	repo    Store
	games   GameStore
	members MemberStore
	audit   Auditor
	log     *slog.Logger
	epsilon decimal.Decimal
}

func NewService(repo Store, games GameStore, members MemberStore, audit Auditor, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:    repo,
		games:   games,
		members: members,
		audit:   audit,
		log:     log,
		epsilon: ledger.DefaultEpsilon,
	}
}

var _ Service = (*service)(nil)

func (s *service) SettleGame(ctx context.Context, gameID uuid.UUID) error {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load game %s: %w", gameID, err)
	}

	// Retried jobs may find the work already done. Settled and failed are
	// both terminal.
	if game.Status != models.GameStatusCompleted {
		s.log.Info("skipping settlement, game not in completed state",
			"game_id", gameID, "status", game.Status)
		return nil
	}

	txs, err := s.games.ListTransactions(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load transactions for game %s: %w", gameID, err)
	}

	positions, err := ledger.ComputeNetPositions(toLedgerTxs(txs), s.epsilon)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerImbalance) {
			// An imbalanced ledger will not fix itself, so fail the
			// game instead of letting the job retry forever.
			return s.failGame(ctx, gameID, err)
		}
		metrics.GamesSettled.WithLabelValues("error").Inc()
		return fmt.Errorf("compute positions for game %s: %w", gameID, err)
	}

	transfers := ledger.ComputeSettlements(positions)
	if v := ledger.ValidateSettlements(positions, transfers, s.epsilon); !v.OK {
		metrics.GamesSettled.WithLabelValues("error").Inc()
		return fmt.Errorf("game %s: %d unresolved residuals: %w",
			gameID, len(v.Residuals), ledger.ErrResidualMismatch)
	}

	err = s.repo.InTx(ctx, func(tx pgx.Tx) error {
		for _, t := range transfers {
			settlement := &models.Settlement{
				GameID:  gameID,
				PayerID: t.PayerID,
				PayeeID: t.PayeeID,
				Amount:  t.Amount,
			}
			if err := s.repo.InsertTx(ctx, tx, settlement); err != nil {
				return err
			}
		}
		if err := s.repo.MarkGameSettledTx(ctx, tx, gameID); err != nil {
			return err
		}
		detail, _ := json.Marshal(map[string]any{"transfers": len(transfers)})
		return s.audit.InsertTx(ctx, tx, &models.AuditEntry{
			Action:     models.AuditGameSettled,
			EntityType: "game",
			EntityID:   gameID,
			Detail:     detail,
		})
	})
	if err != nil {
		metrics.GamesSettled.WithLabelValues("error").Inc()
		return fmt.Errorf("persist settlements for game %s: %w", gameID, err)
	}

	metrics.GamesSettled.WithLabelValues("settled").Inc()
	metrics.SettlementsGenerated.Add(float64(len(transfers)))
	s.log.Info("game settled", "game_id", gameID, "transfers", len(transfers))
	return nil
}

// failGame marks the game failed and returns nil so the job is not retried.
func (s *service) failGame(ctx context.Context, gameID uuid.UUID, cause error) error {
	if err := s.repo.MarkGameFailed(ctx, gameID); err != nil {
		return fmt.Errorf("mark game %s failed: %w", gameID, err)
	}
	detail, _ := json.Marshal(map[string]any{"reason": cause.Error()})
	if err := s.audit.Insert(ctx, &models.AuditEntry{
		Action:     models.AuditGameSettlementFailed,
		EntityType: "game",
		EntityID:   gameID,
		Detail:     detail,
	}); err != nil {
		s.log.Error("audit write failed", "game_id", gameID, "error", err)
	}
	metrics.GamesSettled.WithLabelValues("imbalance").Inc()
	s.log.Warn("game failed settlement", "game_id", gameID, "error", cause)
	return nil
}

func (s *service) ListByGame(ctx context.Context, callerID, gameID uuid.UUID) ([]*models.Settlement, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ok, err := s.members.IsMember(ctx, game.GroupID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return s.repo.ListByGame(ctx, gameID)
}

func (s *service) ConfirmSettlement(ctx context.Context, callerID, settlementID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if callerID != settlement.PayerID && callerID != settlement.PayeeID {
		return nil, ErrNotParty
	}
	if settlement.Status != models.SettlementStatusPending {
		return nil, ErrNotPending
	}

	err = s.repo.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.ConfirmTx(ctx, tx, settlementID, callerID); err != nil {
			return err
		}
		return s.audit.InsertTx(ctx, tx, &models.AuditEntry{
			ActorID:    &callerID,
			Action:     models.AuditSettlementConfirmed,
			EntityType: "settlement",
			EntityID:   settlementID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementsConfirmed.Inc()
	return s.repo.GetByID(ctx, settlementID)
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
