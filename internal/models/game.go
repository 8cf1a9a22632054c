package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Game status lifecycle: active games accept transactions; completed games
// are frozen and queued for settlement; settled games have their settlement
// rows generated; failed games did not reconcile (buy-ins != cash-outs).
const (
	GameStatusActive    = "active"
	GameStatusCompleted = "completed"
	GameStatusSettled   = "settled"
	GameStatusFailed    = "failed"
)

// Transaction kinds.
const (
	TxKindBuyin   = "buyin"
	TxKindCashout = "cashout"
)

type Game struct {
	ID          uuid.UUID  `json:"id"`
	GroupID     uuid.UUID  `json:"group_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}

// GameTransaction is one buy-in or cash-out recorded against a game.
type GameTransaction struct {
	ID         uuid.UUID       `json:"id"`
	GameID     uuid.UUID       `json:"game_id"`
	PlayerID   uuid.UUID       `json:"player_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
