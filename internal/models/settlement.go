package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement status: generated settlements start pending and flip to
// completed when a player confirms the payment happened out-of-band.
const (
	SettlementStatusPending   = "pending"
	SettlementStatusCompleted = "completed"
)

// Settlement is a directed payment instruction from a net debtor to a net
// creditor, generated when a game settles.
type Settlement struct {
	ID          uuid.UUID       `json:"id"`
	GameID      uuid.UUID       `json:"game_id"`
	PayerID     uuid.UUID       `json:"payer_id"`
	PayeeID     uuid.UUID       `json:"payee_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	ConfirmedBy *uuid.UUID      `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
