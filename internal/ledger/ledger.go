// Package ledger implements the settlement math for a single poker game:
// aggregating buy-in and cash-out transactions into per-player net positions,
// netting those positions into pairwise transfers, and verifying that the
// transfers drive every position back to zero.
//
// Everything in this package is pure: no I/O, no clock, no shared state.
// Amounts are decimal (shopspring/decimal) so that currency math is exact;
// the epsilon parameters only absorb rounding slack already present in the
// recorded transactions, never float error introduced here.
package ledger

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxKind is the direction of a game transaction.
type TxKind string

const (
	TxBuyin   TxKind = "buyin"
	TxCashout TxKind = "cashout"
)

// DefaultEpsilon is the tolerance used for reconciliation checks when the
// caller has no stricter requirement: one cent.
var DefaultEpsilon = decimal.New(1, -2)

var (
	// ErrLedgerImbalance is returned when total buy-ins and total cash-outs
	// for a game differ by more than epsilon. The game cannot be settled.
	ErrLedgerImbalance = errors.New("total buy-ins do not equal total cash-outs")

	// ErrInvalidAmount is returned when a transaction carries a negative
	// amount or an unknown kind. The whole aggregation fails; dropping the
	// offending transaction would silently break the zero-sum contract.
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrResidualMismatch indicates that a generated settlement list does not
	// zero every position. This is an algorithm defect, not a user error.
	ErrResidualMismatch = errors.New("settlements leave a non-zero residual")
)

// Transaction is one buy-in or cash-out recorded for a player in a game.
type Transaction struct {
	PlayerID uuid.UUID
	Kind     TxKind
	Amount   decimal.Decimal
}

// Position is a player's aggregate result for one game.
// Net = TotalCashout - TotalBuyin: positive means the table owes the player,
// negative means the player owes the table.
type Position struct {
	PlayerID     uuid.UUID
	TotalBuyin   decimal.Decimal
	TotalCashout decimal.Decimal
	Net          decimal.Decimal
}

// Transfer is a directed payment instruction from a net debtor to a net
// creditor. Amount is always positive.
type Transfer struct {
	PayerID uuid.UUID
	PayeeID uuid.UUID
	Amount  decimal.Decimal
}

// Validation is the outcome of replaying a settlement list against the
// positions it was generated from. Residuals holds each player whose
// position did not reach zero within epsilon, with the leftover amount.
type Validation struct {
	OK        bool
	Residuals map[uuid.UUID]decimal.Decimal
}
