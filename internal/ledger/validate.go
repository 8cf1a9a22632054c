package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidateSettlements replays a settlement list against the positions it was
// generated from and reports every player whose net does not reach zero
// within epsilon. Each transfer raises the payer's net (their debt shrinks)
// and lowers the payee's net (their credit is paid off).
//
// Run this as a mandatory post-condition after ComputeSettlements: a failure
// means the netting algorithm is broken, not that the input was bad.
func ValidateSettlements(positions []Position, transfers []Transfer, epsilon decimal.Decimal) Validation {
	remaining := make(map[uuid.UUID]decimal.Decimal, len(positions))
	for _, p := range positions {
		remaining[p.PlayerID] = p.Net
	}
	for _, t := range transfers {
		remaining[t.PayerID] = remaining[t.PayerID].Add(t.Amount)
		remaining[t.PayeeID] = remaining[t.PayeeID].Sub(t.Amount)
	}

	v := Validation{OK: true, Residuals: make(map[uuid.UUID]decimal.Decimal)}
	for playerID, net := range remaining {
		if net.Abs().GreaterThan(epsilon) {
			v.OK = false
			v.Residuals[playerID] = net
		}
	}
	return v
}
