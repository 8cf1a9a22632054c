package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balance is a mutable working copy of a position's net during netting.
type balance struct {
	playerID uuid.UUID
	net      decimal.Decimal
}

// ComputeSettlements converts net positions into a list of pairwise transfers
// that zeroes every position. Positions must already satisfy the zero-sum
// invariant (see ComputeNetPositions). Any rounding slack the reconciliation
// check tolerated is left unsettled: once either side runs out the loop ends,
// and the leftover is at most the tolerated imbalance, which
// ValidateSettlements accepts under the same epsilon.
//
// The algorithm is the greedy largest-against-largest heuristic: repeatedly
// match the debtor owing the most against the creditor owed the most,
// transfer min(|debtor|, creditor), and drop whichever participant reaches
// exactly zero. It is deterministic (ties broken by player ID ascending) and
// produces at most n-1 transfers, but does not guarantee the theoretical
// minimum transfer count; finding that minimum is NP-hard in general.
func ComputeSettlements(positions []Position) []Transfer {
	var debtors, creditors []balance
	for _, p := range positions {
		switch p.Net.Sign() {
		case -1:
			debtors = append(debtors, balance{playerID: p.PlayerID, net: p.Net.Neg()})
		case 1:
			creditors = append(creditors, balance{playerID: p.PlayerID, net: p.Net})
		}
	}

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		di := largest(debtors)
		ci := largest(creditors)

		amount := decimal.Min(debtors[di].net, creditors[ci].net)
		transfers = append(transfers, Transfer{
			PayerID: debtors[di].playerID,
			PayeeID: creditors[ci].playerID,
			Amount:  amount,
		})

		debtors[di].net = debtors[di].net.Sub(amount)
		creditors[ci].net = creditors[ci].net.Sub(amount)

		// min() zeroes at least one side every round, so this terminates.
		if debtors[di].net.IsZero() {
			debtors = remove(debtors, di)
		}
		if creditors[ci].net.IsZero() {
			creditors = remove(creditors, ci)
		}
	}
	return transfers
}

// largest returns the index of the balance with the greatest magnitude,
// breaking ties by player ID ascending.
func largest(bs []balance) int {
	best := 0
	for i := 1; i < len(bs); i++ {
		switch bs[i].net.Cmp(bs[best].net) {
		case 1:
			best = i
		case 0:
			if bs[i].playerID.String() < bs[best].playerID.String() {
				best = i
			}
		}
	}
	return best
}

func remove(bs []balance, i int) []balance {
	return append(bs[:i], bs[i+1:]...)
}
