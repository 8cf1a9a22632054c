package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregatePositions sums buy-ins and cash-outs per player without checking
// the zero-sum invariant. Use it for live views of a game that is still
// running; a balanced ledger is only expected once the game is finished.
//
// Returns ErrInvalidAmount if any transaction has a negative amount or an
// unknown kind.
func AggregatePositions(txs []Transaction) ([]Position, error) {
	byPlayer := make(map[uuid.UUID]*Position)
	for i, tx := range txs {
		if tx.Amount.IsNegative() {
			return nil, fmt.Errorf("transaction %d (player %s): amount %s: %w",
				i, tx.PlayerID, tx.Amount, ErrInvalidAmount)
		}
		p, ok := byPlayer[tx.PlayerID]
		if !ok {
			p = &Position{PlayerID: tx.PlayerID}
			byPlayer[tx.PlayerID] = p
		}
		switch tx.Kind {
		case TxBuyin:
			p.TotalBuyin = p.TotalBuyin.Add(tx.Amount)
		case TxCashout:
			p.TotalCashout = p.TotalCashout.Add(tx.Amount)
		default:
			return nil, fmt.Errorf("transaction %d (player %s): kind %q: %w",
				i, tx.PlayerID, tx.Kind, ErrInvalidAmount)
		}
	}

	positions := make([]Position, 0, len(byPlayer))
	for _, p := range byPlayer {
		p.Net = p.TotalCashout.Sub(p.TotalBuyin)
		positions = append(positions, *p)
	}
	// Sort by player ID so output is deterministic regardless of map order.
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].PlayerID.String() < positions[j].PlayerID.String()
	})
	return positions, nil
}

// ComputeNetPositions aggregates a finished game's transactions into net
// positions and enforces the zero-sum invariant: the money paid in must equal
// the money paid out, within epsilon. A game that does not reconcile is
// rejected with ErrLedgerImbalance and must not proceed to settlement
// generation.
func ComputeNetPositions(txs []Transaction, epsilon decimal.Decimal) ([]Position, error) {
	positions, err := AggregatePositions(txs)
	if err != nil {
		return nil, err
	}

	var totalBuyin, totalCashout decimal.Decimal
	for _, p := range positions {
		totalBuyin = totalBuyin.Add(p.TotalBuyin)
		totalCashout = totalCashout.Add(p.TotalCashout)
	}
	if diff := totalBuyin.Sub(totalCashout).Abs(); diff.GreaterThan(epsilon) {
		return nil, fmt.Errorf("buy-ins %s, cash-outs %s (difference %s exceeds epsilon %s): %w",
			totalBuyin, totalCashout, diff, epsilon, ErrLedgerImbalance)
	}
	return positions, nil
}
