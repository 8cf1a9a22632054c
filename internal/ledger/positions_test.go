package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Fixed player IDs ordered ascending by string so tie-break assertions are
// stable.
var (
	p0 = uuid.MustParse("00000000-0000-0000-0000-0000000000a0")
	p1 = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	p2 = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(player uuid.UUID, kind TxKind, amount string) Transaction {
	return Transaction{PlayerID: player, Kind: kind, Amount: dec(amount)}
}

func findPosition(t *testing.T, positions []Position, player uuid.UUID) Position {
	t.Helper()
	for _, p := range positions {
		if p.PlayerID == player {
			return p
		}
	}
	t.Fatalf("no position for player %s", player)
	return Position{}
}

// ---------------------------------------------------------------------------
// ComputeNetPositions
// ---------------------------------------------------------------------------

func TestComputeNetPositions_BalancedGame(t *testing.T) {
	txs := []Transaction{
		tx(p0, TxBuyin, "100"),
		tx(p1, TxBuyin, "50"),
		tx(p2, TxBuyin, "50"),
		tx(p0, TxCashout, "0"),
		tx(p1, TxCashout, "100"),
		tx(p2, TxCashout, "100"),
	}
	positions, err := ComputeNetPositions(txs, DefaultEpsilon)
	if err != nil {
		t.Fatalf("ComputeNetPositions: %v", err)
	}
	if len(positions) != 3 {
		t.Fatalf("positions: got %d, want 3", len(positions))
	}

	if net := findPosition(t, positions, p0).Net; !net.Equal(dec("-100")) {
		t.Errorf("p0 net: got %s, want -100", net)
	}
	if net := findPosition(t, positions, p1).Net; !net.Equal(dec("50")) {
		t.Errorf("p1 net: got %s, want 50", net)
	}
	if net := findPosition(t, positions, p2).Net; !net.Equal(dec("50")) {
		t.Errorf("p2 net: got %s, want 50", net)
	}

	// Nets of a balanced game always sum to zero.
	var sum decimal.Decimal
	for _, p := range positions {
		sum = sum.Add(p.Net)
	}
	if !sum.IsZero() {
		t.Errorf("net positions sum to %s, want 0", sum)
	}
}

func TestComputeNetPositions_RepeatedBuyins(t *testing.T) {
	// Rebuys are separate transactions and must accumulate.
	txs := []Transaction{
		tx(p0, TxBuyin, "20"),
		tx(p0, TxBuyin, "20"),
		tx(p0, TxBuyin, "20"),
		tx(p1, TxBuyin, "40"),
		tx(p0, TxCashout, "90"),
		tx(p1, TxCashout, "10"),
	}
	positions, err := ComputeNetPositions(txs, DefaultEpsilon)
	if err != nil {
		t.Fatalf("ComputeNetPositions: %v", err)
	}
	got := findPosition(t, positions, p0)
	if !got.TotalBuyin.Equal(dec("60")) {
		t.Errorf("p0 total buy-in: got %s, want 60", got.TotalBuyin)
	}
	if !got.Net.Equal(dec("30")) {
		t.Errorf("p0 net: got %s, want 30", got.Net)
	}
}

func TestComputeNetPositions_Imbalance(t *testing.T) {
	txs := []Transaction{
		tx(p0, TxBuyin, "100"),
		tx(p1, TxCashout, "90"),
	}
	_, err := ComputeNetPositions(txs, DefaultEpsilon)
	if !errors.Is(err, ErrLedgerImbalance) {
		t.Fatalf("expected ErrLedgerImbalance, got: %v", err)
	}
}

func TestComputeNetPositions_EpsilonBoundary(t *testing.T) {
	// Buy-ins 450, cash-outs 449.99: one cent of rounding slack.
	txs := []Transaction{
		tx(p0, TxBuyin, "450"),
		tx(p0, TxCashout, "200"),
		tx(p1, TxCashout, "249.99"),
	}

	// Within the default one-cent tolerance: passes.
	if _, err := ComputeNetPositions(txs, dec("0.01")); err != nil {
		t.Errorf("epsilon 0.01: expected success, got: %v", err)
	}

	// A stricter tolerance rejects the same game.
	if _, err := ComputeNetPositions(txs, dec("0.001")); !errors.Is(err, ErrLedgerImbalance) {
		t.Errorf("epsilon 0.001: expected ErrLedgerImbalance, got: %v", err)
	}
}

func TestAggregatePositions_RejectsBadTransactions(t *testing.T) {
	cases := []struct {
		name string
		txs  []Transaction
	}{
		{"negative amount", []Transaction{tx(p0, TxBuyin, "-5")}},
		{"unknown kind", []Transaction{{PlayerID: p0, Kind: "tip", Amount: dec("5")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AggregatePositions(tc.txs); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("expected ErrInvalidAmount, got: %v", err)
			}
		})
	}

	// The failure must reject the whole aggregation, not just skip the bad row.
	txs := []Transaction{
		tx(p0, TxBuyin, "100"),
		tx(p1, TxBuyin, "-1"),
	}
	if _, err := AggregatePositions(txs); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for mixed input, got: %v", err)
	}
}

func TestAggregatePositions_LiveGameNotBalanced(t *testing.T) {
	// A running game (buy-ins only) aggregates fine without the zero-sum check.
	txs := []Transaction{
		tx(p0, TxBuyin, "100"),
		tx(p1, TxBuyin, "100"),
	}
	positions, err := AggregatePositions(txs)
	if err != nil {
		t.Fatalf("AggregatePositions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("positions: got %d, want 2", len(positions))
	}
	for _, p := range positions {
		if !p.Net.Equal(dec("-100")) {
			t.Errorf("player %s net: got %s, want -100", p.PlayerID, p.Net)
		}
	}
}

func TestAggregatePositions_DeterministicOrder(t *testing.T) {
	txs := []Transaction{
		tx(p2, TxBuyin, "10"),
		tx(p0, TxBuyin, "10"),
		tx(p1, TxBuyin, "10"),
	}
	positions, err := AggregatePositions(txs)
	if err != nil {
		t.Fatalf("AggregatePositions: %v", err)
	}
	want := []uuid.UUID{p0, p1, p2}
	for i, p := range positions {
		if p.PlayerID != want[i] {
			t.Errorf("position %d: got player %s, want %s", i, p.PlayerID, want[i])
		}
	}
}
