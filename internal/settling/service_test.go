package settling

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/ledger"
	"github.com/tablestakes/backend/internal/models"
)

// ============================================================================
// In-memory fakes
// ============================================================================

// fakeStore backs the settling service in memory. InTx runs fn with a nil
// pgx.Tx, which is fine because none of the fake methods touch it.
type fakeStore struct {
	games       map[uuid.UUID]*models.Game
	txsByGame   map[uuid.UUID][]*models.GameTransaction
	settlements map[uuid.UUID]*models.Settlement
	members     map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:       make(map[uuid.UUID]*models.Game),
		txsByGame:   make(map[uuid.UUID][]*models.GameTransaction),
		settlements: make(map[uuid.UUID]*models.Settlement),
		members:     make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (f *fakeStore) InsertTx(ctx context.Context, tx pgx.Tx, s *models.Settlement) error {
	s.ID = uuid.New()
	s.Status = models.SettlementStatusPending
	f.settlements[s.ID] = s
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	s, ok := f.settlements[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) ListByGame(ctx context.Context, gameID uuid.UUID) ([]*models.Settlement, error) {
	var list []*models.Settlement
	for _, s := range f.settlements {
		if s.GameID == gameID {
			list = append(list, s)
		}
	}
	return list, nil
}

func (f *fakeStore) ConfirmTx(ctx context.Context, tx pgx.Tx, id, confirmedBy uuid.UUID) error {
	s, ok := f.settlements[id]
	if !ok || s.Status != models.SettlementStatusPending {
		return ErrNotPending
	}
	s.Status = models.SettlementStatusCompleted
	s.ConfirmedBy = &confirmedBy
	return nil
}

func (f *fakeStore) MarkGameSettledTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID) error {
	g, ok := f.games[gameID]
	if !ok || g.Status != models.GameStatusCompleted {
		return errors.New("game is not completed")
	}
	g.Status = models.GameStatusSettled
	return nil
}

func (f *fakeStore) MarkGameFailed(ctx context.Context, gameID uuid.UUID) error {
	if g, ok := f.games[gameID]; ok {
		g.Status = models.GameStatusFailed
	}
	return nil
}

func (f *fakeStore) IsMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error) {
	return f.members[groupID][playerID], nil
}

// fakeGames exposes the game side of fakeStore under the GameStore method
// names, which collide with the settlement Store's GetByID.
type fakeGames struct{ f *fakeStore }

func (g fakeGames) GetByID(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	game, ok := g.f.games[gameID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return game, nil
}

func (g fakeGames) ListTransactions(ctx context.Context, gameID uuid.UUID) ([]*models.GameTransaction, error) {
	return g.f.txsByGame[gameID], nil
}

type fakeAudit struct {
	entries []*models.AuditEntry
}

func (a *fakeAudit) Insert(ctx context.Context, e *models.AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAudit) InsertTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAudit) lastAction() string {
	if len(a.entries) == 0 {
		return ""
	}
	return a.entries[len(a.entries)-1].Action
}

// ============================================================================
// Fixtures
// ============================================================================

var (
	groupID = uuid.MustParse("00000000-0000-0000-0000-00000000000f")
	playerA = uuid.MustParse("00000000-0000-0000-0000-0000000000a0")
	playerB = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	playerC = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
	outside = uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func gameTx(gameID, playerID uuid.UUID, kind, amount string) *models.GameTransaction {
	return &models.GameTransaction{
		ID:       uuid.New(),
		GameID:   gameID,
		PlayerID: playerID,
		Kind:     kind,
		Amount:   dec(amount),
	}
}

type fixture struct {
	store *fakeStore
	audit *fakeAudit
	svc   Service
}

func newFixture() *fixture {
	store := newFakeStore()
	store.members[groupID] = map[uuid.UUID]bool{playerA: true, playerB: true, playerC: true}
	audit := &fakeAudit{}
	svc := NewService(store, fakeGames{store}, store, audit, nil)
	return &fixture{store: store, audit: audit, svc: svc}
}

func (fx *fixture) addGame(status string, txs ...*models.GameTransaction) uuid.UUID {
	id := uuid.New()
	fx.store.games[id] = &models.Game{ID: id, GroupID: groupID, Status: status}
	fx.store.txsByGame[id] = txs
	return id
}

// ============================================================================
// SettleGame
// ============================================================================

func TestSettleGame_GeneratesTransfers(t *testing.T) {
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusCompleted,
		gameTx(uuid.Nil, playerA, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerA, models.TxKindCashout, "0"),
		gameTx(uuid.Nil, playerB, models.TxKindBuyin, "50"),
		gameTx(uuid.Nil, playerB, models.TxKindCashout, "100"),
		gameTx(uuid.Nil, playerC, models.TxKindBuyin, "50"),
		gameTx(uuid.Nil, playerC, models.TxKindCashout, "100"),
	)

	if err := fx.svc.SettleGame(context.Background(), gameID); err != nil {
		t.Fatalf("SettleGame: %v", err)
	}

	if got := fx.store.games[gameID].Status; got != models.GameStatusSettled {
		t.Errorf("game status = %q, want settled", got)
	}
	settlements, _ := fx.store.ListByGame(context.Background(), gameID)
	if len(settlements) != 2 {
		t.Fatalf("got %d settlements, want 2", len(settlements))
	}
	for _, s := range settlements {
		if s.PayerID != playerA {
			t.Errorf("payer = %s, want %s", s.PayerID, playerA)
		}
		if !s.Amount.Equal(dec("50")) {
			t.Errorf("amount = %s, want 50", s.Amount)
		}
		if s.Status != models.SettlementStatusPending {
			t.Errorf("status = %q, want pending", s.Status)
		}
	}
	if fx.audit.lastAction() != models.AuditGameSettled {
		t.Errorf("audit action = %q, want %q", fx.audit.lastAction(), models.AuditGameSettled)
	}
}

func TestSettleGame_ImbalanceFailsGameWithoutRetry(t *testing.T) {
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusCompleted,
		gameTx(uuid.Nil, playerA, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerA, models.TxKindCashout, "90"),
	)

	// nil return keeps river from retrying a ledger that cannot reconcile.
	if err := fx.svc.SettleGame(context.Background(), gameID); err != nil {
		t.Fatalf("SettleGame: %v", err)
	}

	if got := fx.store.games[gameID].Status; got != models.GameStatusFailed {
		t.Errorf("game status = %q, want failed", got)
	}
	if settlements, _ := fx.store.ListByGame(context.Background(), gameID); len(settlements) != 0 {
		t.Errorf("got %d settlements, want none", len(settlements))
	}
	if fx.audit.lastAction() != models.AuditGameSettlementFailed {
		t.Errorf("audit action = %q, want %q", fx.audit.lastAction(), models.AuditGameSettlementFailed)
	}
}

func TestSettleGame_AlreadySettledIsNoop(t *testing.T) {
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusSettled)

	if err := fx.svc.SettleGame(context.Background(), gameID); err != nil {
		t.Fatalf("SettleGame on settled game: %v", err)
	}
	if settlements, _ := fx.store.ListByGame(context.Background(), gameID); len(settlements) != 0 {
		t.Errorf("retried job wrote %d settlements", len(settlements))
	}
}

func TestSettleGame_EveryoneBreaksEven(t *testing.T) {
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusCompleted,
		gameTx(uuid.Nil, playerA, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerA, models.TxKindCashout, "100"),
		gameTx(uuid.Nil, playerB, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerB, models.TxKindCashout, "100"),
	)

	if err := fx.svc.SettleGame(context.Background(), gameID); err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	if got := fx.store.games[gameID].Status; got != models.GameStatusSettled {
		t.Errorf("game status = %q, want settled", got)
	}
	if settlements, _ := fx.store.ListByGame(context.Background(), gameID); len(settlements) != 0 {
		t.Errorf("break-even game generated %d settlements", len(settlements))
	}
}

func TestSettleGame_BadTransactionKind(t *testing.T) {
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusCompleted,
		gameTx(uuid.Nil, playerA, "rebuy", "100"),
	)

	err := fx.svc.SettleGame(context.Background(), gameID)
	if !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if got := fx.store.games[gameID].Status; got != models.GameStatusCompleted {
		t.Errorf("game status = %q, want completed (retryable)", got)
	}
}

// ============================================================================
// ConfirmSettlement / ListByGame
// ============================================================================

func confirmFixture(t *testing.T) (*fixture, uuid.UUID) {
	t.Helper()
	fx := newFixture()
	gameID := fx.addGame(models.GameStatusCompleted,
		gameTx(uuid.Nil, playerA, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerA, models.TxKindCashout, "0"),
		gameTx(uuid.Nil, playerB, models.TxKindBuyin, "100"),
		gameTx(uuid.Nil, playerB, models.TxKindCashout, "200"),
	)
	if err := fx.svc.SettleGame(context.Background(), gameID); err != nil {
		t.Fatalf("SettleGame: %v", err)
	}
	settlements, _ := fx.store.ListByGame(context.Background(), gameID)
	if len(settlements) != 1 {
		t.Fatalf("got %d settlements, want 1", len(settlements))
	}
	return fx, settlements[0].ID
}

func TestConfirmSettlement_ByPayer(t *testing.T) {
	fx, id := confirmFixture(t)

	s, err := fx.svc.ConfirmSettlement(context.Background(), playerA, id)
	if err != nil {
		t.Fatalf("ConfirmSettlement: %v", err)
	}
	if s.Status != models.SettlementStatusCompleted {
		t.Errorf("status = %q, want completed", s.Status)
	}
	if s.ConfirmedBy == nil || *s.ConfirmedBy != playerA {
		t.Errorf("confirmed_by = %v, want %s", s.ConfirmedBy, playerA)
	}
	if fx.audit.lastAction() != models.AuditSettlementConfirmed {
		t.Errorf("audit action = %q, want %q", fx.audit.lastAction(), models.AuditSettlementConfirmed)
	}
}

func TestConfirmSettlement_RejectsThirdParty(t *testing.T) {
	fx, id := confirmFixture(t)

	if _, err := fx.svc.ConfirmSettlement(context.Background(), playerC, id); !errors.Is(err, ErrNotParty) {
		t.Fatalf("err = %v, want ErrNotParty", err)
	}
}

func TestConfirmSettlement_RejectsDoubleConfirm(t *testing.T) {
	fx, id := confirmFixture(t)

	if _, err := fx.svc.ConfirmSettlement(context.Background(), playerB, id); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := fx.svc.ConfirmSettlement(context.Background(), playerA, id); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
}

func TestListByGame_RequiresMembership(t *testing.T) {
	fx, _ := confirmFixture(t)
	var gameID uuid.UUID
	for id := range fx.store.games {
		gameID = id
	}

	if _, err := fx.svc.ListByGame(context.Background(), outside, gameID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
	if _, err := fx.svc.ListByGame(context.Background(), playerC, gameID); err != nil {
		t.Fatalf("member list: %v", err)
	}
}
