package games

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/ledger"
	"github.com/tablestakes/backend/internal/middleware"
)

type CreateGameRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type RecordTransactionRequest struct {
	PlayerID string          `json:"player_id,omitempty"` // defaults to the caller
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
}

type ImportGameRequest struct {
	GroupID      uuid.UUID `json:"group_id"`
	Name         string    `json:"name"`
	Transactions []struct {
		PlayerID uuid.UUID       `json:"player_id"`
		Kind     string          `json:"kind"`
		Amount   decimal.Decimal `json:"amount"`
	} `json:"transactions"`
}

type Handler struct {
	svc       Service
	validator *ImportValidator
	log       *slog.Logger
}

func NewHandler(svc Service, validator *ImportValidator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validator: validator, log: log}
}

// CreateGame handles POST /api/v1/games.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		http.Error(w, "invalid group_id", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	game, err := h.svc.CreateGame(r.Context(), player.ID, groupID, req.Name)
	if err != nil {
		h.writeError(w, "create game failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// GetGame handles GET /api/v1/games/{id}.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	player, gameID, ok := h.playerAndID(w, r, "invalid game id")
	if !ok {
		return
	}
	game, err := h.svc.GetGame(r.Context(), player, gameID)
	if err != nil {
		h.writeError(w, "get game failed", err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// ListByGroup handles GET /api/v1/groups/{id}/games.
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	player, groupID, ok := h.playerAndID(w, r, "invalid group id")
	if !ok {
		return
	}
	list, err := h.svc.ListByGroup(r.Context(), player, groupID)
	if err != nil {
		h.writeError(w, "list games failed", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RecordTransaction handles POST /api/v1/games/{id}/transactions.
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	player, gameID, ok := h.playerAndID(w, r, "invalid game id")
	if !ok {
		return
	}
	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	target := player
	if req.PlayerID != "" {
		var err error
		if target, err = uuid.Parse(req.PlayerID); err != nil {
			http.Error(w, "invalid player_id", http.StatusBadRequest)
			return
		}
	}
	tx, err := h.svc.RecordTransaction(r.Context(), player, gameID, target, req.Kind, req.Amount)
	if err != nil {
		h.writeError(w, "record transaction failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Positions handles GET /api/v1/games/{id}/positions.
func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	player, gameID, ok := h.playerAndID(w, r, "invalid game id")
	if !ok {
		return
	}
	positions, err := h.svc.Positions(r.Context(), player, gameID)
	if err != nil {
		h.writeError(w, "compute positions failed", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// CompleteGame handles POST /api/v1/games/{id}/complete.
func (h *Handler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	player, gameID, ok := h.playerAndID(w, r, "invalid game id")
	if !ok {
		return
	}
	if err := h.svc.CompleteGame(r.Context(), player, gameID); err != nil {
		h.writeError(w, "complete game failed", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ImportGame handles POST /api/v1/games/import. The raw body is checked
// against the JSON schema before decoding.
func (h *Handler) ImportGame(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := h.validator.Validate(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req ImportGameRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	txs := make([]ImportedTransaction, len(req.Transactions))
	for i, t := range req.Transactions {
		txs[i] = ImportedTransaction{PlayerID: t.PlayerID, Kind: t.Kind, Amount: t.Amount}
	}
	game, err := h.svc.ImportGame(r.Context(), player.ID, req.GroupID, req.Name, txs)
	if err != nil {
		h.writeError(w, "import game failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) playerAndID(w http.ResponseWriter, r *http.Request, badID string) (uuid.UUID, uuid.UUID, bool) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, badID, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return player.ID, id, true
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrNotMember):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrGameNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrBuyinLimit):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrLedgerImbalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
