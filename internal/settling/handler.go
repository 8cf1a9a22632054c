package settling

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablestakes/backend/internal/middleware"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// ListForGame handles GET /api/v1/games/{id}/settlements.
func (h *Handler) ListForGame(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListByGame(r.Context(), player.ID, gameID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, "game not found", http.StatusNotFound)
		case errors.Is(err, ErrNotMember):
			http.Error(w, "not a member of this group", http.StatusForbidden)
		default:
			h.log.Error("list settlements failed", "game_id", gameID, "error", err)
			http.Error(w, "list settlements failed", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Confirm handles POST /api/v1/settlements/{id}/complete.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	settlementID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid settlement id", http.StatusBadRequest)
		return
	}
	settlement, err := h.svc.ConfirmSettlement(r.Context(), player.ID, settlementID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, "settlement not found", http.StatusNotFound)
		case errors.Is(err, ErrNotParty):
			http.Error(w, "only the payer or payee may confirm", http.StatusForbidden)
		case errors.Is(err, ErrNotPending):
			http.Error(w, "settlement already completed", http.StatusConflict)
		default:
			h.log.Error("confirm settlement failed", "settlement_id", settlementID, "error", err)
			http.Error(w, "confirm settlement failed", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settlement)
}
