package groups

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/middleware"
)

type CreateGroupRequest struct {
	Name     string           `json:"name"`
	MaxBuyin *decimal.Decimal `json:"max_buyin,omitempty"`
}

type AddMemberRequest struct {
	PlayerID string `json:"player_id"`
}

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

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.MaxBuyin != nil && !req.MaxBuyin.IsPositive() {
		http.Error(w, "max_buyin must be positive", http.StatusBadRequest)
		return
	}
	group, err := h.svc.CreateGroup(r.Context(), player.ID, req.Name, req.MaxBuyin)
	if err != nil {
		h.log.Error("create group failed", "error", err)
		http.Error(w, "create group failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(group)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListMine(r.Context(), player.ID)
	if err != nil {
		h.log.Error("list groups failed", "error", err)
		http.Error(w, "list groups failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid group id", http.StatusBadRequest)
		return
	}
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	newPlayerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		http.Error(w, "invalid player_id", http.StatusBadRequest)
		return
	}
	if err := h.svc.AddMember(r.Context(), player.ID, groupID, newPlayerID); err != nil {
		if errors.Is(err, ErrNotOwner) {
			http.Error(w, "only the group owner may add members", http.StatusForbidden)
			return
		}
		h.log.Error("add member failed", "group_id", groupID, "error", err)
		http.Error(w, "add member failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
