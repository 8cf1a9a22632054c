// Package dashboard serves the signed-in player's own account views.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tablestakes/backend/internal/audit"
	"github.com/tablestakes/backend/internal/middleware"
	"github.com/tablestakes/backend/internal/models"
)

const defaultActivityLimit = 50

type Handler struct {
	auditR *audit.Repository
	log    *slog.Logger
}

func NewHandler(auditR *audit.Repository, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{auditR: auditR, log: log}
}

// GetMe handles GET /api/v1/account/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":         player.ID,
		"email":      player.Email,
		"name":       player.Name,
		"created_at": player.CreatedAt,
	})
}

// ListActivity handles GET /api/v1/account/activity. Returns the caller's
// recent audit entries, newest first.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	player := middleware.PlayerFromCtx(r.Context())
	if player == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.auditR.ListByActor(r.Context(), player.ID, limit)
	if err != nil {
		h.log.Error("list activity failed", "player_id", player.ID, "error", err)
		http.Error(w, "list activity failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
