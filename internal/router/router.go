// Package router assembles the HTTP mux. Route patterns use the method
// matching introduced with Go 1.22's net/http, so handlers read path
// parameters with r.PathValue.
package router

import (
	"net/http"

	"github.com/tablestakes/backend/internal/auth"
	"github.com/tablestakes/backend/internal/dashboard"
	"github.com/tablestakes/backend/internal/games"
	"github.com/tablestakes/backend/internal/groups"
	"github.com/tablestakes/backend/internal/metrics"
	"github.com/tablestakes/backend/internal/middleware"
	"github.com/tablestakes/backend/internal/settling"
)

type Handlers struct {
	Auth      *auth.Handler
	Groups    *groups.Handler
	Games     *games.Handler
	Settling  *settling.Handler
	Dashboard *dashboard.Handler
}

// New returns the API handler. Everything under /api/v1 except auth
// registration and login requires a valid Bearer token.
func New(h Handlers, tokens middleware.TokenValidator, players middleware.PlayerLookup) http.Handler {
	authed := middleware.JWTAuth(tokens, players)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/v1/groups", h.Groups.CreateGroup)
	protected.HandleFunc("GET /api/v1/groups", h.Groups.ListGroups)
	protected.HandleFunc("POST /api/v1/groups/{id}/members", h.Groups.AddMember)
	protected.HandleFunc("GET /api/v1/groups/{id}/games", h.Games.ListByGroup)

	protected.HandleFunc("POST /api/v1/games", h.Games.CreateGame)
	protected.HandleFunc("POST /api/v1/games/import", h.Games.ImportGame)
	protected.HandleFunc("GET /api/v1/games/{id}", h.Games.GetGame)
	protected.HandleFunc("POST /api/v1/games/{id}/transactions", h.Games.RecordTransaction)
	protected.HandleFunc("GET /api/v1/games/{id}/positions", h.Games.Positions)
	protected.HandleFunc("POST /api/v1/games/{id}/complete", h.Games.CompleteGame)
	protected.HandleFunc("GET /api/v1/games/{id}/settlements", h.Settling.ListForGame)

	protected.HandleFunc("POST /api/v1/settlements/{id}/complete", h.Settling.Confirm)

	protected.HandleFunc("GET /api/v1/account/me", h.Dashboard.GetMe)
	protected.HandleFunc("GET /api/v1/account/activity", h.Dashboard.ListActivity)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.Handle("/api/v1/", authed(protected))
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}
