package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tablestakes/backend/internal/models"
)

type contextKey string

const ctxPlayerKey contextKey = "player"

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// PlayerLookup resolves the authenticated player ID to a full record.
type PlayerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// JWTAuth authenticates requests by validating the Bearer token and loading
// the player into request context. Handlers read it back with PlayerFromCtx.
func JWTAuth(tokens TokenValidator, players PlayerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			playerID, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			player, err := players.GetByID(r.Context(), playerID)
			if err != nil {
				http.Error(w, `{"error":"unknown player"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxPlayerKey, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerFromCtx returns the authenticated player or nil.
func PlayerFromCtx(ctx context.Context) *models.Player {
	p, _ := ctx.Value(ctxPlayerKey).(*models.Player)
	return p
}

// WithPlayer returns a context carrying the given player (for tests).
func WithPlayer(ctx context.Context, p *models.Player) context.Context {
	return context.WithValue(ctx, ctxPlayerKey, p)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
