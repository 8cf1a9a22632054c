package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AuditGameCompleted        = "game_completed"
	AuditGameSettled          = "game_settled"
	AuditGameSettlementFailed = "game_settlement_failed"
	AuditSettlementConfirmed  = "settlement_confirmed"
)

// AuditEntry records who did what to which entity. The original system kept
// these via database triggers; here they are explicit rows written by the
// services that perform the change.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"` // nil for system actions
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
