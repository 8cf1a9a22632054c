package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Group member roles.
const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

// Group is a recurring circle of players who play together. MaxBuyin, when
// set, caps any single buy-in recorded in the group's games.
type Group struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	MaxBuyin  *decimal.Decimal `json:"max_buyin,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type GroupMember struct {
	GroupID  uuid.UUID `json:"group_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
