package groups

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablestakes/backend/internal/models"
)

var (
	// ErrNotOwner is returned when a non-owner tries to manage the group.
	ErrNotOwner = errors.New("only the group owner may do this")
	// ErrNotMember is returned when the caller does not belong to the group.
	ErrNotMember = errors.New("not a member of this group")
)

type Service interface {
	CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, maxBuyin *decimal.Decimal) (*models.Group, error)
	ListMine(ctx context.Context, playerID uuid.UUID) ([]*models.Group, error)
	AddMember(ctx context.Context, callerID, groupID, playerID uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, maxBuyin *decimal.Decimal) (*models.Group, error) {
	return s.repo.Create(ctx, name, ownerID, maxBuyin)
}

func (s *service) ListMine(ctx context.Context, playerID uuid.UUID) ([]*models.Group, error) {
	return s.repo.ListByPlayer(ctx, playerID)
}

func (s *service) AddMember(ctx context.Context, callerID, groupID, playerID uuid.UUID) error {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != callerID {
		return ErrNotOwner
	}
	return s.repo.AddMember(ctx, groupID, playerID, models.GroupRoleMember)
}
