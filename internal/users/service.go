package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/access"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

// ChangeRoleInput identifies who is changing whose role to what.
type ChangeRoleInput struct {
	ActorID   uuid.UUID
	ActorRole enums.Role
	TargetID  uuid.UUID
	NewRole   enums.Role
}

// Service exposes account administration.
type Service interface {
	ChangeRole(ctx context.Context, input ChangeRoleInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ChangeRole assigns a new role to the target account. Only super admins may
// change roles, and never their own.
func (s *service) ChangeRole(ctx context.Context, input ChangeRoleInput) (*models.User, error) {
	if err := access.AuthorizeRoleChange(input.ActorID, input.ActorRole, input.TargetID); err != nil {
		return nil, err
	}
	if !input.NewRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", input.NewRole))
	}

	target, err := s.repo.FindByID(ctx, input.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if target.Role == input.NewRole {
		return target, nil
	}
	if target.Role == enums.RoleSuperAdmin {
		count, err := s.repo.CountByRole(ctx, enums.RoleSuperAdmin)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count super admins")
		}
		if count <= 1 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot demote the last super admin")
		}
	}

	if err := s.repo.UpdateRole(ctx, input.TargetID, input.NewRole); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}

	if s.logg != nil {
		fields := s.logg.WithFields(ctx, map[string]any{
			"actor_id":  input.ActorID.String(),
			"target_id": input.TargetID.String(),
			"new_role":  input.NewRole.String(),
		})
		s.logg.Info(fields, "user role changed")
	}

	target.Role = input.NewRole
	return target, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
