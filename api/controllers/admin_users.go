package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/api/middleware"
	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/api/validators"
	"github.com/havenandoak/storefront-backend/internal/users"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type userView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func userToView(user *models.User) userView {
	return userView{
		ID:          user.ID.String(),
		Name:        user.Name,
		Email:       user.Email,
		Role:        string(user.Role),
		Active:      user.Active,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// AdminUserChangeRole reassigns an account's role. Only super admins pass
// the authorization gate, and self-modification is rejected.
func AdminUserChangeRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "userId"))
		targetID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var body changeRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.ChangeRole(r.Context(), users.ChangeRoleInput{
			ActorID:   middleware.UserUUIDFromContext(r.Context()),
			ActorRole: enums.Role(middleware.RoleFromContext(r.Context())),
			TargetID:  targetID,
			NewRole:   enums.Role(body.Role),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, userToView(user))
	}
}
