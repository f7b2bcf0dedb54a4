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
	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
)

type shipOrderRequest struct {
	TrackingNumber    string     `json:"tracking_number" validate:"required,min=3,max=64"`
	Carrier           *string    `json:"carrier,omitempty" validate:"omitempty,max=64"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	OverrideStatus    *string    `json:"override_status,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

type updateStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=500"`
	Location string `json:"location,omitempty" validate:"omitempty,max=120"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type orderListResponse struct {
	Orders     []orderView `json:"orders"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}

// AdminOrderList pages through orders newest-first with optional status and
// customer email filters.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters := orders.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_email")); raw != "" {
			filters.CustomerEmail = &raw
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{
			Orders:     ordersToViews(list.Orders),
			NextCursor: list.NextCursor,
		})
	}
}

// AdminOrderDetail returns the full order with line items and history.
func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderToView(order))
	}
}

// AdminOrderShip attaches tracking details and advances the order.
func AdminOrderShip(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body shipOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ShipInput{
			OrderID:           orderID,
			TrackingNumber:    body.TrackingNumber,
			Carrier:           body.Carrier,
			Notes:             body.Notes,
			EstimatedDelivery: body.EstimatedDelivery,
			Actor:             actorFromContext(r),
		}
		if body.OverrideStatus != nil {
			status, parseErr := enums.ParseOrderStatus(*body.OverrideStatus)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid override status"))
				return
			}
			input.OverrideStatus = &status
		}

		order, err := svc.Ship(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderToView(order))
	}
}

// AdminOrderStatus drives a generic lifecycle transition.
func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID:  orderID,
			ToStatus: status,
			Message:  body.Message,
			Location: body.Location,
			Actor:    actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderToView(order))
	}
}

// AdminOrderCancel cancels an order with an optional reason.
func AdminOrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID: orderID,
			Reason:  body.Reason,
			Actor:   actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderToView(order))
	}
}

// AdminOrderDelete removes an order that is not in flight.
func AdminOrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), orderID, actorFromContext(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func actorFromContext(r *http.Request) orders.Actor {
	return orders.Actor{
		UserID: middleware.UserUUIDFromContext(r.Context()),
		Role:   enums.Role(middleware.RoleFromContext(r.Context())),
	}
}
