package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/middleware"
	"github.com/storelinehq/storeline-backend/api/responses"
	ordersvc "github.com/storelinehq/storeline-backend/internal/orders"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/logger"
)

func orderActor(r *http.Request) (ordersvc.Actor, error) {
	userID, err := authedUserID(r)
	if err != nil {
		return ordersvc.Actor{}, err
	}
	return ordersvc.Actor{
		UserID: userID,
		Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
	}, nil
}

// OrderPlace converts the active cart into an order and opens a payment
// session at the gateway.
func OrderPlace(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		placement, err := svc.Place(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":        newOrderResponse(placement.Order),
			"redirect_url": placement.RedirectURL,
		})
	}
}

// OrderPaymentCallback is hit by the payment gateway after the customer
// completes or abandons the hosted payment page.
func OrderPaymentCallback(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "payment token is required"))
			return
		}
		order, err := svc.HandlePaymentCallback(r.Context(), orderID, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := orderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderConfirm marks a paid order as confirmed for fulfilment. Staff only.
func OrderConfirm(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Confirm(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func OrderReturn(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := orderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Return(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := orderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func OrdersListMine(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListMine(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders))
	}
}

// AdminOrdersList lists every order, optionally narrowed by status.
func AdminOrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		orders, err := svc.ListAll(r.Context(), status, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders))
	}
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentRef    *string             `json:"payment_ref,omitempty"`
	SubtotalCents int                 `json:"subtotal_cents"`
	DiscountCents int                 `json:"discount_cents"`
	TotalCents    int                 `json:"total_cents"`
	LineItems     []orderLineResponse `json:"line_items"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CanceledAt    *time.Time          `json:"canceled_at,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	ReturnedAt    *time.Time          `json:"returned_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type orderLineResponse struct {
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	Brand          string     `json:"brand"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.LineItems))
	for _, line := range order.LineItems {
		lines = append(lines, orderLineResponse{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Brand:          line.Brand,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}
	return orderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentRef:    order.PaymentRef,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		LineItems:     lines,
		PaidAt:        order.PaidAt,
		CanceledAt:    order.CanceledAt,
		ConfirmedAt:   order.ConfirmedAt,
		ReturnedAt:    order.ReturnedAt,
		CreatedAt:     order.CreatedAt,
	}
}

func newOrderListResponse(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}
