package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/responses"
	"github.com/storelinehq/storeline-backend/api/validators"
	cartsvc "github.com/storelinehq/storeline-backend/internal/cart"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/logger"
)

// CartFetch returns the caller's active cart, creating an empty one on
// first touch.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.GetActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type putCartRequest struct {
	Items []cartLinePayload `json:"items" validate:"required,dive"`
}

type cartLinePayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CartPutItems replaces the cart contents with the requested lines.
func CartPutItems(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload putCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]cartsvc.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, cartsvc.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		record, err := svc.PutItems(r.Context(), userID, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

type cartResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        string             `json:"status"`
	Items         []cartItemResponse `json:"items"`
	SubtotalCents int                `json:"subtotal_cents"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	subtotal := 0
	for _, item := range record.Items {
		lineTotal := item.Quantity * item.UnitPriceCents
		subtotal += lineTotal
		items = append(items, cartItemResponse{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     lineTotal,
		})
	}
	return cartResponse{
		ID:            record.ID,
		Status:        string(record.Status),
		Items:         items,
		SubtotalCents: subtotal,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
