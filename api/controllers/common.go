package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/middleware"
	"github.com/storelinehq/storeline-backend/api/validators"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func pageFromQuery(r *http.Request) (pagination.Page, error) {
	start, err := validators.ParseQueryInt(r, "start", 0, 0, 1<<30)
	if err != nil {
		return pagination.Page{}, err
	}
	quantity, err := validators.ParseQueryInt(r, "quantity", 0, 0, pagination.MaxQuantity)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.Page{Start: start, Quantity: quantity}.Normalize(), nil
}
