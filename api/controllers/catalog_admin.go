package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/responses"
	"github.com/storelinehq/storeline-backend/api/validators"
	"github.com/storelinehq/storeline-backend/internal/catalog"
	"github.com/storelinehq/storeline-backend/pkg/logger"
)

type categoryPayload struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug" validate:"required"`
	ImageOrdinal int    `json:"image_ordinal"`
}

type namedSlugPayload struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type specificationPayload struct {
	Name  string `json:"name" validate:"required"`
	Slug  string `json:"slug" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type productPayload struct {
	CategoryID         uuid.UUID              `json:"category_id" validate:"required"`
	SubCategoryID      uuid.UUID              `json:"sub_category_id" validate:"required"`
	TypeID             *uuid.UUID             `json:"type_id"`
	Brand              string                 `json:"brand" validate:"required"`
	Name               string                 `json:"name" validate:"required"`
	Slug               string                 `json:"slug" validate:"required"`
	PriceCents         int                    `json:"price_cents" validate:"required,min=1"`
	DiscountPriceCents *int                   `json:"discount_price_cents"`
	Purchasable        bool                   `json:"purchasable"`
	Color              *string                `json:"color"`
	ColorGroup         *string                `json:"color_group"`
	Specifications     []specificationPayload `json:"specifications" validate:"dive"`
}

func (p productPayload) toInput() catalog.ProductInput {
	specs := make([]catalog.SpecificationInput, 0, len(p.Specifications))
	for _, spec := range p.Specifications {
		specs = append(specs, catalog.SpecificationInput{
			Name:  spec.Name,
			Slug:  spec.Slug,
			Value: spec.Value,
		})
	}
	return catalog.ProductInput{
		CategoryID:         p.CategoryID,
		SubCategoryID:      p.SubCategoryID,
		TypeID:             p.TypeID,
		Brand:              p.Brand,
		Name:               p.Name,
		Slug:               p.Slug,
		PriceCents:         p.PriceCents,
		DiscountPriceCents: p.DiscountPriceCents,
		Purchasable:        p.Purchasable,
		Color:              p.Color,
		ColorGroup:         p.ColorGroup,
		Specifications:     specs,
	}
}

func AdminCreateCategory(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			ImageOrdinal: payload.ImageOrdinal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminUpdateCategory(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.UpdateCategory(r.Context(), id, catalog.CategoryInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			ImageOrdinal: payload.ImageOrdinal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func AdminDeleteCategory(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminCreateSubCategory(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload namedSlugPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subCategory, err := svc.CreateSubCategory(r.Context(), categoryID, catalog.NamedSlugInput{
			Name: payload.Name,
			Slug: payload.Slug,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, subCategory)
	}
}

func AdminDeleteSubCategory(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "subCategoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteSubCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminCreateType(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subCategoryID, err := uuidParam(r, "subCategoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload namedSlugPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productType, err := svc.CreateType(r.Context(), subCategoryID, catalog.NamedSlugInput{
			Name: payload.Name,
			Slug: payload.Slug,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, productType)
	}
}

func AdminDeleteType(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "typeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteType(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminCreateProduct(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
