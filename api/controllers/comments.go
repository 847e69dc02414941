package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/responses"
	"github.com/storelinehq/storeline-backend/api/validators"
	commentsvc "github.com/storelinehq/storeline-backend/internal/comments"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/logger"
)

const maxCommentBodyLen = 2000

type createCommentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Rating    *int      `json:"rating" validate:"omitempty,min=1,max=5"`
}

// CommentCreate stores a review pending moderation.
func CommentCreate(svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createCommentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comment, err := svc.Create(r.Context(), commentsvc.CreateInput{
			ProductID: payload.ProductID,
			UserID:    userID,
			Body:      validators.SanitizeString(payload.Body, maxCommentBodyLen),
			Rating:    payload.Rating,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCommentResponse(comment))
	}
}

// CommentsForProduct lists the approved reviews of one product.
func CommentsForProduct(svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comments, err := svc.ListForProduct(r.Context(), productID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCommentListResponse(comments))
	}
}

// AdminCommentsPending lists reviews awaiting moderation, oldest first.
func AdminCommentsPending(svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comments, err := svc.ListPending(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCommentListResponse(comments))
	}
}

func AdminCommentApprove(svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "commentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Approve(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

func AdminCommentDelete(svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "commentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type commentResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	Rating    *int      `json:"rating,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

func newCommentResponse(comment *models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		ProductID: comment.ProductID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		Rating:    comment.Rating,
		Approved:  comment.Approved,
		CreatedAt: comment.CreatedAt,
	}
}

func newCommentListResponse(comments []models.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResponse(&comments[i]))
	}
	return out
}
