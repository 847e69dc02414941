package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

const maxBodyLength = 4000

// Service exposes review creation, listing, and moderation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Comment, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, page pagination.Page) ([]models.Comment, error)
	ListPending(ctx context.Context, page pagination.Page) ([]models.Comment, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ProductRatingSummary(ctx context.Context, productID uuid.UUID) (int, *float64, error)
}

// CreateInput is the payload for a new review. Rating is optional but must
// be 1..5 when present.
type CreateInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Body      string
	Rating    *int
}

type service struct {
	repo *Repository
}

// NewService constructs the comments service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("comments repository required")
	}
	return &service{repo: repo}, nil
}

// Create stores the review unapproved. It surfaces on the storefront only
// after moderation.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Comment, error) {
	if input.ProductID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and user are required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body is required")
	}
	if len(body) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body is too long")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Body:      body,
		Rating:    input.Rating,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create comment")
	}
	return comment, nil
}

// ListForProduct returns the approved reviews for one product.
func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, page pagination.Page) ([]models.Comment, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	rows, err := s.repo.ListApprovedByProduct(ctx, productID, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list comments")
	}
	return rows, nil
}

// ListPending returns the moderation queue.
func (s *service) ListPending(ctx context.Context, page pagination.Page) ([]models.Comment, error) {
	rows, err := s.repo.ListPending(ctx, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending comments")
	}
	return rows, nil
}

// Approve publishes a review.
func (s *service) Approve(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Approve(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve comment")
	}
	return nil
}

// Delete removes a review entirely.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete comment")
	}
	return nil
}

// ProductRatingSummary reports the approved comment count and average rating
// for the product page.
func (s *service) ProductRatingSummary(ctx context.Context, productID uuid.UUID) (int, *float64, error) {
	count, average, err := s.repo.RatingSummary(ctx, productID)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rating summary")
	}
	return count, average, nil
}
