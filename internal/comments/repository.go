package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Repository handles comment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires the repository with a live gorm handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new comment row.
func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindByID loads one comment.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListApprovedByProduct returns the approved comments for a product, newest
// first.
func (r *Repository) ListApprovedByProduct(ctx context.Context, productID uuid.UUID, page pagination.Page) ([]models.Comment, error) {
	var rows []models.Comment
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND approved = ?", productID, true).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Start).
		Limit(page.Quantity).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPending returns unapproved comments for moderation, oldest first.
func (r *Repository) ListPending(ctx context.Context, page pagination.Page) ([]models.Comment, error) {
	var rows []models.Comment
	err := r.db.WithContext(ctx).
		Where("approved = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Offset(page.Start).
		Limit(page.Quantity).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Approve flips a comment to approved. Returns gorm.ErrRecordNotFound when
// the id does not exist.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("approved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a comment row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type ratingRow struct {
	Count   int
	Average *float64
}

// RatingSummary aggregates approved comments for a product: total count plus
// the average over rows that carry a rating. Average is nil when no approved
// comment has a rating.
func (r *Repository) RatingSummary(ctx context.Context, productID uuid.UUID) (int, *float64, error) {
	var row ratingRow
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id = ? AND approved = ?", productID, true).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	return row.Count, row.Average, nil
}

// ProductExists reports whether a catalog row backs the id.
func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
