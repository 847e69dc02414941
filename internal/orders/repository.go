package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Repository encapsulates order persistence plus the sold-count bump that
// belongs to the payment transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided gorm handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists the order with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads one order with line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save writes the mutated order back.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// ListByUser returns a user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("user_id = ?", userID).
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

// List returns orders across users, optionally narrowed to one status.
func (r *Repository) List(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).Preload("LineItems")
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	var rows []models.Order
	err := qb.
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

// IncrementSoldCount bumps a product's sold counter after a verified
// payment.
func (r *Repository) IncrementSoldCount(ctx context.Context, productID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sold_count", gorm.Expr("sold_count + ?", delta)).Error
}
