package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Repository handles ticket persistence.
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

// Create persists a ticket header.
func (r *Repository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// CreateMessage appends one message to a thread.
func (r *Repository) CreateMessage(ctx context.Context, message *models.TicketMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindByID loads a ticket with its thread, oldest message first.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Messages", func(qb *gorm.DB) *gorm.DB {
			return qb.Order("created_at ASC").Order("id ASC")
		}).
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus moves the ticket lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TicketStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns a user's tickets, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Ticket, error) {
	var rows []models.Ticket
	err := r.db.WithContext(ctx).
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

// List returns tickets across all users, optionally narrowed to one status.
func (r *Repository) List(ctx context.Context, status *enums.TicketStatus, page pagination.Page) ([]models.Ticket, error) {
	qb := r.db.WithContext(ctx)
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	var rows []models.Ticket
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
