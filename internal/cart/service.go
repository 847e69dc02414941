package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

const maxItemQuantity = 99

// Service exposes the per-user cart operations.
type Service interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	PutItems(ctx context.Context, userID uuid.UUID, lines []ItemInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// ItemInput is one requested product line. Quantities replace whatever the
// cart previously held.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs the cart service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// GetActive returns the user's open cart, creating an empty one on first
// touch.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	record = &models.CartRecord{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusActive,
		Items:  []models.CartItem{},
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return record, nil
}

// PutItems replaces the cart's contents with the requested lines. Unit
// prices snapshot the product's effective price at write time.
func (s *service) PutItems(ctx context.Context, userID uuid.UUID, lines []ItemInput) (*models.CartRecord, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	record, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
		if !product.Purchasable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product %s is not purchasable", line.ProductID))
		}
		items = append(items, models.CartItem{
			ID:             uuid.New(),
			CartID:         record.ID,
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: product.EffectivePriceCents(),
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceItems(ctx, record.ID, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace cart items")
	}
	return s.repo.FindActiveByUser(ctx, userID)
}

// RemoveItem drops one product line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartRecord, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	record, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.DeleteItem(ctx, record.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.repo.FindActiveByUser(ctx, userID)
}

// Clear empties the cart without deleting the header.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	record, err := s.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func validateLines(lines []ItemInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if line.Quantity < 1 || line.Quantity > maxItemQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 99")
		}
		if _, dup := seen[line.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product line")
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}
