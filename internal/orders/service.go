package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
	"github.com/storelinehq/storeline-backend/pkg/payment"
)

// Service drives the order lifecycle: placement, payment verification, and
// the staff/customer state transitions.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID) (*Placement, error)
	HandlePaymentCallback(ctx context.Context, orderID uuid.UUID, token string) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Return(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, error)
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Placement is the result of placing an order: the snapshot plus the
// gateway redirect the customer completes payment at.
type Placement struct {
	Order       *models.Order
	RedirectURL string
}

type cartReader interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}

type paymentGateway interface {
	RequestPayment(ctx context.Context, req payment.Request) (*payment.Session, error)
	Verify(ctx context.Context, token string, amountCents int64) (*payment.VerifyResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    *Repository
	carts   cartReader
	gateway paymentGateway
	tx      txRunner
	cfg     config.OrdersConfig
	now     func() time.Time
}

// NewService constructs the orders service.
func NewService(repo *Repository, carts cartReader, gateway paymentGateway, tx txRunner, cfg config.OrdersConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cfg.ReturnWindowDays <= 0 {
		return nil, fmt.Errorf("return window must be positive")
	}
	return &service{
		repo:    repo,
		carts:   carts,
		gateway: gateway,
		tx:      tx,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// Place snapshots the active cart into an order, converts the cart, and
// opens a payment session at the gateway.
func (s *service) Place(ctx context.Context, userID uuid.UUID) (*Placement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}

	record, err := s.carts.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	productIDs := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.loadProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPlaced,
		PaymentStatus: enums.PaymentStatusPending,
	}
	for _, item := range record.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart references a removed product")
		}
		if !product.Purchasable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product %s is no longer purchasable", product.ID))
		}
		productID := item.ProductID
		line := models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      &productID,
			Name:           product.Name,
			Brand:          product.Brand,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.Quantity * item.UnitPriceCents,
		}
		order.SubtotalCents += line.TotalCents
		order.LineItems = append(order.LineItems, line)
	}
	order.TotalCents = order.SubtotalCents - order.DiscountCents

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.carts.MarkConverted(ctx, record.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert cart")
	}

	session, err := s.gateway.RequestPayment(ctx, payment.Request{
		OrderRef:    order.ID.String(),
		AmountCents: int64(order.TotalCents),
		Description: fmt.Sprintf("Order %s", order.ID),
	})
	if err != nil {
		return nil, err
	}

	token := session.Token
	order.PaymentRef = &token
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment token")
	}

	return &Placement{Order: order, RedirectURL: session.RedirectURL}, nil
}

// HandlePaymentCallback verifies the gateway token and, on success, marks
// the order paid and bumps each product's sold count. Replayed callbacks on
// an already-paid order return it unchanged.
func (s *service) HandlePaymentCallback(ctx context.Context, orderID uuid.UUID, token string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusVerified {
		return order, nil
	}
	if order.Status != enums.OrderStatusPlaced {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	result, err := s.gateway.Verify(ctx, token, int64(order.TotalCents))
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		order.PaymentStatus = enums.PaymentStatusFailed
		if err := s.repo.Save(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record failed payment")
		}
		return order, nil
	}

	paidAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order.Status = enums.OrderStatusPaid
		order.PaymentStatus = enums.PaymentStatusVerified
		order.PaymentRef = &result.ReferenceID
		order.PaidAt = &paidAt
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		for _, line := range order.LineItems {
			if line.ProductID == nil {
				continue
			}
			if err := repo.IncrementSoldCount(ctx, *line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bump sold count")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel aborts a placed or paid order. Owners and staff may cancel.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadForActor(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPlaced && order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only placed or paid orders can be canceled")
	}
	canceledAt := s.now()
	order.Status = enums.OrderStatusCanceled
	order.CanceledAt = &canceledAt
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	return order, nil
}

// Confirm marks a paid order as fulfilled. Staff only; the route enforces
// the role, the service enforces the state.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can be confirmed")
	}
	confirmedAt := s.now()
	order.Status = enums.OrderStatusConfirmed
	order.ConfirmedAt = &confirmedAt
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm order")
	}
	return order, nil
}

// Return accepts a confirmed order back within the policy window.
func (s *service) Return(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadForActor(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusConfirmed || order.ConfirmedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed orders can be returned")
	}
	window := time.Duration(s.cfg.ReturnWindowDays) * 24 * time.Hour
	if s.now().Sub(*order.ConfirmedAt) > window {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return window has passed")
	}
	returnedAt := s.now()
	order.Status = enums.OrderStatusReturned
	order.ReturnedAt = &returnedAt
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "return order")
	}
	return order, nil
}

// Get returns one order, enforcing ownership.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	return s.loadForActor(ctx, actor, orderID)
}

// ListMine returns the caller's orders.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

// ListAll returns orders across users for the staff views.
func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	rows, err := s.repo.List(ctx, status, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) loadForActor(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	return order, nil
}

func (s *service) loadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var rows []models.Product
	err := s.repo.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
