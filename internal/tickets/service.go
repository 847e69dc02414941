package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Service exposes support ticket flows. Customers see only their own
// tickets; staff see everything.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Ticket, error)
	Reply(ctx context.Context, input ReplyInput) (*models.Ticket, error)
	Close(ctx context.Context, actor Actor, ticketID uuid.UUID) error
	Get(ctx context.Context, actor Actor, ticketID uuid.UUID) (*models.Ticket, error)
	ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Ticket, error)
	ListAll(ctx context.Context, status *enums.TicketStatus, page pagination.Page) ([]models.Ticket, error)
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateInput opens a ticket; the body becomes the first thread message.
type CreateInput struct {
	UserID  uuid.UUID
	Subject string
	Body    string
}

// ReplyInput appends a message to an open thread.
type ReplyInput struct {
	Actor    Actor
	TicketID uuid.UUID
	Body     string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs the tickets service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create opens a ticket and stores the opening message in one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Ticket, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and body are required")
	}

	ticket := &models.Ticket{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Subject: subject,
		Status:  enums.TicketStatusOpen,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, ticket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create ticket")
		}
		message := &models.TicketMessage{
			ID:       uuid.New(),
			TicketID: ticket.ID,
			AuthorID: input.UserID,
			Body:     body,
		}
		if err := repo.CreateMessage(ctx, message); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create opening message")
		}
		ticket.Messages = []models.TicketMessage{*message}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reply appends to the thread. A staff reply marks the ticket answered; a
// customer reply reopens it. Closed tickets reject replies.
func (s *service) Reply(ctx context.Context, input ReplyInput) (*models.Ticket, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}

	ticket, err := s.loadForActor(ctx, input.Actor, input.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == enums.TicketStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
	}

	staff := input.Actor.Role.IsStaff()
	nextStatus := enums.TicketStatusOpen
	if staff {
		nextStatus = enums.TicketStatusAnswered
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		message := &models.TicketMessage{
			ID:       uuid.New(),
			TicketID: ticket.ID,
			AuthorID: input.Actor.UserID,
			Body:     body,
			Staff:    staff,
		}
		if err := repo.CreateMessage(ctx, message); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reply")
		}
		if err := repo.UpdateStatus(ctx, ticket.ID, nextStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update ticket status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadForActor(ctx, input.Actor, input.TicketID)
}

// Close ends the thread. Owners and staff may close; closing twice is a
// state conflict.
func (s *service) Close(ctx context.Context, actor Actor, ticketID uuid.UUID) error {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status == enums.TicketStatusClosed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is already closed")
	}
	if err := s.repo.UpdateStatus(ctx, ticketID, enums.TicketStatusClosed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close ticket")
	}
	return nil
}

// Get returns one ticket with its thread, enforcing ownership.
func (s *service) Get(ctx context.Context, actor Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	return s.loadForActor(ctx, actor, ticketID)
}

// ListMine returns the caller's tickets.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Ticket, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tickets")
	}
	return rows, nil
}

// ListAll returns tickets across users for the staff queue.
func (s *service) ListAll(ctx context.Context, status *enums.TicketStatus, page pagination.Page) ([]models.Ticket, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}
	rows, err := s.repo.List(ctx, status, page.Normalize())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tickets")
	}
	return rows, nil
}

func (s *service) loadForActor(ctx context.Context, actor Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
	}
	if ticket.UserID != actor.UserID && !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your ticket")
	}
	return ticket, nil
}
