package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/api/middleware"
	"github.com/storelinehq/storeline-backend/api/responses"
	"github.com/storelinehq/storeline-backend/api/validators"
	ticketsvc "github.com/storelinehq/storeline-backend/internal/tickets"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/logger"
)

func ticketActor(r *http.Request) (ticketsvc.Actor, error) {
	userID, err := authedUserID(r)
	if err != nil {
		return ticketsvc.Actor{}, err
	}
	return ticketsvc.Actor{
		UserID: userID,
		Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
	}, nil
}

const (
	maxTicketSubjectLen = 200
	maxTicketBodyLen    = 4000
)

type createTicketRequest struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// TicketCreate opens a support thread.
func TicketCreate(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createTicketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Create(r.Context(), ticketsvc.CreateInput{
			UserID:  userID,
			Subject: validators.SanitizeString(payload.Subject, maxTicketSubjectLen),
			Body:    validators.SanitizeString(payload.Body, maxTicketBodyLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTicketResponse(ticket))
	}
}

type replyTicketRequest struct {
	Body string `json:"body" validate:"required"`
}

// TicketReply appends a message. Staff replies flip the ticket to answered;
// customer replies reopen it.
func TicketReply(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ticketActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := uuidParam(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload replyTicketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Reply(r.Context(), ticketsvc.ReplyInput{
			Actor:    actor,
			TicketID: ticketID,
			Body:     validators.SanitizeString(payload.Body, maxTicketBodyLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTicketResponse(ticket))
	}
}

func TicketClose(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ticketActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := uuidParam(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Close(r.Context(), actor, ticketID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}

func TicketDetail(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ticketActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := uuidParam(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Get(r.Context(), actor, ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTicketResponse(ticket))
	}
}

func TicketsListMine(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tickets, err := svc.ListMine(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTicketListResponse(tickets))
	}
}

// AdminTicketsList lists every ticket, optionally narrowed by status.
func AdminTicketsList(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.TicketStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseTicketStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		tickets, err := svc.ListAll(r.Context(), status, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTicketListResponse(tickets))
	}
}

type ticketResponse struct {
	ID        uuid.UUID               `json:"id"`
	UserID    uuid.UUID               `json:"user_id"`
	Subject   string                  `json:"subject"`
	Status    string                  `json:"status"`
	Messages  []ticketMessageResponse `json:"messages,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type ticketMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	Staff     bool      `json:"staff"`
	CreatedAt time.Time `json:"created_at"`
}

func newTicketResponse(ticket *models.Ticket) ticketResponse {
	messages := make([]ticketMessageResponse, 0, len(ticket.Messages))
	for _, message := range ticket.Messages {
		messages = append(messages, ticketMessageResponse{
			ID:        message.ID,
			AuthorID:  message.AuthorID,
			Body:      message.Body,
			Staff:     message.Staff,
			CreatedAt: message.CreatedAt,
		})
	}
	return ticketResponse{
		ID:        ticket.ID,
		UserID:    ticket.UserID,
		Subject:   ticket.Subject,
		Status:    string(ticket.Status),
		Messages:  messages,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

func newTicketListResponse(tickets []models.Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, newTicketResponse(&tickets[i]))
	}
	return out
}
