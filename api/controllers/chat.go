package controllers

import (
	"context"
	"net/http"

	"github.com/autoaudit/autoaudit-backend/api/middleware"
	"github.com/autoaudit/autoaudit-backend/api/responses"
	"github.com/autoaudit/autoaudit-backend/api/validators"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/google/uuid"
)

// ChatService is the conversation surface the chat controllers depend on.
type ChatService interface {
	Send(ctx context.Context, userID, invoiceID uuid.UUID, message string) (*models.Message, error)
	History(ctx context.Context, userID, invoiceID uuid.UUID) ([]models.Message, error)
}

type chatPayload struct {
	InvoiceID string `json:"invoice_id" validate:"required,uuid"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// ChatSend records the user's question and returns the assistant reply.
func ChatSend(svc ChatService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var payload chatPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		invoiceID, err := uuid.Parse(payload.InvoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invoice_id must be a valid uuid"))
			return
		}

		if logg != nil {
			ctx = logg.WithInvoiceID(ctx, invoiceID.String())
		}

		reply, err := svc.Send(ctx, middleware.UserIDFromContext(ctx), invoiceID, payload.Message)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMessageView(*reply))
	}
}

// InvoiceMessages returns the ascending chat log for one owned invoice.
func InvoiceMessages(svc ChatService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		messages, err := svc.History(ctx, middleware.UserIDFromContext(ctx), invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]messageView, 0, len(messages))
		for _, m := range messages {
			views = append(views, toMessageView(m))
		}
		responses.WriteSuccess(w, views)
	}
}
