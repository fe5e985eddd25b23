package controllers

import (
	"context"
	"net/http"

	"github.com/autoaudit/autoaudit-backend/api/middleware"
	"github.com/autoaudit/autoaudit-backend/api/responses"
	"github.com/autoaudit/autoaudit-backend/api/validators"
	"github.com/autoaudit/autoaudit-backend/internal/extraction"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/google/uuid"
)

// InvoiceService is the read/delete surface the invoice controllers use.
type InvoiceService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	Get(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	FileLink(ctx context.Context, userID, invoiceID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error
}

// ExtractionService turns an uploaded document into a persisted invoice.
type ExtractionService interface {
	Analyze(ctx context.Context, userID uuid.UUID, input extraction.AnalyzeInput) (*models.Invoice, error)
}

type analyzeInvoicePayload struct {
	FileURL   string `json:"file_url" validate:"required,url"`
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
	FileName  string `json:"file_name" validate:"omitempty,max=255"`
}

// InvoicesAnalyze runs extraction on an uploaded document and persists the
// structured invoice.
func InvoicesAnalyze(svc ExtractionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "extraction service unavailable"))
			return
		}

		var payload analyzeInvoicePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		vehicleID, err := uuid.Parse(payload.VehicleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id must be a valid uuid"))
			return
		}

		invoice, err := svc.Analyze(ctx, middleware.UserIDFromContext(ctx), extraction.AnalyzeInput{
			FileURL:   payload.FileURL,
			VehicleID: vehicleID,
			FileName:  payload.FileName,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"invoice_id": invoice.ID.String()})
	}
}

// InvoicesList returns the user's invoices with their vehicle summaries.
func InvoicesList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		list, err := svc.List(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]invoiceSummaryView, 0, len(list))
		for _, inv := range list {
			views = append(views, toInvoiceSummaryView(inv))
		}
		responses.WriteSuccess(w, views)
	}
}

// InvoicesGet returns one owned invoice with its line items.
func InvoicesGet(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.Get(ctx, middleware.UserIDFromContext(ctx), invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInvoiceDetailView(*invoice))
	}
}

// InvoicesFileLink returns a short-lived signed download URL for the
// invoice's stored document.
func InvoicesFileLink(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		link, err := svc.FileLink(ctx, middleware.UserIDFromContext(ctx), invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": link})
	}
}

// InvoicesDelete removes one owned invoice and everything hanging off it.
func InvoicesDelete(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, middleware.UserIDFromContext(ctx), invoiceID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
