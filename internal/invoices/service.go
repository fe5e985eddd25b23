package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/storage"
	"github.com/google/uuid"
)

// fileLinkExpiry bounds how long a signed document link stays valid.
const fileLinkExpiry = 15 * time.Minute

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Repo    Repository
	Storage storage.ObjectStore
	Logger  *logger.Logger
}

// Service orchestrates invoice reads and deletion.
type Service struct {
	repo    Repository
	storage storage.ObjectStore
	logg    *logger.Logger
}

// NewService builds an invoice service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{
		repo:    params.Repo,
		storage: params.Storage,
		logg:    params.Logger,
	}, nil
}

// List returns the user's invoices newest first, each with its vehicle
// summary.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	invoices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing invoices")
	}
	return invoices, nil
}

// Get loads one owned invoice with line items. A missing row and a row
// owned by someone else produce the same NotFound.
func (s *Service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindOwned(ctx, userID, invoiceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading invoice")
	}
	if invoice == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

// FileLink returns a short-lived pre-signed download URL for the invoice's
// stored document.
func (s *Service) FileLink(ctx context.Context, userID, invoiceID uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", apperrors.New(apperrors.CodeInternal, "object storage is not configured")
	}

	invoice, err := s.repo.FindOwned(ctx, userID, invoiceID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "loading invoice")
	}
	if invoice == nil {
		return "", apperrors.New(apperrors.CodeNotFound, "invoice not found")
	}

	key, err := s.storage.KeyFromURL(invoice.FileURL)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "resolving document key")
	}
	link, err := s.storage.PresignGet(ctx, key, fileLinkExpiry)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "signing download url")
	}
	return link, nil
}

// Delete removes an owned invoice; line items and chat messages cascade.
// The stored document is removed best-effort: a storage failure never
// blocks the deletion.
func (s *Service) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	invoice, err := s.repo.FindOwned(ctx, userID, invoiceID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading invoice")
	}
	if invoice == nil {
		return apperrors.New(apperrors.CodeNotFound, "invoice not found")
	}

	if err := s.repo.Delete(ctx, invoiceID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting invoice")
	}

	if s.storage != nil && invoice.FileURL != "" {
		if key, keyErr := s.storage.KeyFromURL(invoice.FileURL); keyErr == nil {
			if delErr := s.storage.Delete(ctx, key); delErr != nil && s.logg != nil {
				s.logg.Warn(ctx, "failed to delete invoice document from storage")
			}
		}
	}
	return nil
}
