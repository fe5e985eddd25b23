package vehicles

import (
	"context"
	"errors"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/db"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/google/uuid"
)

// CreateInput carries the fields for registering a vehicle.
type CreateInput struct {
	Make               string
	Model              string
	RegistrationNumber string
}

// ServiceParams groups dependencies for the vehicle service.
type ServiceParams struct {
	Repo Repository
}

// Service orchestrates vehicle operations.
type Service struct {
	repo Repository
}

// NewService builds a vehicle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Create registers a vehicle for the user. Registration numbers are
// normalized to uppercase and must be globally unique.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Vehicle, error) {
	vehicleMake := strings.TrimSpace(input.Make)
	vehicleModel := strings.TrimSpace(input.Model)
	registration := strings.ToUpper(strings.TrimSpace(input.RegistrationNumber))
	if vehicleMake == "" || vehicleModel == "" || registration == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "make, model and registration number are required")
	}

	vehicle := &models.Vehicle{
		UserID:             userID,
		Make:               vehicleMake,
		Model:              vehicleModel,
		RegistrationNumber: registration,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.New(apperrors.CodeConflict, "a vehicle with this registration number already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating vehicle")
	}
	return vehicle, nil
}

// List returns the user's vehicles, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error) {
	vehicles, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing vehicles")
	}
	return vehicles, nil
}

// Delete removes an owned vehicle. Vehicles that still have invoices cannot
// be deleted; absent and unowned vehicles produce the same NotFound.
func (s *Service) Delete(ctx context.Context, userID, vehicleID uuid.UUID) error {
	vehicle, err := s.repo.FindOwned(ctx, userID, vehicleID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "looking up vehicle")
	}
	if vehicle == nil {
		return apperrors.New(apperrors.CodeNotFound, "vehicle not found")
	}

	count, err := s.repo.CountInvoices(ctx, vehicleID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "counting invoices")
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeConflict, "vehicle has invoices and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, vehicleID); err != nil {
		// an invoice created between the count and the delete trips the
		// RESTRICT foreign key; same answer as the count check
		if db.IsForeignKeyViolation(err) {
			return apperrors.New(apperrors.CodeConflict, "vehicle has invoices and cannot be deleted")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting vehicle")
	}
	return nil
}
