package controllers

import (
	"context"
	"net/http"

	"github.com/autoaudit/autoaudit-backend/api/middleware"
	"github.com/autoaudit/autoaudit-backend/api/responses"
	"github.com/autoaudit/autoaudit-backend/api/validators"
	"github.com/autoaudit/autoaudit-backend/internal/vehicles"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/google/uuid"
)

// VehicleService is the surface the vehicle controllers depend on.
type VehicleService interface {
	Create(ctx context.Context, userID uuid.UUID, input vehicles.CreateInput) (*models.Vehicle, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error)
	Delete(ctx context.Context, userID, vehicleID uuid.UUID) error
}

type createVehiclePayload struct {
	Make               string `json:"make" validate:"required,max=100"`
	Model              string `json:"model" validate:"required,max=100"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=20"`
}

// VehiclesCreate registers a new vehicle for the authenticated user.
func VehiclesCreate(svc VehicleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		var payload createVehiclePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vehicle, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), vehicles.CreateInput{
			Make:               payload.Make,
			Model:              payload.Model,
			RegistrationNumber: payload.RegistrationNumber,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toVehicleView(*vehicle))
	}
}

// VehiclesList returns the user's vehicles, newest first.
func VehiclesList(svc VehicleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		list, err := svc.List(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]vehicleView, 0, len(list))
		for _, v := range list {
			views = append(views, toVehicleView(v))
		}
		responses.WriteSuccess(w, views)
	}
}

// VehiclesDelete removes an owned vehicle without invoices.
func VehiclesDelete(svc VehicleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vehicleID, err := validators.UUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, middleware.UserIDFromContext(ctx), vehicleID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
