package users

import (
	"context"
	"errors"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/db"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	apperrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
)

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo Repository
}

// Service resolves external identities into internal user rows.
type Service struct {
	repo Repository
}

// NewService builds a user service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// GetOrCreate returns the internal user for an external identity, creating
// the row on first sight. Safe to call concurrently for the same identity:
// the unique constraint on external_auth_id is the arbiter, and a losing
// insert is resolved by re-reading.
func (s *Service) GetOrCreate(ctx context.Context, externalID, email string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "missing external identity")
	}

	existing, err := s.repo.FindByExternalAuthID(ctx, externalID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "looking up user")
	}
	if existing != nil {
		return existing, nil
	}

	user := &models.User{
		ExternalAuthID: externalID,
		Email:          strings.TrimSpace(email),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// only a conflict on the identity column means someone else won the
		// race; any other constraint is a real failure
		if db.IsUniqueViolation(err, "external_auth_id") {
			winner, readErr := s.repo.FindByExternalAuthID(ctx, externalID)
			if readErr != nil {
				return nil, apperrors.Wrap(apperrors.CodeInternal, readErr, "re-reading user after conflict")
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating user")
	}
	return user, nil
}
