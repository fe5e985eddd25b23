package users

import (
	"context"
	"errors"
	"testing"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	findFn   func(ctx context.Context, externalID string) (*models.User, error)
	createFn func(ctx context.Context, user *models.User) error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}
func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, nil
}
func (s *stubRepo) FindByExternalAuthID(ctx context.Context, externalID string) (*models.User, error) {
	if s.findFn != nil {
		return s.findFn(ctx, externalID)
	}
	return nil, nil
}

func TestGetOrCreateReturnsExistingUser(t *testing.T) {
	existing := &models.User{ID: uuid.New(), ExternalAuthID: "ext-1"}
	created := false
	repo := &stubRepo{
		findFn: func(ctx context.Context, externalID string) (*models.User, error) {
			return existing, nil
		},
		createFn: func(ctx context.Context, user *models.User) error {
			created = true
			return nil
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	user, err := svc.GetOrCreate(context.Background(), "ext-1", "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != existing.ID {
		t.Fatalf("expected existing user, got %v", user.ID)
	}
	if created {
		t.Fatal("create should not run when the user exists")
	}
}

func TestGetOrCreateCreatesOnMiss(t *testing.T) {
	repo := &stubRepo{
		findFn: func(ctx context.Context, externalID string) (*models.User, error) {
			return nil, nil
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	user, err := svc.GetOrCreate(context.Background(), " ext-2 ", " b@example.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ExternalAuthID != "ext-2" {
		t.Fatalf("expected trimmed external id, got %q", user.ExternalAuthID)
	}
	if user.Email != "b@example.com" {
		t.Fatalf("expected trimmed email, got %q", user.Email)
	}
}

func TestGetOrCreateRecoversFromConcurrentInsert(t *testing.T) {
	winner := &models.User{ID: uuid.New(), ExternalAuthID: "ext-3"}
	calls := 0
	repo := &stubRepo{
		findFn: func(ctx context.Context, externalID string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return winner, nil
		},
		createFn: func(ctx context.Context, user *models.User) error {
			return errors.New(`duplicate key value violates unique constraint "idx_users_external_auth_id"`)
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	user, err := svc.GetOrCreate(context.Background(), "ext-3", "c@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != winner.ID {
		t.Fatalf("expected the concurrently created row, got %v", user.ID)
	}
}

func TestGetOrCreateDoesNotMistakeOtherConflictsForConcurrentInsert(t *testing.T) {
	finds := 0
	repo := &stubRepo{
		findFn: func(ctx context.Context, externalID string) (*models.User, error) {
			finds++
			return nil, nil
		},
		createFn: func(ctx context.Context, user *models.User) error {
			return errors.New("UNIQUE constraint failed: users.email")
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	_, err := svc.GetOrCreate(context.Background(), "ext-4", "d@example.com")
	if err == nil {
		t.Fatal("expected a conflict on a non-identity constraint to surface")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if finds != 1 {
		t.Fatalf("a non-identity conflict must not trigger the re-read, got %d finds", finds)
	}
}

func TestGetOrCreateRejectsEmptyIdentity(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &stubRepo{}})
	if _, err := svc.GetOrCreate(context.Background(), "  ", "x@example.com"); err == nil {
		t.Fatal("expected error for empty external id")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
