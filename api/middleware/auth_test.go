package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/autoaudit/autoaudit-backend/pkg/identity"
	"github.com/google/uuid"
)

type stubVerifier struct {
	ident *identity.Identity
	err   error
}

func (s *stubVerifier) Verify(token string) (*identity.Identity, error) {
	return s.ident, s.err
}

type stubResolver struct {
	user *models.User
	err  error

	gotExternalID string
	gotEmail      string
}

func (s *stubResolver) GetOrCreate(ctx context.Context, externalID, email string) (*models.User, error) {
	s.gotExternalID = externalID
	s.gotEmail = email
	return s.user, s.err
}

func TestAuthMissingHeaderIsUnauthorized(t *testing.T) {
	handler := Auth(&stubVerifier{}, &stubResolver{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthInvalidTokenIsUnauthorized(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("signature mismatch")}
	handler := Auth(verifier, &stubResolver{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthSeedsContextWithInternalUserID(t *testing.T) {
	internalID := uuid.New()
	verifier := &stubVerifier{ident: &identity.Identity{ExternalID: "user_abc", Email: "a@example.com"}}
	resolver := &stubResolver{user: &models.User{ID: internalID}}

	var seenID uuid.UUID
	handler := Auth(verifier, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seenID != internalID {
		t.Fatalf("expected the internal user id in context, got %v", seenID)
	}
	if resolver.gotExternalID != "user_abc" || resolver.gotEmail != "a@example.com" {
		t.Fatalf("resolver received %q/%q", resolver.gotExternalID, resolver.gotEmail)
	}
}

func TestAuthBearerPrefixIsOptionalAndCaseInsensitive(t *testing.T) {
	verifier := &stubVerifier{ident: &identity.Identity{ExternalID: "user_abc"}}
	resolver := &stubResolver{user: &models.User{ID: uuid.New()}}
	handler := Auth(verifier, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"bearer token-123", "BEARER token-123", "token-123"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("header %q: expected 200, got %d", header, rec.Code)
		}
	}
}
