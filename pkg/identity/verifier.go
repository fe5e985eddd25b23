package identity

import (
	"fmt"
	"strings"

	"github.com/autoaudit/autoaudit-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Identity is the externally-verified caller: a stable subject issued by the
// auth provider plus the email recorded there.
type Identity struct {
	ExternalID string
	Email      string
}

// Verifier resolves a bearer token into an external identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// JWTVerifier validates HS256 tokens minted by the external auth provider.
type JWTVerifier struct {
	cfg config.AuthConfig
}

type providerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTVerifier builds a verifier for the configured secret and issuer.
func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}
	return &JWTVerifier{cfg: cfg}, nil
}

// Verify parses and validates the token, returning the provider subject and
// email claims.
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &providerClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(v.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, fmt.Errorf("token is missing a subject")
	}

	return &Identity{
		ExternalID: subject,
		Email:      strings.TrimSpace(claims.Email),
	}, nil
}
