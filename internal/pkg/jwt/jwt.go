package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT defines the minimal operations needed by the app: generate and verify a
// session token.
type JWT interface {
	// Generate creates a signed session token for the account.
	Generate(in TokenInput) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the default session time-to-live.
	TTL time.Duration
	// RememberTTL is the extended time-to-live for remembered sessions.
	RememberTTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// TokenInput carries the session attributes baked into a generated token.
type TokenInput struct {
	// AccountID is the authenticated account identifier.
	AccountID int64
	// Email is the authenticated account email.
	Email string
	// TwoFactorVerified reports whether this session passed a second factor.
	TwoFactorVerified bool
	// EmailVerified reports whether the account email was verified at issuance.
	EmailVerified bool
	// Remember selects the extended session lifetime.
	Remember bool
}

// Claims is a helper for wrapping registered claims with a payload.
type Claims struct {
	// RegisteredClaims holds the standard JWT claims.
	jwt.RegisteredClaims
	// AccountID is the authenticated account identifier.
	AccountID int64 `json:"account_id,string"`
	// Email is the authenticated account email.
	Email string `json:"email"`
	// TwoFactorVerified reports whether this session passed a second factor.
	TwoFactorVerified bool `json:"twofa_verified"`
	// EmailVerified reports whether the account email was verified at issuance.
	EmailVerified bool `json:"email_verified"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
