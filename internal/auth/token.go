package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"mailforge/internal/model"
)

// DefaultTokenTTL is the validity window used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired is returned when the current time is at or past the token expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned for structurally invalid tokens.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when the signature or algorithm does not match.
	ErrTokenSignature = errors.New("token signature mismatch")
)

// Claims represents the session token payload.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the verified content of a token.
type Session struct {
	AccountID uuid.UUID
	Role      model.Role
	ExpiresAt time.Time
}

// TokenCodec issues and verifies stateless, signed session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec creates a codec signing with secret. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Expiry is checked against the codec clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// TTL returns the validity window of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the account that expires after the configured TTL.
func (c *TokenCodec) Issue(accountID uuid.UUID, role model.Role) (string, time.Time, error) {
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.ttl)

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of a token and returns its session.
func (c *TokenCodec) Verify(tokenString string) (*Session, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrTokenSignature) {
			return nil, ErrTokenSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrTokenMalformed)
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", ErrTokenMalformed)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", ErrTokenMalformed)
	}

	return &Session{
		AccountID: accountID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
