package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailforge/internal/model"
)

func newTestCodec(t *testing.T, ttl time.Duration, now time.Time) *TokenCodec {
	t.Helper()
	codec := NewTokenCodec("test-secret", ttl)
	codec.now = func() time.Time { return now }
	return codec
}

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, time.Hour, issuedAt)
	accountID := uuid.New()

	token, expiresAt, err := codec.Issue(accountID, model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.Equal(issuedAt.Add(time.Hour)))

	session, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, session.AccountID)
	assert.Equal(t, model.RoleAdmin, session.Role)
	assert.True(t, session.ExpiresAt.Equal(expiresAt))
}

func TestTokenCodec_ValidityWindow(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "at issue time", at: issuedAt},
		{name: "just before expiry", at: issuedAt.Add(window - time.Second)},
		{name: "exactly at expiry", at: issuedAt.Add(window), wantErr: ErrTokenExpired},
		{name: "long after expiry", at: issuedAt.Add(48 * time.Hour), wantErr: ErrTokenExpired},
	}

	codec := newTestCodec(t, window, issuedAt)
	token, _, err := codec.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			codec.now = func() time.Time { return at }

			session, err := codec.Verify(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, session)
		})
	}
}

func TestTokenCodec_RejectsInvalidTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, time.Hour, now)
	token, _, err := codec.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	other := newTestCodec(t, time.Hour, now)
	other.secret = []byte("another-secret")
	foreign, _, err := other.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tamperedSig := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not-a-token", wantErr: ErrTokenMalformed},
		{name: "empty", token: "", wantErr: ErrTokenMalformed},
		{name: "tampered signature", token: tamperedSig, wantErr: ErrTokenSignature},
		{name: "signed with another secret", token: foreign, wantErr: ErrTokenSignature},
		{name: "unsigned token", token: noneToken, wantErr: ErrTokenSignature},
		{name: "subject is not an id", token: badSubject, wantErr: ErrTokenMalformed},
		{name: "no expiry", token: noExpiry, wantErr: ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, session)
		})
	}
}

func TestNewTokenCodec_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewTokenCodec("s", 0).TTL())
	assert.Equal(t, time.Hour, NewTokenCodec("s", time.Hour).TTL())
}

func TestCanAdminister(t *testing.T) {
	assert.True(t, CanAdminister(model.RoleAdmin))
	assert.False(t, CanAdminister(model.RoleUser))
	assert.False(t, CanAdminister(""))
}

func TestPrincipal_CanModify(t *testing.T) {
	owner := uuid.New()
	user := NewPrincipal(&model.Account{ID: owner, Role: model.RoleUser})
	stranger := NewPrincipal(&model.Account{ID: uuid.New(), Role: model.RoleUser})
	admin := NewPrincipal(&model.Account{ID: uuid.New(), Role: model.RoleAdmin})

	assert.True(t, user.CanModify(owner))
	assert.False(t, stranger.CanModify(owner))
	assert.True(t, admin.CanModify(owner))

	var nobody *Principal
	assert.False(t, nobody.CanModify(owner))
	assert.False(t, nobody.IsAdmin())
}
