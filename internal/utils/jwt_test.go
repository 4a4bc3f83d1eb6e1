package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, model.RoleAdmin, 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, 5*time.Second)

	p, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, model.Principal{ID: 42, Role: model.RoleAdmin}, p)
	assert.True(t, p.IsAdmin())

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(tok.Token, &claims)
	require.NoError(t, err)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	valid, err := NewAccessToken(testSecret, 1, model.RoleUser, 5)
	require.NoError(t, err)

	expired, err := NewAccessToken(testSecret, 1, model.RoleUser, -5)
	require.NoError(t, err)

	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "OWNER", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	numericSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "role": model.RoleUser, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "role": model.RoleUser, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": model.RoleUser,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {secret: "other", token: valid.Token},
		"expired":      {secret: testSecret, token: expired.Token},
		"unknown role": {secret: testSecret, token: unknownRole},
		"missing exp":  {secret: testSecret, token: noExp},
		"numeric sub":  {secret: testSecret, token: numericSub},
		"alg none":     {secret: testSecret, token: none},
		"garbage":      {secret: testSecret, token: "not-a-jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseAccessToken_StringSubject(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7", "role": model.RoleUser, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	p, err := ParseAccessToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.ID)
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 43)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rt.Exp, 5*time.Second)

	other, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))

	hash, err = HashPassword("s3cret-pass", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
