package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-32-bytes-should-be-long-enough"

func TestGenerateAndVerify(t *testing.T) {
	u := &models.User{Sub: "user-123", Name: "Test User", Email: "test@example.com", Role: models.RoleEditor}
	raw, err := GenerateAccessToken(secret, u, 2*time.Minute)
	require.NoError(t, err)

	tok, err := NewVerifier(secret).Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	assert.Equal(t, "user-123", claims["sub"])
	assert.Equal(t, "editor", claims["role"])
}

func TestVerify_Expired(t *testing.T) {
	raw, err := GenerateAccessToken(secret, &models.User{Sub: "u2"}, -time.Second)
	require.NoError(t, err)
	_, err = NewVerifier(secret).Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	raw, err := GenerateAccessToken(secret, &models.User{Sub: "u3"}, time.Minute)
	require.NoError(t, err)
	_, err = NewVerifier("another-secret-32-bytes-longgggg").Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"iss": issuer, "sub": "u4", "role": "admin", "exp": time.Now().Add(time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = NewVerifier(secret).Verify(context.Background(), raw)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewVerifier(secret).Verify(context.Background(), none)
	assert.Error(t, err)
}

func TestGenerate_RequiresSecret(t *testing.T) {
	_, err := GenerateAccessToken("", &models.User{Sub: "x"}, time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestRemainingTTL(t *testing.T) {
	raw, _ := GenerateAccessToken(secret, &models.User{Sub: "u5"}, 10*time.Minute)
	claims, err := NewVerifier(secret).Parse(raw)
	require.NoError(t, err)
	ttl := RemainingTTL(claims)
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 5)
	assert.Zero(t, RemainingTTL(jwt.MapClaims{}))
}
