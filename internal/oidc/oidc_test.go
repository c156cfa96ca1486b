package oidc

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeJWT(payload string) string {
	return "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestInsecureVerifier_ReadsClaims(t *testing.T) {
	tok, err := NewInsecureVerifier().Verify(context.Background(), fakeJWT(`{"sub":"kc-1","email":"a@b.fr"}`))
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	assert.Equal(t, "kc-1", claims["sub"])
	assert.Equal(t, "a@b.fr", claims["email"])
}

func TestInsecureVerifier_Rejects(t *testing.T) {
	v := NewInsecureVerifier()
	for name, raw := range map[string]string{
		"two parts":  "a.b",
		"bad base64": "a.!!!.c",
		"not json":   fakeJWT("nope"),
		"no subject": fakeJWT(`{"email":"a@b.fr"}`),
	} {
		_, err := v.Verify(context.Background(), raw)
		assert.Error(t, err, name)
	}
}

func TestIssuerURL(t *testing.T) {
	assert.Equal(t, "https://sso.example.com/realms/lde", IssuerURL("https://sso.example.com", "lde"))
}
