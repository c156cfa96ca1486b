// Package tokens issues and verifies the HS256 access tokens of the admin API.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/pkg/middleware"
)

const issuer = "lieux-exception"

var ErrNoSecret = errors.New("jwt secret is not configured")

// GenerateAccessToken signs a token carrying the user's identity and role.
func GenerateAccessToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"sub":   u.Sub,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verifier checks tokens produced by GenerateAccessToken. It satisfies
// middleware.Verifier.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates signature, algorithm, issuer and expiry.
func (v *Verifier) Parse(raw string) (jwt.MapClaims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	if _, ok := claims["exp"]; !ok {
		return nil, errors.New("verify access token: missing exp")
	}
	return claims, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := v.Parse(raw)
	if err != nil {
		return nil, err
	}
	return claimsToken(claims), nil
}

type claimsToken jwt.MapClaims

func (c claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(c))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// RemainingTTL returns how long a parsed token stays valid; zero when expired
// or without exp.
func RemainingTTL(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	d := time.Until(exp.Time)
	if d < 0 {
		return 0
	}
	return d
}
