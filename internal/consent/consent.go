// Package consent reads and writes the cookie-banner choice.
package consent

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const (
	CookieName = "lde_consent"
	// Version is bumped when the banner's categories change, which asks
	// every visitor again.
	Version = 1
	MaxAge  = 180 * 24 * time.Hour
)

var ErrInvalid = errors.New("invalid consent cookie")

// Consent is the visitor's choice. Necessary cookies cannot be refused.
type Consent struct {
	Version   int       `json:"v"`
	Necessary bool      `json:"necessary"`
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New builds a current-version consent.
func New(analytics, marketing bool, now time.Time) Consent {
	return Consent{
		Version:   Version,
		Necessary: true,
		Analytics: analytics,
		Marketing: marketing,
		UpdatedAt: now.UTC().Truncate(time.Second),
	}
}

func Encode(c Consent) (string, error) {
	c.Necessary = true
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Parse decodes a cookie value. Other versions are rejected.
func Parse(value string) (Consent, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Consent{}, ErrInvalid
	}
	var c Consent
	if err := json.Unmarshal(raw, &c); err != nil {
		return Consent{}, ErrInvalid
	}
	if c.Version != Version {
		return Consent{}, ErrInvalid
	}
	c.Necessary = true
	return c, nil
}

// FromRequest returns the stored consent; ok is false when absent or unusable.
func FromRequest(r *http.Request) (Consent, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return Consent{}, false
	}
	c, err := Parse(ck.Value)
	if err != nil {
		return Consent{}, false
	}
	return c, true
}

// Cookie builds the Set-Cookie value. The banner script reads it, so it is
// not HttpOnly.
func Cookie(c Consent, secure bool) (*http.Cookie, error) {
	v, err := Encode(c)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredCookie clears the choice.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
