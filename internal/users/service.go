package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/pkg/logger"
)

var ErrInvalidRole = errors.New("invalid role")

// SessionRevoker ends all refresh sessions of a subject.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, sub string) (int, error)
}

// Service encapsulates user-related business logic
type Service struct {
	repo     UserRepository
	admins   map[string]bool
	sessions SessionRevoker
}

// NewService builds the user service. Emails in adminEmails get the admin
// role on first login. sessions may be nil.
func NewService(r UserRepository, adminEmails []string, sessions SessionRevoker) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &Service{repo: r, admins: admins, sessions: sessions}
}

// UpsertFromClaims creates or updates a user from OIDC claims. A claims map
// without "sub" yields (nil, nil).
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	role := models.RoleViewer
	if s.admins[email] {
		role = models.RoleAdmin
	}
	return s.repo.UpsertBySub(ctx, &models.User{Sub: sub, Email: email, Name: name, Role: role})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// SetRole changes the role of sub and ends its refresh sessions so the new
// role applies at the next login.
func (s *Service) SetRole(ctx context.Context, sub, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	u, err := s.repo.SetRole(ctx, sub, role)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		n, err := s.sessions.RevokeAll(ctx, sub)
		if err != nil {
			logger.For("users").Warnf("revoke sessions of %s after role change: %v", sub, err)
		} else if n > 0 {
			logger.For("users").Infof("revoked %d session(s) of %s after role change", n, sub)
		}
	}
	return u, nil
}
