package service

import (
	"context"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/idx"
)

// UserService is the subject directory behind ID tokens and userinfo.
type UserService struct {
	Store *store.Store
}

// GetProfile fetches a subject's directory profile. The directory is
// advisory: a missing entry yields a bare profile carrying only the subject
// id, never an error, since the subject was authenticated upstream.
func (s *UserService) GetProfile(ctx context.Context, userID string) domain.User {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{ID: userID}
	}
	return user
}

// ProvisionUserRequest carries the directory attributes for a new subject.
type ProvisionUserRequest struct {
	Email        string
	Name         string
	Role         string
	TenantID     string
	Department   string
	Organization string
}

// Provision creates a directory entry for a subject and returns it.
func (s *UserService) Provision(ctx context.Context, req ProvisionUserRequest) (domain.User, error) {
	if strings.TrimSpace(req.Email) == "" {
		return domain.User{}, ErrInvalidRequest
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		TenantID:     req.TenantID,
		Department:   req.Department,
		Organization: req.Organization,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().PutUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
