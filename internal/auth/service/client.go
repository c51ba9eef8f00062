package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/idx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// Defaults applied when a registration request omits the fields.
var (
	defaultGrantTypes    = []string{"authorization_code", "refresh_token"}
	defaultResponseTypes = []string{"code"}
)

// ClientService is the registry of OAuth2 clients.
type ClientService struct {
	Store *store.Store
}

// RegisterClientRequest captures the inputs for client registration.
type RegisterClientRequest struct {
	Name          string
	RedirectURIs  []string
	GrantTypes    []string
	ResponseTypes []string
	Scopes        []string
	TenantID      string
}

// RegisterClient creates a new confidential OAuth2 client. The generated
// secret is Argon2id-hashed before it hits the store; the plaintext is
// returned exactly once and cannot be recovered afterwards.
func (s *ClientService) RegisterClient(ctx context.Context, req RegisterClientRequest) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(req.Name) == "" || len(req.RedirectURIs) == 0 {
		return domain.Client{}, "", ErrInvalidRequest
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate client secret", "error", err)
		return domain.Client{}, "", err
	}

	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash client secret", "error", err)
		return domain.Client{}, "", err
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = defaultGrantTypes
	}
	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = defaultResponseTypes
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:            idx.New().String(),
		Name:          strings.TrimSpace(req.Name),
		SecretHash:    secretHash,
		RedirectURIs:  req.RedirectURIs,
		GrantTypes:    dedupe(grantTypes),
		ResponseTypes: dedupe(responseTypes),
		Scopes:        dedupe(req.Scopes),
		TenantID:      req.TenantID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to create client", "error", err)
		return domain.Client{}, "", err
	}

	l.Info("client registered", "client_id", client.ID, "name", client.Name)
	return client, secret, nil
}

// GetClient fetches a client by id.
func (s *ClientService) GetClient(ctx context.Context, clientID string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, err
	}
	return client, nil
}

// ValidateCredentials authenticates a client by id and secret. Unknown
// client and wrong secret are indistinguishable to the caller; both return
// ErrInvalidClient.
func (s *ClientService) ValidateCredentials(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if clientSecret == "" || cryptox.VerifySecret(clientSecret, client.SecretHash) != nil {
		return domain.Client{}, ErrInvalidClient
	}

	return client, nil
}

// ValidateRedirectURI checks a redirect_uri against the registered list.
// Matching is exact string comparison; no prefixes, no patterns.
func (s *ClientService) ValidateRedirectURI(client domain.Client, redirectURI string) bool {
	return slices.Contains(client.RedirectURIs, redirectURI)
}
