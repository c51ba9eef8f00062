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
)

// DefaultCodeTTL is the authorization code lifetime when none is configured.
const DefaultCodeTTL = 10 * time.Minute

// AuthorizeService encapsulates the OAuth2 authorization-code issuance flow.
// The resource owner is already authenticated by the time a request reaches
// this service; req.UserID carries their identity.
type AuthorizeService struct {
	Store   *store.Store
	CodeTTL time.Duration
}

// AuthorizeRequest captures the validated inputs required to issue an
// authorization code.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        []string
	State        string
	Nonce        string

	// Optional PKCE parameters.
	CodeChallenge       string
	CodeChallengeMethod string

	// The authenticated resource owner.
	UserID string
}

// AuthorizeCodeResponse contains the authorization code and redirect
// information used to build the redirect back to the client.
type AuthorizeCodeResponse struct {
	Code        string
	RedirectURI string
	State       string
}

// IssueAuthorizationCode implements code issuance per RFC 6749 section 4.1.
//
// Validation order matters: client existence first, then response_type
// against the client's registered set, then redirect_uri (exact match against
// the registered list; a mismatch is never redirected to). Granted scopes are
// the intersection of the requested set
// with the client's registered scopes. Scopes the client does not own are
// silently dropped rather than rejected, so a client asking for more than it
// has simply gets less. An empty request defaults to the client's full set.
//
// The code itself is a 128-bit random opaque value. Only its fingerprint is
// stored, with a TTL, alongside everything the token exchange needs to
// validate redemption.
func (s *AuthorizeService) IssueAuthorizationCode(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.RedirectURI) == "" {
		return nil, ErrInvalidRequest
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrInvalidRequest
	}

	client, err := s.Store.Clients().GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	responseType := strings.TrimSpace(req.ResponseType)
	if !strings.EqualFold(responseType, "code") ||
		!containsFold(client.ResponseTypes, "code") {
		return nil, ErrUnsupportedResponseType
	}

	if !slices.Contains(client.RedirectURIs, req.RedirectURI) {
		return nil, ErrInvalidRequest
	}

	challenge, method, err := normalizePKCE(req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		return nil, err
	}

	requested := req.Scope
	if len(requested) == 0 {
		requested = client.Scopes
	}
	granted := intersectScopes(requested, client.Scopes)

	now := time.Now().UTC()
	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, err
	}

	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	record := domain.AuthorizationCode{
		ID:                  idx.New().String(),
		UserID:              req.UserID,
		ClientID:            client.ID,
		CodeHash:            cryptox.FingerprintToken(code),
		RedirectURI:         req.RedirectURI,
		Scopes:              granted,
		Nonce:               strings.TrimSpace(req.Nonce),
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(ttl),
		CreatedAt:           now,
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record, ttl); err != nil {
		return nil, err
	}

	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}, nil
}

func containsFold(haystack []string, needle string) bool {
	return slices.ContainsFunc(haystack, func(s string) bool {
		return strings.EqualFold(s, needle)
	})
}

// normalizePKCE validates the optional code_challenge parameters. A missing
// challenge is fine; a challenge with an unknown method is not.
func normalizePKCE(challenge, method string) (string, string, error) {
	trimmedChallenge := strings.TrimSpace(challenge)
	trimmedMethod := strings.TrimSpace(method)

	if trimmedChallenge == "" {
		return "", "", nil
	}

	switch {
	case strings.EqualFold(trimmedMethod, "S256"):
		return trimmedChallenge, "S256", nil
	case strings.EqualFold(trimmedMethod, "plain"):
		return trimmedChallenge, "plain", nil
	case trimmedMethod == "":
		// Default to S256 when challenge provided but method omitted.
		return trimmedChallenge, "S256", nil
	default:
		return "", "", ErrInvalidRequest
	}
}
