package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/idx"
	"github.com/keyfold/keyfold/pkg/jwtx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// ScopeOpenID triggers ID token issuance on the authorization_code grant.
const ScopeOpenID = "openid"

type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      *store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ExchangeAuthorizationCode implements the OAuth2 authorization_code grant.
//
// After the client authenticates, the code record is consumed with an atomic
// fetch-and-delete. Every later validation failure (client mismatch,
// redirect mismatch, expiry, PKCE) leaves the code burned, so a replayed or
// stolen code can never succeed on a second attempt.
func (s *TokenService) ExchangeAuthorizationCode(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI, codeVerifier string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	redirectURI = strings.TrimSpace(redirectURI)
	codeVerifier = strings.TrimSpace(codeVerifier)
	if code == "" || redirectURI == "" {
		return nil, ErrInvalidGrant
	}

	// One-time redemption: the record is gone after this call no matter how
	// the rest of the exchange goes.
	authCode, err := s.Store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	if authCode.ClientID != client.ID {
		l.Warn("authorization code presented by wrong client",
			"code_client", authCode.ClientID, "client_id", client.ID)
		return nil, ErrInvalidGrant
	}
	if authCode.RedirectURI != redirectURI {
		return nil, ErrInvalidGrant
	}
	if now.After(authCode.ExpiresAt) {
		return nil, ErrInvalidGrant
	}
	if !verifyCodeVerifier(authCode.CodeChallenge, authCode.CodeChallengeMethod, codeVerifier) {
		return nil, ErrInvalidGrant
	}

	user := s.resolveUser(ctx, authCode.UserID)

	accessToken, err := s.signAccess(authCode.UserID, client.ID, authCode.Scopes, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := s.createRefreshToken(ctx, authCode.UserID, client.ID, authCode.Scopes, now)
	if err != nil {
		return nil, err
	}

	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
		Scope:        strings.Join(authCode.Scopes, " "),
	}

	if slices.Contains(authCode.Scopes, ScopeOpenID) {
		idToken, err := s.signIDToken(user, client.ID, authCode.Nonce, now)
		if err != nil {
			return nil, err
		}
		pair.IDToken = idToken
	}

	return pair, nil
}

// ExchangeRefreshToken implements the OAuth2 refresh_token grant.
//
// Rotation is mandatory: the presented token is deleted before the
// replacement is persisted, so reuse after rotation always fails. Requested
// scopes may only narrow the stored grant; anything outside it is dropped by
// intersection, and an empty request keeps the grant as-is.
func (s *TokenService) ExchangeRefreshToken(
	ctx context.Context,
	clientID, clientSecret, refreshOpaque string,
	requestedScopes []string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	// The KV TTL should have expired the record already; double-check for
	// defense in depth on the fallback path.
	if now.After(rt.ExpiresAt) {
		return nil, ErrInvalidGrant
	}

	if rt.ClientID != client.ID {
		return nil, ErrInvalidGrant
	}

	effective := rt.Scopes
	if len(requestedScopes) > 0 {
		effective = intersectScopes(requestedScopes, rt.Scopes)
	}
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	// Burn the old token first. If the create below fails the client has to
	// start over, which is the safe side of the race.
	if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, fp); err != nil {
		return nil, err
	}

	accessToken, err := s.signAccess(rt.UserID, client.ID, effective, now)
	if err != nil {
		return nil, err
	}

	newRefreshOpaque, err := s.createRefreshToken(ctx, rt.UserID, client.ID, effective, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
		Scope:        strings.Join(effective, " "),
	}, nil
}

// ExchangeClientCredentials implements the OAuth2 client_credentials grant.
//
// Machine-to-machine: the client is the subject. No refresh token is issued
// since the client can always re-authenticate, and no ID token is issued
// since there is no user.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	requestedScopes []string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(client.GrantTypes, "client_credentials") {
		return nil, ErrUnauthorizedClient
	}

	effective := client.Scopes
	if len(requestedScopes) > 0 {
		effective = intersectScopes(requestedScopes, client.Scopes)
	}
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	accessToken, err := s.signAccess(client.ID, client.ID, effective, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.AccessTTL.Seconds()),
		Scope:       strings.Join(effective, " "),
	}, nil
}

// Revoke invalidates a token regardless of kind, per RFC 7009. Refresh
// tokens are deleted from the store. Valid access JWTs get a revocation
// marker whose TTL equals the token's remaining life, so the marker expires
// with the token. Unknown or malformed tokens are a no-op; revocation is
// idempotent and never tells the caller whether the token existed.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	fp := cryptox.FingerprintToken(token)

	// Refresh token path: a stored record means deleting it is the whole job.
	if _, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp); err == nil {
		return s.Store.RefreshTokens().DeleteRefreshToken(ctx, fp)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// Access token path: only structurally valid, unexpired tokens get a
	// marker. Anything else is already dead.
	claims, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	return s.Store.Revocations().MarkRevoked(ctx, fp, remaining)
}

func (s *TokenService) authenticateClient(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if clientSecret == "" || cryptox.VerifySecret(clientSecret, client.SecretHash) != nil {
		l.Info("client authentication failed", "client_id", clientID)
		return domain.Client{}, ErrInvalidClient
	}

	return client, nil
}

// resolveUser loads the directory profile for a subject. The directory is
// advisory: a missing entry yields a bare profile with only the subject id,
// since authentication happened upstream of this service.
func (s *TokenService) resolveUser(ctx context.Context, userID string) domain.User {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{ID: userID}
	}
	return user
}

func (s *TokenService) createRefreshToken(ctx context.Context, userID, clientID string, scopes []string, now time.Time) (string, error) {
	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	ttl := s.RefreshTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultRefreshTokenTTL
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		ClientID:  clientID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		Scopes:    scopes,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt, ttl); err != nil {
		return "", err
	}

	return refreshOpaque, nil
}

func (s *TokenService) signAccess(subject, clientID string, scopes []string, now time.Time) (string, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(
		subject,
		scopes,
		ttl,
		s.Issuer,
		[]string{clientID},
		now,
	)

	// GetSigner distributes signing across the key set.
	signer := s.KeyManager.GetSigner()
	return signer.Sign(claims)
}

func (s *TokenService) signIDToken(user domain.User, clientID, nonce string, now time.Time) (string, error) {
	claims := jwtx.NewIDClaims(
		user.ID,
		jwtx.DefaultIDTokenTTL,
		s.Issuer,
		clientID,
		nonce,
		user.Email,
		user.EmailVerified,
		user.Name,
		now,
	)

	signer := s.KeyManager.GetSigner()
	return signer.Sign(claims)
}

// intersectScopes keeps the members of a that also appear in b, preserving
// a's order. Scopes outside b are dropped silently; over-asking narrows
// rather than fails.
func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func verifyCodeVerifier(challenge, method, verifier string) bool {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		// No PKCE challenge stored; accept regardless of verifier.
		return true
	}

	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return false
	}

	method = strings.TrimSpace(method)
	switch {
	case method == "" || strings.EqualFold(method, "plain"):
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case strings.EqualFold(method, "S256"):
		sum := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(expected)) == 1
	default:
		return false
	}
}
