package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
)

// Key prefixes. Opaque credentials (codes, refresh tokens, gateway tokens)
// are keyed by SHA-256 fingerprint, never by raw value.
const (
	prefixClient      = "auth:client:"
	prefixCode        = "auth:code:"
	prefixRefresh     = "auth:refresh:"
	prefixRevoked     = "auth:revoked:"
	prefixUser        = "auth:user:"
	prefixAPIToken    = "gateway:token:"
	prefixRateCounter = "ratelimit:"
	keySigningKeys    = "auth:signing_keys"
)

// Store exposes typed repositories over a KV backend. All records are JSON
// documents; TTL management is delegated to the KV so both drivers and the
// failover decorator see the same expiry behavior.
type Store struct {
	kv KV
}

// New wraps a KV (usually a Failover) in the repository layer.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Clients() *Clients             { return &Clients{kv: s.kv} }
func (s *Store) AuthorizationCodes() *Codes    { return &Codes{kv: s.kv} }
func (s *Store) RefreshTokens() *RefreshTokens { return &RefreshTokens{kv: s.kv} }
func (s *Store) Revocations() *Revocations     { return &Revocations{kv: s.kv} }
func (s *Store) Users() *Users                 { return &Users{kv: s.kv} }
func (s *Store) APITokens() *APITokens         { return &APITokens{kv: s.kv} }
func (s *Store) RateCounters() *RateCounters   { return &RateCounters{kv: s.kv} }
func (s *Store) SigningKeys() *SigningKeys     { return &SigningKeys{kv: s.kv} }

// Ping verifies the backing KV is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.kv.Ping(ctx) }

// Close releases the backing KV.
func (s *Store) Close() error { return s.kv.Close() }

func putJSON(ctx context.Context, kv KV, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", key, err)
	}
	return kv.SetWithTTL(ctx, key, string(raw), ttl)
}

func getJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("store: unmarshal %q: %w", key, err)
	}
	return nil
}

func getDelJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := kv.GetDel(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("store: unmarshal %q: %w", key, err)
	}
	return nil
}

// Clients persists registered OAuth2 clients. Client records never expire.
type Clients struct{ kv KV }

func (r *Clients) CreateClient(ctx context.Context, c domain.Client) error {
	return putJSON(ctx, r.kv, prefixClient+c.ID, c, 0)
}

func (r *Clients) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	var c domain.Client
	if err := getJSON(ctx, r.kv, prefixClient+id, &c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (r *Clients) DeleteClient(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, prefixClient+id)
}

// Codes persists authorization codes keyed by fingerprint. Redemption is a
// single atomic fetch-and-delete, which is what makes codes one-time.
type Codes struct{ kv KV }

func (r *Codes) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, ttl time.Duration) error {
	return putJSON(ctx, r.kv, prefixCode+code.CodeHash, code, ttl)
}

// ConsumeAuthorizationCode removes and returns the code record in one
// operation. A second call with the same fingerprint returns ErrNotFound
// regardless of how the first call's validation went.
func (r *Codes) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (domain.AuthorizationCode, error) {
	var code domain.AuthorizationCode
	if err := getDelJSON(ctx, r.kv, prefixCode+codeHash, &code); err != nil {
		return domain.AuthorizationCode{}, err
	}
	return code, nil
}

// RefreshTokens persists refresh token records keyed by fingerprint.
type RefreshTokens struct{ kv KV }

func (r *RefreshTokens) CreateRefreshToken(ctx context.Context, t domain.RefreshToken, ttl time.Duration) error {
	return putJSON(ctx, r.kv, prefixRefresh+t.TokenHash, t, ttl)
}

func (r *RefreshTokens) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	if err := getJSON(ctx, r.kv, prefixRefresh+hash, &t); err != nil {
		return domain.RefreshToken{}, err
	}
	return t, nil
}

func (r *RefreshTokens) DeleteRefreshToken(ctx context.Context, hash string) error {
	return r.kv.Delete(ctx, prefixRefresh+hash)
}

// Revocations tracks revocation markers for stateless access tokens. A
// marker's TTL equals the token's remaining lifetime, so markers clean
// themselves up when the token would have expired anyway.
type Revocations struct{ kv KV }

func (r *Revocations) MarkRevoked(ctx context.Context, fingerprint string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to mark.
		return nil
	}
	return r.kv.SetWithTTL(ctx, prefixRevoked+fingerprint, "1", ttl)
}

func (r *Revocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	_, err := r.kv.Get(ctx, prefixRevoked+fingerprint)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Users is the directory of subject profiles used for ID tokens and the
// userinfo endpoint.
type Users struct{ kv KV }

func (r *Users) PutUser(ctx context.Context, u domain.User) error {
	return putJSON(ctx, r.kv, prefixUser+u.ID, u, 0)
}

func (r *Users) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	if err := getJSON(ctx, r.kv, prefixUser+id, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// APITokens persists gateway credentials keyed by fingerprint.
type APITokens struct{ kv KV }

func (r *APITokens) CreateAPIToken(ctx context.Context, t domain.APIToken) error {
	return putJSON(ctx, r.kv, prefixAPIToken+t.TokenHash, t, 0)
}

func (r *APITokens) GetAPITokenByHash(ctx context.Context, hash string) (domain.APIToken, error) {
	var t domain.APIToken
	if err := getJSON(ctx, r.kv, prefixAPIToken+hash, &t); err != nil {
		return domain.APIToken{}, err
	}
	return t, nil
}

func (r *APITokens) DeleteAPIToken(ctx context.Context, hash string) error {
	return r.kv.Delete(ctx, prefixAPIToken+hash)
}

// RateCounters implements fixed-window counting for the gateway limiter.
// Windows are wall-clock aligned and keyed by subject, window name, and the
// window's start instant; the TTL is armed by the first increment.
type RateCounters struct{ kv KV }

func (r *RateCounters) Incr(ctx context.Context, subject, window string, windowStart time.Time, ttl time.Duration) (int64, error) {
	key := fmt.Sprintf("%s%s:%s:%d", prefixRateCounter, subject, window, windowStart.Unix())
	return r.kv.IncrWithTTL(ctx, key, ttl)
}

// SigningKeys persists JWT signing keys. The whole set lives under a single
// document because the KV offers no scan, and key counts are tiny.
type SigningKeys struct{ kv KV }

func (r *SigningKeys) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	var keys []domain.SigningKey
	err := getJSON(ctx, r.kv, keySigningKeys, &keys)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateSigningKey appends to the key set with a read-modify-write. Only
// startup touches this document, so the race window is acceptable.
func (r *SigningKeys) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	keys, err := r.ListSigningKeys(ctx)
	if err != nil {
		return err
	}
	for _, existing := range keys {
		if existing.Kid == key.Kid {
			return ErrAlreadyExists
		}
	}
	keys = append(keys, key)
	return putJSON(ctx, r.kv, keySigningKeys, keys, 0)
}
