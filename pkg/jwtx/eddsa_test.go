package jwtx_test

import (
	"testing"
	"time"

	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://auth.example.com"

func TestEdDSASignAndVerify(t *testing.T) {
	// Generate Ed25519 keypair
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	kid := "test-key-eddsa"

	// Create signer
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.NotNil(t, signer)
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, kid, signer.KID())

	// Build claims using the helper
	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-456",
		[]string{"profile", "email"},
		5*time.Minute,
		exampleIssuer,
		[]string{"api"},
		now,
	)

	// Sign token
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Build KeySet for verification
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	// Verify the keyset has the right key
	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	// Create verifier
	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"api"})

	// Verify token
	parsedClaims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.NotNil(t, parsedClaims)

	require.Equal(t, claims.Issuer, parsedClaims.Issuer)
	require.Equal(t, claims.Subject, parsedClaims.Subject)
	require.ElementsMatch(t, claims.Audience, parsedClaims.Audience)
	require.ElementsMatch(t, claims.Scopes, parsedClaims.Scopes)
	require.NotEmpty(t, parsedClaims.ID) // JTI should be set
}

func TestEdDSAVerifyFailsForWrongIssuer(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-789", nil, 1*time.Minute, exampleIssuer, nil, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	// Verifier expects a different issuer
	verifier := jwtx.NewVerifierEdDSA(keyset, "wrong-issuer", []string{"api"})

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestEdDSAVerifyFailsForWrongAudience(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-1", nil, 1*time.Minute, exampleIssuer, []string{"client-a"}, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"client-b"})

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestEdDSAVerifyFailsForUnknownKey(t *testing.T) {
	// Two keypairs; only the second ends up in the keyset
	pemKey1, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer1, err := jwtx.NewSignerEdDSA("key1", pemKey1)
	require.NoError(t, err)

	pemKey2, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer2, err := jwtx.NewSignerEdDSA("key2", pemKey2)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-unknown", nil, 1*time.Minute, exampleIssuer, nil, now)
	token, err := signer1.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSAVerifyFailsForExpiredToken(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	// Issued well in the past with a short TTL
	issued := time.Now().UTC().Add(-10 * time.Minute)
	claims := jwtx.NewAccessClaims("user-exp", nil, 1*time.Minute, exampleIssuer, nil, issued)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSAValidateFailsForInvalidKey(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}

func TestEdDSACommonVerifierAdapter(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-123",
		[]string{"api:read"},
		1*time.Minute,
		exampleIssuer,
		nil,
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	// The adapter returns Claims by value through the common interface
	verifier := jwtx.NewCommonEdDSA(keyset, exampleIssuer, nil)

	parsedClaims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Issuer, parsedClaims.Issuer)
	require.Equal(t, claims.Subject, parsedClaims.Subject)
	require.ElementsMatch(t, claims.Scopes, parsedClaims.Scopes)
}

func TestNewIDClaimsCarriesProfile(t *testing.T) {
	now := time.Now().UTC()
	claims := jwtx.NewIDClaims(
		"user-9",
		time.Hour,
		exampleIssuer,
		"client-1",
		"nonce-abc",
		"dev@example.com",
		true,
		"Dev Example",
		now,
	)

	require.Equal(t, "user-9", claims.Subject)
	require.Equal(t, []string{"client-1"}, []string(claims.Audience))
	require.Equal(t, "nonce-abc", claims.Nonce)
	require.Equal(t, "dev@example.com", claims.Email)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "Dev Example", claims.Name)
	require.Empty(t, claims.Scopes)
}
