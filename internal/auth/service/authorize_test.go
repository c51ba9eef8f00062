package service

import (
	"testing"

	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestIssueAuthorizationCode(t *testing.T) {
	f := newTestFixture(t)
	clientID, _ := f.registerClient(t, codeGrants, []string{"openid", "profile", "email"})

	base := AuthorizeRequest{
		ResponseType: "code",
		ClientID:     clientID,
		RedirectURI:  "https://app.example.com/cb",
		UserID:       "user-1",
	}

	t.Run("issues a code and stores it by fingerprint", func(t *testing.T) {
		req := base
		req.Scope = []string{"profile"}
		req.State = "opaque-state"

		resp, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Code)
		require.Equal(t, "opaque-state", resp.State)
		require.Equal(t, "https://app.example.com/cb", resp.RedirectURI)

		record, err := f.store.AuthorizationCodes().ConsumeAuthorizationCode(
			t.Context(), cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.Equal(t, "user-1", record.UserID)
		require.Equal(t, clientID, record.ClientID)
		require.Equal(t, []string{"profile"}, record.Scopes)
		require.NotEqual(t, resp.Code, record.CodeHash, "Raw code never hits the store")
	})

	t.Run("empty scope grants the client's full set", func(t *testing.T) {
		resp, err := f.authorize.IssueAuthorizationCode(t.Context(), base)
		require.NoError(t, err)

		record, err := f.store.AuthorizationCodes().ConsumeAuthorizationCode(
			t.Context(), cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"openid", "profile", "email"}, record.Scopes)
	})

	t.Run("over-asking narrows silently", func(t *testing.T) {
		req := base
		req.Scope = []string{"profile", "admin:everything"}

		resp, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.NoError(t, err)

		record, err := f.store.AuthorizationCodes().ConsumeAuthorizationCode(
			t.Context(), cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.Equal(t, []string{"profile"}, record.Scopes)
	})

	t.Run("response type must be code", func(t *testing.T) {
		req := base
		req.ResponseType = "token"

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrUnsupportedResponseType)
	})

	t.Run("unknown client", func(t *testing.T) {
		req := base
		req.ClientID = "no-such-client"

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unknown client wins over bad response type", func(t *testing.T) {
		req := base
		req.ClientID = "no-such-client"
		req.ResponseType = "token"

		// Client resolution comes first, so the caller learns the client is
		// unknown, not that the response type is unsupported.
		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unregistered redirect", func(t *testing.T) {
		req := base
		req.RedirectURI = "https://evil.example.com/cb"

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("redirect match is exact", func(t *testing.T) {
		req := base
		req.RedirectURI = "https://app.example.com/cb/extra"

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("missing user", func(t *testing.T) {
		req := base
		req.UserID = ""

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown pkce method rejected", func(t *testing.T) {
		req := base
		req.CodeChallenge = "abc"
		req.CodeChallengeMethod = "MD5"

		_, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("pkce method defaults to S256", func(t *testing.T) {
		req := base
		req.CodeChallenge = "some-challenge"
		req.CodeChallengeMethod = ""

		resp, err := f.authorize.IssueAuthorizationCode(t.Context(), req)
		require.NoError(t, err)

		record, err := f.store.AuthorizationCodes().ConsumeAuthorizationCode(
			t.Context(), cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.Equal(t, "S256", record.CodeChallengeMethod)
	})
}

func TestNormalizePKCE(t *testing.T) {
	tests := []struct {
		name          string
		challenge     string
		method        string
		wantChallenge string
		wantMethod    string
		wantErr       bool
	}{
		{"no challenge", "", "", "", "", false},
		{"no challenge ignores method", "", "S256", "", "", false},
		{"explicit S256", "c", "S256", "c", "S256", false},
		{"lowercase s256", "c", "s256", "c", "S256", false},
		{"plain", "c", "plain", "c", "plain", false},
		{"default is S256", "c", "", "c", "S256", false},
		{"unknown method", "c", "MD5", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challenge, method, err := normalizePKCE(tt.challenge, tt.method)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantChallenge, challenge)
			require.Equal(t, tt.wantMethod, method)
		})
	}
}
