package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Run("Secret has prefix and validates", func(t *testing.T) {
		client := &Client{}
		secret, err := client.GenerateSecret(4)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(secret, "idp_"))
		assert.NotEmpty(t, client.SecretHash)
		assert.NotEqual(t, secret, client.SecretHash)
		assert.True(t, client.ValidateSecret([]byte(secret)))
	})

	t.Run("Wrong secret fails validation", func(t *testing.T) {
		client := &Client{}
		_, err := client.GenerateSecret(4)
		require.NoError(t, err)

		assert.False(t, client.ValidateSecret([]byte("idp_wrong")))
	})

	t.Run("Secrets are unique", func(t *testing.T) {
		c1, c2 := &Client{}, &Client{}
		s1, err := c1.GenerateSecret(4)
		require.NoError(t, err)
		s2, err := c2.GenerateSecret(4)
		require.NoError(t, err)

		assert.NotEqual(t, s1, s2)
	})
}

func TestAllowsGrantType(t *testing.T) {
	client := &Client{GrantTypes: "authorization_code refresh_token"}

	assert.True(t, client.AllowsGrantType(GrantTypeAuthorizationCode))
	assert.True(t, client.AllowsGrantType(GrantTypeRefreshToken))
	assert.False(t, client.AllowsGrantType(GrantTypePassword))
	assert.False(t, client.AllowsGrantType(GrantTypeClientCredentials))
	assert.False(t, client.AllowsGrantType(""))
}

func TestHasRedirectURI(t *testing.T) {
	client := &Client{RedirectURIs: StringArray{"https://app.example.com/callback"}}

	t.Run("Exact match", func(t *testing.T) {
		assert.True(t, client.HasRedirectURI("https://app.example.com/callback"))
	})

	t.Run("No partial or prefix match", func(t *testing.T) {
		assert.False(t, client.HasRedirectURI("https://app.example.com/callback/extra"))
		assert.False(t, client.HasRedirectURI("https://app.example.com/"))
		assert.False(t, client.HasRedirectURI("http://app.example.com/callback"))
	})

	t.Run("Empty list matches nothing", func(t *testing.T) {
		empty := &Client{}
		assert.False(t, empty.HasRedirectURI("https://app.example.com/callback"))
	})
}

func TestStringArray(t *testing.T) {
	t.Run("Round trip through driver value", func(t *testing.T) {
		original := StringArray{"https://a.example.com", "https://b.example.com"}
		value, err := original.Value()
		require.NoError(t, err)

		var scanned StringArray
		require.NoError(t, scanned.Scan(value))
		assert.Equal(t, original, scanned)
	})

	t.Run("Nil scans to empty slice", func(t *testing.T) {
		var scanned StringArray
		require.NoError(t, scanned.Scan(nil))
		assert.Empty(t, scanned)
	})

	t.Run("Empty array serializes as JSON array", func(t *testing.T) {
		value, err := StringArray{}.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), value)
	})

	t.Run("Non-bytes value rejected", func(t *testing.T) {
		var scanned StringArray
		assert.Error(t, scanned.Scan(42))
	})
}
