package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-identity/identity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEndpoint(t *testing.T) {
	app := newTestApp(t)
	client, secret := app.createClient(t, allGrants, "read write")
	app.createUser(t, "alice")

	passwordForm := url.Values{
		"grant_type": {models.GrantTypePassword},
		"username":   {"alice"},
		"password":   {testUserPassword},
	}

	t.Run("Password grant over Basic auth", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/token", passwordForm, client.ClientID, secret)
		require.Equal(t, http.StatusOK, w.Code)

		// RFC 6749 §5.1 cache directives
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, "no-cache", w.Header().Get("Pragma"))

		body := decodeJSON(t, w.Body)
		assert.Equal(t, "Bearer", body["token_type"])
		assert.Equal(t, "read write", body["scope"])
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["refresh_token"])
		assert.EqualValues(t, 1800, body["expires_in"])
	})

	t.Run("Form-body client credentials also accepted", func(t *testing.T) {
		form := url.Values{}
		for k, v := range passwordForm {
			form[k] = v
		}
		form.Set("client_id", client.ClientID)
		form.Set("client_secret", secret)

		w := app.postForm(t, "/oauth2/token", form)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Bad client credentials answer 401 with a challenge", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/token", passwordForm, client.ClientID, "idp_wrong")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
		assert.Equal(t, "invalid_client", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Bad user password answers invalid_grant", func(t *testing.T) {
		form := url.Values{
			"grant_type": {models.GrantTypePassword},
			"username":   {"alice"},
			"password":   {"wrong"},
		}
		w := app.postForm(t, "/oauth2/token", form, client.ClientID, secret)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_grant", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Unknown grant type answers unsupported_grant_type", func(t *testing.T) {
		form := url.Values{"grant_type": {"implicit"}}
		w := app.postForm(t, "/oauth2/token", form, client.ClientID, secret)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "unsupported_grant_type", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Scope outside the client answers invalid_scope", func(t *testing.T) {
		form := url.Values{}
		for k, v := range passwordForm {
			form[k] = v
		}
		form.Set("scope", "admin")

		w := app.postForm(t, "/oauth2/token", form, client.ClientID, secret)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_scope", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Client credentials grant omits the refresh token", func(t *testing.T) {
		form := url.Values{"grant_type": {models.GrantTypeClientCredentials}}
		w := app.postForm(t, "/oauth2/token", form, client.ClientID, secret)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeJSON(t, w.Body)
		assert.NotEmpty(t, body["access_token"])
		assert.NotContains(t, body, "refresh_token")
	})
}

func TestIntrospectEndpoint(t *testing.T) {
	app := newTestApp(t)
	client, secret := app.createClient(t, allGrants, "read write")
	app.createUser(t, "alice")

	issue := app.postForm(t, "/oauth2/token", url.Values{
		"grant_type": {models.GrantTypePassword},
		"username":   {"alice"},
		"password":   {testUserPassword},
	}, client.ClientID, secret)
	require.Equal(t, http.StatusOK, issue.Code)
	accessToken := decodeJSON(t, issue.Body)["access_token"].(string)

	t.Run("Own token is active", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/introspect", url.Values{"token": {accessToken}}, client.ClientID, secret)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeJSON(t, w.Body)
		assert.Equal(t, true, body["active"])
		assert.Equal(t, "read write", body["scope"])
		assert.Equal(t, "alice", body["username"])
	})

	t.Run("Garbage token is inactive, still 200", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/introspect", url.Values{"token": {"not.a.jwt"}}, client.ClientID, secret)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeJSON(t, w.Body)["active"])
	})

	t.Run("Unauthenticated caller answers 401", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/introspect", url.Values{"token": {accessToken}}, client.ClientID, "idp_wrong")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_client", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Another client sees inactive", func(t *testing.T) {
		other, otherSecret := app.createClient(t, allGrants, "read")
		w := app.postForm(t, "/oauth2/introspect", url.Values{"token": {accessToken}}, other.ClientID, otherSecret)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeJSON(t, w.Body)["active"])
	})
}

func TestRevokeEndpoint(t *testing.T) {
	app := newTestApp(t)
	client, secret := app.createClient(t, allGrants, "read write")
	app.createUser(t, "alice")

	issue := app.postForm(t, "/oauth2/token", url.Values{
		"grant_type": {models.GrantTypePassword},
		"username":   {"alice"},
		"password":   {testUserPassword},
	}, client.ClientID, secret)
	require.Equal(t, http.StatusOK, issue.Code)
	accessToken := decodeJSON(t, issue.Body)["access_token"].(string)

	t.Run("Revocation answers 200 and deactivates the token", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/revoke", url.Values{
			"token":           {accessToken},
			"token_type_hint": {"access_token"},
		}, client.ClientID, secret)
		assert.Equal(t, http.StatusOK, w.Code)

		intro := app.postForm(t, "/oauth2/introspect", url.Values{"token": {accessToken}}, client.ClientID, secret)
		assert.Equal(t, false, decodeJSON(t, intro.Body)["active"])
	})

	t.Run("Unknown token still answers 200", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/revoke", url.Values{"token": {"not.a.jwt"}}, client.ClientID, secret)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Bad hint answers unsupported_token_type", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/revoke", url.Values{
			"token":           {accessToken},
			"token_type_hint": {"id_token"},
		}, client.ClientID, secret)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "unsupported_token_type", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Missing token answers invalid_request", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/revoke", url.Values{}, client.ClientID, secret)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeJSON(t, w.Body)["error"])
	})

	t.Run("Unauthenticated caller answers 401", func(t *testing.T) {
		w := app.postForm(t, "/oauth2/revoke", url.Values{"token": {accessToken}}, client.ClientID, "idp_wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
