package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(token string) TokenSource {
	return TokenSourceFunc(func(ctx context.Context) (string, error) {
		return token, nil
	})
}

func TestClientSetsHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("client-request-id")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(User{ID: "abc"})
	}))
	defer server.Close()

	client := New(server.URL, staticToken("test-token"))
	user, err := client.GetUser(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", user.ID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"Request_ResourceNotFound"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, staticToken("t"))
	_, err := client.GetUser(context.Background(), "missing")
	require.Error(t, err)

	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "get_user", apiErr.Operation)
	assert.Contains(t, apiErr.Body, "Request_ResourceNotFound")
}

func TestCreateUser(t *testing.T) {
	var gotBody NewUser

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(User{
			ID:                "49d0f1d9",
			UserPrincipalName: gotBody.UserPrincipalName,
		})
	}))
	defer server.Close()

	client := New(server.URL, staticToken("t"))
	created, err := client.CreateUser(context.Background(), NewUser{
		AccountEnabled:    true,
		DisplayName:       "Jane Doe",
		GivenName:         "Jane",
		Surname:           "Doe",
		MailNickname:      "jane.doe",
		UserPrincipalName: "jane.doe@example.net",
		PasswordProfile: &PasswordProfile{
			Password:                     "secret",
			ForceChangePasswordNextLogin: true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "49d0f1d9", created.ID)
	assert.Equal(t, "jane.doe@example.net", created.UserPrincipalName)
	assert.True(t, gotBody.AccountEnabled)
	require.NotNil(t, gotBody.PasswordProfile)
	assert.True(t, gotBody.PasswordProfile.ForceChangePasswordNextLogin)
}

func TestUsernamesStartingWith(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "startswith(userPrincipalName,'jane.doe')", r.URL.Query().Get("$filter"))

		_ = json.NewEncoder(w).Encode(queryResponse[User]{Value: []User{
			{UserPrincipalName: "jane.doe@example.net"},
			{UserPrincipalName: "jane.doe1@example.net"},
		}})
	}))
	defer server.Close()

	client := New(server.URL, staticToken("t"))
	names, err := client.UsernamesStartingWith(context.Background(), "jane.doe")
	require.NoError(t, err)
	assert.Equal(t, []string{"jane.doe@example.net", "jane.doe1@example.net"}, names)
}

func TestUserByRecoveryEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "otherMails/any(c:c eq 'contact@example.com')", r.URL.Query().Get("$filter"))
			_ = json.NewEncoder(w).Encode(queryResponse[User]{Value: []User{
				{ID: "u1", OtherMails: []string{"contact@example.com"}},
			}})
		}))
		defer server.Close()

		client := New(server.URL, staticToken("t"))
		user, err := client.UserByRecoveryEmail(context.Background(), "contact@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("no match is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(queryResponse[User]{})
		}))
		defer server.Close()

		client := New(server.URL, staticToken("t"))
		_, err := client.UserByRecoveryEmail(context.Background(), "nobody@example.com")
		assert.True(t, IsNotFound(err))
	})
}

func TestAddGroupMember(t *testing.T) {
	var gotRef map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/groups/g1/members/$ref", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRef))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, staticToken("t"))
	err := client.AddGroupMember(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/directoryObjects/u1", gotRef["@odata.id"])
}

func TestGroupsByDisplayName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/groups", r.URL.Path)
		assert.Equal(t, "displayName eq 'External'", r.URL.Query().Get("$filter"))
		_ = json.NewEncoder(w).Encode(queryResponse[Group]{Value: []Group{
			{ID: "g1", DisplayName: "External"},
		}})
	}))
	defer server.Close()

	client := New(server.URL, staticToken("t"))
	groups, err := client.GroupsByDisplayName(context.Background(), "External")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
}

func TestEscapeODataLiteral(t *testing.T) {
	assert.Equal(t, "o''brien", escapeODataLiteral("o'brien"))
	assert.Equal(t, "plain", escapeODataLiteral("plain"))
}
