package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PasswordProfile controls the initial credential of a directory account.
type PasswordProfile struct {
	Password                     string `json:"password"`
	ForceChangePasswordNextLogin bool   `json:"forceChangePasswordNextSignIn"`
}

// NewUser is the request payload for creating a directory account.
type NewUser struct {
	AccountEnabled    bool             `json:"accountEnabled"`
	DisplayName       string           `json:"displayName"`
	GivenName         string           `json:"givenName"`
	Surname           string           `json:"surname"`
	MailNickname      string           `json:"mailNickname"`
	OtherMails        []string         `json:"otherMails,omitempty"`
	PasswordProfile   *PasswordProfile `json:"passwordProfile"`
	UserPrincipalName string           `json:"userPrincipalName"`
}

// User is a directory account as returned by the service.
type User struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	GivenName         string   `json:"givenName"`
	Surname           string   `json:"surname"`
	MailNickname      string   `json:"mailNickname"`
	OtherMails        []string `json:"otherMails"`
	UserPrincipalName string   `json:"userPrincipalName"`
}

// UserUpdate is a partial update of a directory account. Nil fields are left
// unchanged.
type UserUpdate struct {
	OtherMails      []string         `json:"otherMails,omitempty"`
	PasswordProfile *PasswordProfile `json:"passwordProfile,omitempty"`
}

// CreateUser creates a new account in the directory.
func (c *Client) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	var created User
	if err := c.do(ctx, "create_user", http.MethodPost, "/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUser fetches an account by object id or principal name. A missing
// account surfaces as an APIError with status 404.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	return getResource[User](ctx, c, "get_user", "/users/"+url.PathEscape(id))
}

// UpdateUser applies a partial update to an account. A 404 means the account
// has not yet replicated; callers decide whether to retry.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) error {
	return c.do(ctx, "update_user", http.MethodPatch, "/users/"+url.PathEscape(id), update, nil)
}

// DeleteUser removes an account from the directory.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, "delete_user", http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// QueryUsers returns the accounts matching an OData filter expression.
func (c *Client) QueryUsers(ctx context.Context, filter string) ([]User, error) {
	path := "/users?$filter=" + url.QueryEscape(filter)
	return queryCollection[User](ctx, c, "query_users", path)
}

// UsernamesStartingWith returns every principal name in the directory that
// starts with the given prefix. Matching is a plain prefix filter; the caller
// narrows the list further.
func (c *Client) UsernamesStartingWith(ctx context.Context, prefix string) ([]string, error) {
	filter := fmt.Sprintf("startswith(userPrincipalName,'%s')", escapeODataLiteral(prefix))
	users, err := c.QueryUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.UserPrincipalName)
	}
	return names, nil
}

// UserByRecoveryEmail finds the account whose recovery address matches the
// given email, or returns a 404 APIError when no account matches.
func (c *Client) UserByRecoveryEmail(ctx context.Context, email string) (*User, error) {
	filter := fmt.Sprintf("otherMails/any(c:c eq '%s')", escapeODataLiteral(email))
	users, err := c.QueryUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &APIError{
			Operation:  "query_users",
			StatusCode: http.StatusNotFound,
			Body:       "no account with matching recovery email",
		}
	}
	return &users[0], nil
}

// escapeODataLiteral doubles single quotes so the value can be embedded in an
// OData string literal.
func escapeODataLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
		} else {
			out = append(out, s[i])
		}
	}
	return string(out)
}
