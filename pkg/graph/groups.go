package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Group is a directory security group.
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// GetGroup fetches a group by object id.
func (c *Client) GetGroup(ctx context.Context, id string) (*Group, error) {
	return getResource[Group](ctx, c, "get_group", "/groups/"+url.PathEscape(id))
}

// GroupsByDisplayName returns the groups whose display name equals name.
func (c *Client) GroupsByDisplayName(ctx context.Context, name string) ([]Group, error) {
	filter := fmt.Sprintf("displayName eq '%s'", escapeODataLiteral(name))
	path := "/groups?$filter=" + url.QueryEscape(filter)
	return queryCollection[Group](ctx, c, "query_groups", path)
}

// MemberOf returns the groups the given account is a direct member of.
func (c *Client) MemberOf(ctx context.Context, userID string) ([]Group, error) {
	path := "/users/" + url.PathEscape(userID) + "/memberOf"
	return queryCollection[Group](ctx, c, "member_of", path)
}

// AddGroupMember adds an account to a group by directory object reference.
// Adding an existing member is reported by the directory as a 400; the caller
// treats that as success.
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID string) error {
	body := map[string]string{
		"@odata.id": c.baseURL + "/directoryObjects/" + url.PathEscape(userID),
	}
	path := "/groups/" + url.PathEscape(groupID) + "/members/$ref"
	return c.do(ctx, "add_group_member", http.MethodPost, path, body, nil)
}
