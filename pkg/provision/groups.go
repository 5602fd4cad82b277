package provision

import (
	"context"
	"errors"
	"strings"

	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
)

// GroupByName fetches a group by its display name.
func (s *Service) GroupByName(ctx context.Context, name string) (*graph.Group, error) {
	groups, err := s.dir.GroupsByDisplayName(ctx, name)
	if err != nil {
		return nil, opError("get_group", name, err)
	}
	if len(groups) == 0 {
		return nil, &Error{Op: "get_group", Target: name, Err: ErrGroupNotFound}
	}
	return &groups[0], nil
}

// GroupByID fetches a group by object id.
func (s *Service) GroupByID(ctx context.Context, id string) (*graph.Group, error) {
	group, err := s.dir.GetGroup(ctx, id)
	if graph.IsNotFound(err) {
		return nil, &Error{Op: "get_group", Target: id, Err: ErrGroupNotFound}
	}
	if err != nil {
		return nil, opError("get_group", id, err)
	}
	return group, nil
}

// GroupsForUser lists the groups the account is a direct member of.
func (s *Service) GroupsForUser(ctx context.Context, userID string) ([]graph.Group, error) {
	groups, err := s.dir.MemberOf(ctx, userID)
	if graph.IsNotFound(err) {
		return nil, &Error{Op: "list_groups", Target: userID, Err: ErrAccountNotFound}
	}
	if err != nil {
		return nil, opError("list_groups", userID, err)
	}
	return groups, nil
}

// AddUserToGroup makes the account a member of the group. The operation is
// idempotent: the directory rejecting the add because the account is already
// a member counts as success.
func (s *Service) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	err := s.dir.AddGroupMember(ctx, groupID, userID)
	if err != nil && !isAlreadyMember(err) {
		if graph.IsNotFound(err) {
			return &Error{Op: "add_group_member", Target: groupID, Err: ErrGroupNotFound}
		}
		return opError("add_group_member", groupID, err)
	}

	logger.Info("group membership ensured",
		logger.KeyUserID, userID,
		logger.KeyGroupID, groupID)
	return nil
}

// AddUserToGroupByName resolves the group by display name before adding the
// account to it.
func (s *Service) AddUserToGroupByName(ctx context.Context, userID, groupName string) error {
	group, err := s.GroupByName(ctx, groupName)
	if err != nil {
		return err
	}
	return s.AddUserToGroup(ctx, userID, group.ID)
}

// isAlreadyMember detects the directory's rejection of a duplicate member
// add, which arrives as a 400 whose body names the existing link.
func isAlreadyMember(err error) bool {
	var apiErr *graph.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 400 &&
		strings.Contains(strings.ToLower(apiErr.Body), "already exist")
}
