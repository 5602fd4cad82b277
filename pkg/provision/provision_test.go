package provision

import (
	"context"
	"net/http"

	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
)

// fakeDirectory is a scriptable Directory for tests. Unset hooks fail the
// call with a 404 so forgotten wiring is loud.
type fakeDirectory struct {
	createUser            func(ctx context.Context, user graph.NewUser) (*graph.User, error)
	getUser               func(ctx context.Context, id string) (*graph.User, error)
	updateUser            func(ctx context.Context, id string, update graph.UserUpdate) error
	deleteUser            func(ctx context.Context, id string) error
	usernamesStartingWith func(ctx context.Context, prefix string) ([]string, error)
	userByRecoveryEmail   func(ctx context.Context, email string) (*graph.User, error)
	getGroup              func(ctx context.Context, id string) (*graph.Group, error)
	groupsByDisplayName   func(ctx context.Context, name string) ([]graph.Group, error)
	memberOf              func(ctx context.Context, userID string) ([]graph.Group, error)
	addGroupMember        func(ctx context.Context, groupID, userID string) error
}

func notFound(op string) error {
	return &graph.APIError{Operation: op, StatusCode: http.StatusNotFound}
}

func (f *fakeDirectory) CreateUser(ctx context.Context, user graph.NewUser) (*graph.User, error) {
	if f.createUser == nil {
		return nil, notFound("create_user")
	}
	return f.createUser(ctx, user)
}

func (f *fakeDirectory) GetUser(ctx context.Context, id string) (*graph.User, error) {
	if f.getUser == nil {
		return nil, notFound("get_user")
	}
	return f.getUser(ctx, id)
}

func (f *fakeDirectory) UpdateUser(ctx context.Context, id string, update graph.UserUpdate) error {
	if f.updateUser == nil {
		return notFound("update_user")
	}
	return f.updateUser(ctx, id, update)
}

func (f *fakeDirectory) DeleteUser(ctx context.Context, id string) error {
	if f.deleteUser == nil {
		return notFound("delete_user")
	}
	return f.deleteUser(ctx, id)
}

func (f *fakeDirectory) UsernamesStartingWith(ctx context.Context, prefix string) ([]string, error) {
	if f.usernamesStartingWith == nil {
		return nil, nil
	}
	return f.usernamesStartingWith(ctx, prefix)
}

func (f *fakeDirectory) UserByRecoveryEmail(ctx context.Context, email string) (*graph.User, error) {
	if f.userByRecoveryEmail == nil {
		return nil, notFound("query_users")
	}
	return f.userByRecoveryEmail(ctx, email)
}

func (f *fakeDirectory) GetGroup(ctx context.Context, id string) (*graph.Group, error) {
	if f.getGroup == nil {
		return nil, notFound("get_group")
	}
	return f.getGroup(ctx, id)
}

func (f *fakeDirectory) GroupsByDisplayName(ctx context.Context, name string) ([]graph.Group, error) {
	if f.groupsByDisplayName == nil {
		return nil, nil
	}
	return f.groupsByDisplayName(ctx, name)
}

func (f *fakeDirectory) MemberOf(ctx context.Context, userID string) ([]graph.Group, error) {
	if f.memberOf == nil {
		return nil, notFound("member_of")
	}
	return f.memberOf(ctx, userID)
}

func (f *fakeDirectory) AddGroupMember(ctx context.Context, groupID, userID string) error {
	if f.addGroupMember == nil {
		return notFound("add_group_member")
	}
	return f.addGroupMember(ctx, groupID, userID)
}

// immediateReconciler retries without pausing, with a generous window.
func immediateReconciler() *Reconciler {
	return NewReconciler(DefaultReconcileTimeout, 0)
}
