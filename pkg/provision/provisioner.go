// Package provision implements account provisioning on top of the directory
// service: collision-free username allocation, account creation with a
// generated one-time password, credential and recovery-email maintenance,
// and group membership. Operations that race directory replication are
// retried through the Reconciler.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
)

// ErrRecoveryEmailInUse is returned when a new account's recovery email is
// already attached to an existing account.
var ErrRecoveryEmailInUse = errors.New("recovery email already in use")

// Directory is the subset of the directory client the provisioning service
// depends on.
type Directory interface {
	CreateUser(ctx context.Context, user graph.NewUser) (*graph.User, error)
	GetUser(ctx context.Context, id string) (*graph.User, error)
	UpdateUser(ctx context.Context, id string, update graph.UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
	UsernamesStartingWith(ctx context.Context, prefix string) ([]string, error)
	UserByRecoveryEmail(ctx context.Context, email string) (*graph.User, error)
	GetGroup(ctx context.Context, id string) (*graph.Group, error)
	GroupsByDisplayName(ctx context.Context, name string) ([]graph.Group, error)
	MemberOf(ctx context.Context, userID string) ([]graph.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
}

// NewAccount is a request to provision a directory account. DisplayName,
// RecoveryEmail and Password are optional: the display name defaults to
// "First Last", an absent recovery email skips the uniqueness check, and an
// absent password is generated.
type NewAccount struct {
	FirstName     string
	LastName      string
	DisplayName   string
	RecoveryEmail string
	Password      string
}

// Account is the outcome of provisioning: the allocated principal name, the
// directory object id and the generated one-time password.
type Account struct {
	UserID          string
	Username        string
	OneTimePassword string
}

// Service provisions accounts against a directory.
type Service struct {
	dir         Directory
	domain      string
	rec         *Reconciler
	newPassword func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithReconciler overrides the eventual-consistency retry policy.
func WithReconciler(rec *Reconciler) Option {
	return func(s *Service) {
		s.rec = rec
	}
}

// WithPasswordGenerator overrides the one-time password source.
func WithPasswordGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.newPassword = gen
	}
}

// NewService creates a provisioning service. domain is the UPN domain new
// usernames are allocated under, e.g. "hearings.example.net".
func NewService(dir Directory, domain string, opts ...Option) *Service {
	s := &Service{
		dir:         dir,
		domain:      domain,
		rec:         NewReconciler(DefaultReconcileTimeout, DefaultReconcileBackoff),
		newPassword: NewOneTimePassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount provisions a new directory account: it refuses a recovery
// email that is already attached to an account, allocates the next free
// username on the person's name stem, and creates the account with a
// one-time password the user must change at first sign-in.
func (s *Service) CreateAccount(ctx context.Context, req NewAccount) (*Account, error) {
	const op = "create_account"

	if req.FirstName == "" || req.LastName == "" {
		return nil, &Error{Op: op, Detail: "first and last name are required"}
	}

	var otherMails []string
	if req.RecoveryEmail != "" {
		existing, err := s.dir.UserByRecoveryEmail(ctx, req.RecoveryEmail)
		if err != nil && !graph.IsNotFound(err) {
			return nil, opError(op, req.RecoveryEmail, err)
		}
		if existing != nil {
			return nil, &Error{Op: op, Target: existing.UserPrincipalName, Err: ErrRecoveryEmailInUse}
		}
		otherMails = []string{req.RecoveryEmail}
	}

	username, err := s.NextUsername(ctx, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password, err = s.newPassword()
		if err != nil {
			return nil, opError(op, username, err)
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = fmt.Sprintf("%s %s", req.FirstName, req.LastName)
	}

	created, err := s.dir.CreateUser(ctx, graph.NewUser{
		AccountEnabled:    true,
		DisplayName:       displayName,
		GivenName:         req.FirstName,
		Surname:           req.LastName,
		MailNickname:      localPart(username),
		OtherMails:        otherMails,
		UserPrincipalName: username,
		PasswordProfile: &graph.PasswordProfile{
			Password:                     password,
			ForceChangePasswordNextLogin: true,
		},
	})
	if err != nil {
		return nil, opError(op, username, err)
	}

	logger.Info("account provisioned",
		logger.KeyUserID, created.ID,
		logger.KeyUsername, created.UserPrincipalName)
	metrics.AccountProvisioned()

	return &Account{
		UserID:          created.ID,
		Username:        created.UserPrincipalName,
		OneTimePassword: password,
	}, nil
}

// UserByID fetches an account by object id or principal name.
func (s *Service) UserByID(ctx context.Context, id string) (*graph.User, error) {
	user, err := s.dir.GetUser(ctx, id)
	if graph.IsNotFound(err) {
		return nil, &Error{Op: "get_user", Target: id, Err: ErrAccountNotFound}
	}
	if err != nil {
		return nil, opError("get_user", id, err)
	}
	return user, nil
}

// UserByRecoveryEmail fetches the account holding the given recovery email.
func (s *Service) UserByRecoveryEmail(ctx context.Context, email string) (*graph.User, error) {
	user, err := s.dir.UserByRecoveryEmail(ctx, email)
	if graph.IsNotFound(err) {
		return nil, &Error{Op: "get_user", Target: email, Err: ErrAccountNotFound}
	}
	if err != nil {
		return nil, opError("get_user", email, err)
	}
	return user, nil
}

// DeleteAccount removes an account from the directory.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	err := s.dir.DeleteUser(ctx, id)
	if graph.IsNotFound(err) {
		return &Error{Op: "delete_account", Target: id, Err: ErrAccountNotFound}
	}
	if err != nil {
		return opError("delete_account", id, err)
	}
	logger.Info("account deleted", logger.KeyUserID, id)
	return nil
}

// ResetPassword issues a one-time password for the account, generated when
// the caller supplies none. The write is reconciled: a just-created account
// may not have replicated yet.
func (s *Service) ResetPassword(ctx context.Context, username, password string) (string, error) {
	if password == "" {
		var err error
		password, err = s.newPassword()
		if err != nil {
			return "", opError("reset_password", username, err)
		}
	}

	update := graph.UserUpdate{
		PasswordProfile: &graph.PasswordProfile{
			Password:                     password,
			ForceChangePasswordNextLogin: true,
		},
	}
	if err := s.rec.Await(ctx, "reset_password", username, func(ctx context.Context) error {
		return s.dir.UpdateUser(ctx, username, update)
	}); err != nil {
		return "", err
	}

	logger.Info("password reset", logger.KeyUsername, username)
	return password, nil
}

// UpdateRecoveryEmail replaces the account's recovery email. The write is
// reconciled like ResetPassword.
func (s *Service) UpdateRecoveryEmail(ctx context.Context, username, email string) error {
	update := graph.UserUpdate{OtherMails: []string{email}}

	err := s.rec.Await(ctx, "update_recovery_email", username, func(ctx context.Context) error {
		return s.dir.UpdateUser(ctx, username, update)
	})
	if err != nil {
		return err
	}

	logger.Info("recovery email updated", logger.KeyUsername, username)
	return nil
}

func localPart(username string) string {
	if at := strings.IndexByte(username, '@'); at >= 0 {
		return username[:at]
	}
	return username
}
