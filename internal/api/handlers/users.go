package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
)

// UserHandler handles account provisioning endpoints.
type UserHandler struct {
	service *provision.Service
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service *provision.Service) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserRequest is the request body for creating an account. Only the
// names are required: display name, recovery email and password are filled
// in server-side when absent.
type CreateUserRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DisplayName   string `json:"display_name,omitempty"`
	RecoveryEmail string `json:"recovery_email,omitempty"`
	Password      string `json:"password,omitempty"`
}

// CreateUserResponse is returned after a successful provisioning. The
// one-time password is only ever returned here; it is not retrievable later.
type CreateUserResponse struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	OneTimePassword string `json:"one_time_password"`
}

// UserResponse describes an existing account.
type UserResponse struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	RecoveryEmail string `json:"recovery_email,omitempty"`
}

// ResetPasswordRequest optionally supplies the new password; left empty, the
// server generates one.
type ResetPasswordRequest struct {
	Password string `json:"password,omitempty"`
}

// ResetPasswordResponse carries the fresh one-time password.
type ResetPasswordResponse struct {
	OneTimePassword string `json:"one_time_password"`
}

// UpdateRecoveryEmailRequest is the request body for replacing an account's
// recovery email.
type UpdateRecoveryEmailRequest struct {
	RecoveryEmail string `json:"recovery_email"`
}

// GroupsResponse lists the groups an account belongs to.
type GroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

func toUserResponse(user *graph.User) UserResponse {
	resp := UserResponse{
		UserID:      user.ID,
		Username:    user.UserPrincipalName,
		DisplayName: user.DisplayName,
		FirstName:   user.GivenName,
		LastName:    user.Surname,
	}
	if len(user.OtherMails) > 0 {
		resp.RecoveryEmail = user.OtherMails[0]
	}
	return resp
}

// Create handles POST /api/v1/users - provision a new account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	account, err := h.service.CreateAccount(r.Context(), provision.NewAccount{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		DisplayName:   req.DisplayName,
		RecoveryEmail: req.RecoveryEmail,
		Password:      req.Password,
	})
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONCreated(w, CreateUserResponse{
		UserID:          account.UserID,
		Username:        account.Username,
		OneTimePassword: account.OneTimePassword,
	})
}

// Get handles GET /api/v1/users/{id} - fetch an account by object id or
// principal name. With the recovery_email query parameter set the lookup is
// by recovery email instead.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.UserByID(r.Context(), id)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONOK(w, toUserResponse(user))
}

// GetByRecoveryEmail handles GET /api/v1/users?recovery_email=x.
func (h *UserHandler) GetByRecoveryEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("recovery_email")
	if email == "" {
		BadRequest(w, "recovery_email query parameter is required")
		return
	}

	user, err := h.service.UserByRecoveryEmail(r.Context(), email)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONOK(w, toUserResponse(user))
}

// Delete handles DELETE /api/v1/users/{id} - remove an account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteNoContent(w)
}

// ListGroups handles GET /api/v1/users/{id}/groups - the groups the account
// is a direct member of.
func (h *UserHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	groups, err := h.service.GroupsForUser(r.Context(), id)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	resp := GroupsResponse{Groups: make([]GroupResponse, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, toGroupResponse(&g))
	}
	WriteJSONOK(w, resp)
}

// ResetPassword handles PATCH /api/v1/users/{id}/password - issue a fresh
// one-time password, or set the one supplied in the optional body.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ResetPasswordRequest
	if r.ContentLength > 0 {
		if !decodeJSONBody(w, r, &req) {
			return
		}
	}

	password, err := h.service.ResetPassword(r.Context(), id, req.Password)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONOK(w, ResetPasswordResponse{OneTimePassword: password})
}

// UpdateRecoveryEmail handles PATCH /api/v1/users/{id}/recovery-email.
func (h *UserHandler) UpdateRecoveryEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateRecoveryEmailRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.RecoveryEmail == "" {
		BadRequest(w, "recovery_email is required")
		return
	}

	if err := h.service.UpdateRecoveryEmail(r.Context(), id, req.RecoveryEmail); err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteNoContent(w)
}
