package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
)

// GroupHandler handles directory group endpoints.
type GroupHandler struct {
	service *provision.Service
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(service *provision.Service) *GroupHandler {
	return &GroupHandler{service: service}
}

// GroupResponse describes a directory group.
type GroupResponse struct {
	GroupID     string `json:"group_id"`
	DisplayName string `json:"display_name"`
}

// AddMemberRequest is the request body for adding an account to a group.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

func toGroupResponse(group *graph.Group) GroupResponse {
	return GroupResponse{
		GroupID:     group.ID,
		DisplayName: group.DisplayName,
	}
}

// GetByName handles GET /api/v1/groups?name=x - look a group up by display
// name.
func (h *GroupHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		BadRequest(w, "name query parameter is required")
		return
	}

	group, err := h.service.GroupByName(r.Context(), name)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONOK(w, toGroupResponse(group))
}

// Get handles GET /api/v1/groups/{id} - fetch a group by object id.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	group, err := h.service.GroupByID(r.Context(), id)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteJSONOK(w, toGroupResponse(group))
}

// AddMember handles POST /api/v1/groups/{id}/members - add an account to the
// group. Adding an account that is already a member succeeds.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")

	var req AddMemberRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		BadRequest(w, "user_id is required")
		return
	}

	if err := h.service.AddUserToGroup(r.Context(), req.UserID, groupID); err != nil {
		writeProvisionError(w, err)
		return
	}

	WriteNoContent(w)
}
