package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeProvisionError maps a provisioning error to the right problem
// response: missing accounts and groups are 404s, duplicate recovery emails
// 409, a directory that never converged 504, everything else a 502 because
// the failure happened upstream.
func writeProvisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provision.ErrAccountNotFound):
		NotFound(w, "Account not found")
	case errors.Is(err, provision.ErrGroupNotFound):
		NotFound(w, "Group not found")
	case errors.Is(err, provision.ErrRecoveryEmailInUse):
		Conflict(w, "An account with this recovery email already exists")
	case provision.IsTimeout(err):
		logger.Warn("directory reconcile window expired", logger.KeyError, err)
		GatewayTimeout(w, "Directory did not converge in time, retry later")
	case isValidationError(err):
		BadRequest(w, err.Error())
	default:
		logger.Error("directory operation failed", logger.KeyError, err)
		BadGateway(w, "Directory operation failed")
	}
}

// isValidationError reports whether the provisioning error was rejected
// before reaching the directory, i.e. it carries a detail but no cause.
func isValidationError(err error) bool {
	var pe *provision.Error
	return errors.As(err, &pe) && pe.Err == nil && pe.Detail != ""
}
