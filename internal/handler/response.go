package handler

import (
	"net/http"
	"time"

	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/httputil"
	"github.com/candorapp/session-server-go/internal/middleware"
	"github.com/candorapp/session-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// requireUser pulls the authenticated user from the request context. Writes a
// 401 and returns nil if the auth middleware did not run.
func requireUser(w http.ResponseWriter, r *http.Request) *model.User {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
	}
	return user
}

// invitationPayload is the owner-facing invitation projection. The raw token
// appears here and nowhere else.
func invitationPayload(joint *model.JointUnpackSession, link string) map[string]any {
	return map[string]any{
		"token":          joint.InvitationToken,
		"invitationLink": link,
		"status":         joint.InvitationStatus,
		"expiresAt":      joint.InviteExpiresAt.Format(time.RFC3339),
	}
}
