package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/candorapp/session-server-go/internal/audit"
	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/service"
)

// GuestHandler serves the unauthenticated second party. The invitation token
// is the only credential on this surface.
type GuestHandler struct {
	guestService *service.GuestService
	accessLimit  func(http.Handler) http.Handler
}

func NewGuestHandler(guestService *service.GuestService, accessLimit func(http.Handler) http.Handler) *GuestHandler {
	return &GuestHandler{
		guestService: guestService,
		accessLimit:  accessLimit,
	}
}

func (h *GuestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.accessLimit).Post("/access", h.Access)
	r.Get("/sessions/{sessionID}/prompts", h.Prompts)
	r.Post("/sessions/{sessionID}/response", h.SubmitResponse)
	r.Post("/sessions/{sessionID}/ready-to-reveal", h.ReadyToReveal)

	return r
}

// POST /guest/access
func (h *GuestHandler) Access(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvitationToken string `json:"invitationToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.InvitationToken == "" {
		writeError(w, apperrors.MissingRequired("invitationToken"))
		return
	}

	view, err := h.guestService.ResolveInvitation(r.Context(), req.InvitationToken)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventInviteRejected})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventInviteResolved,
		SessionID: view.SessionID,
	})
	writeJSON(w, http.StatusOK, view)
}

// GET /guest/sessions/{sessionID}/prompts
func (h *GuestHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	prompts, err := h.guestService.GetGuestPrompts(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

// POST /guest/sessions/{sessionID}/response
func (h *GuestHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		PromptID string `json:"promptId"`
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.PromptID == "" {
		writeError(w, apperrors.MissingRequired("promptId"))
		return
	}
	if req.Response == "" {
		writeError(w, apperrors.MissingRequired("response"))
		return
	}

	response, err := h.guestService.SubmitGuestResponse(r.Context(), sessionID, req.PromptID, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventGuestResponse,
		SessionID: sessionID,
	})
	writeJSON(w, http.StatusOK, response)
}

// POST /guest/sessions/{sessionID}/ready-to-reveal
func (h *GuestHandler) ReadyToReveal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		InvitationToken string `json:"invitationToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.InvitationToken == "" {
		writeError(w, apperrors.MissingRequired("invitationToken"))
		return
	}

	state, err := h.guestService.SetInviteeReady(r.Context(), sessionID, req.InvitationToken)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventReadyToReveal,
		SessionID: sessionID,
		Details:   map[string]interface{}{"party": "invitee", "revealed": state.Revealed()},
	})
	writeJSON(w, http.StatusOK, state)
}
