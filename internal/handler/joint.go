package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/candorapp/session-server-go/internal/audit"
	"github.com/candorapp/session-server-go/internal/config"
	"github.com/candorapp/session-server-go/internal/service"
)

type JointHandler struct {
	conversionService *service.ConversionService
	revealService     *service.RevealService
	cfg               *config.Config
}

func NewJointHandler(
	conversionService *service.ConversionService,
	revealService *service.RevealService,
	cfg *config.Config,
) *JointHandler {
	return &JointHandler{
		conversionService: conversionService,
		revealService:     revealService,
		cfg:               cfg,
	}
}

func (h *JointHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/from-solo-prep/{sessionID}", h.Convert)
	r.Post("/{sessionID}/invite", h.Invite)
	r.Post("/{sessionID}/ready-to-reveal", h.ReadyToReveal)
	r.Get("/{sessionID}/mutual-responses", h.MutualResponses)
	r.Post("/{sessionID}/agenda", h.GenerateAgenda)
	r.Get("/{sessionID}/agenda", h.GetAgenda)

	return r
}

// POST /v1/joint/from-solo-prep/{sessionID}
func (h *JointHandler) Convert(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	soloPrepID := chi.URLParam(r, "sessionID")

	joint, err := h.conversionService.ConvertToJoint(r.Context(), user, soloPrepID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionConverted,
		UserID:    user.ID,
		SessionID: joint.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    joint,
		"invitation": invitationPayload(joint, h.cfg.InvitationLink(joint.InvitationToken)),
	})
}

// POST /v1/joint/{sessionID}/invite
//
// Returns the existing invitation; never mints a new token.
func (h *JointHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	joint, err := h.conversionService.Invitation(r.Context(), user, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitationPayload(joint, h.cfg.InvitationLink(joint.InvitationToken)))
}

// POST /v1/joint/{sessionID}/ready-to-reveal
func (h *JointHandler) ReadyToReveal(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.revealService.SetInitiatorReady(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventReadyToReveal,
		UserID:    user.ID,
		SessionID: sessionID,
		Details:   map[string]interface{}{"party": "initiator", "revealed": state.Revealed()},
	})
	writeJSON(w, http.StatusOK, state)
}

// GET /v1/joint/{sessionID}/mutual-responses
func (h *JointHandler) MutualResponses(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	responses, err := h.revealService.GetMutualResponses(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventMutualReveal,
		UserID:    user.ID,
		SessionID: sessionID,
	})
	writeJSON(w, http.StatusOK, responses)
}

// POST /v1/joint/{sessionID}/agenda
func (h *JointHandler) GenerateAgenda(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	agenda, err := h.revealService.GenerateAgenda(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"agenda": agenda})
}

// GET /v1/joint/{sessionID}/agenda
func (h *JointHandler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	agenda, err := h.revealService.GetAgenda(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"agenda": agenda})
}
