package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/audit"
	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/service"
)

type SoloPrepHandler struct {
	soloPrepService *service.SoloPrepService
}

func NewSoloPrepHandler(soloPrepService *service.SoloPrepService) *SoloPrepHandler {
	return &SoloPrepHandler{soloPrepService: soloPrepService}
}

func (h *SoloPrepHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{sessionID}", h.Get)
	r.Get("/{sessionID}/prompts", h.GetPrompts)
	r.Get("/{sessionID}/journal", h.ListJournal)
	r.Put("/{sessionID}/journal", h.UpsertJournal)
	r.Post("/{sessionID}/generate-briefing", h.GenerateBriefing)

	return r
}

// POST /v1/sessions
func (h *SoloPrepHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req struct {
		RelationshipType  string           `json:"relationshipType"`
		ConversationTopic string           `json:"conversationTopic"`
		ConversationData  *json.RawMessage `json:"conversationData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.RelationshipType == "" {
		writeError(w, apperrors.MissingRequired("relationshipType"))
		return
	}
	if req.ConversationTopic == "" {
		writeError(w, apperrors.MissingRequired("conversationTopic"))
		return
	}

	session, err := h.soloPrepService.Create(r.Context(), user, service.CreateSoloPrepInput{
		RelationshipType:  req.RelationshipType,
		ConversationTopic: req.ConversationTopic,
		ConversationData:  req.ConversationData,
	})
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeEntitlementDenied {
			audit.LogFromRequest(r, audit.Event{
				Type:   audit.EventEntitlementDenied,
				UserID: user.ID,
			})
		} else {
			log.Error().Err(err).Msg("failed to create solo prep session")
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionCreate,
		UserID:    user.ID,
		SessionID: session.ID,
	})
	writeJSON(w, http.StatusCreated, session)
}

// GET /v1/sessions/{sessionID}
func (h *SoloPrepHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.soloPrepService.Get(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GET /v1/sessions/{sessionID}/prompts
func (h *SoloPrepHandler) GetPrompts(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	prompts, err := h.soloPrepService.GetPrompts(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

// GET /v1/sessions/{sessionID}/journal
func (h *SoloPrepHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	entries, err := h.soloPrepService.ListJournalEntries(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// PUT /v1/sessions/{sessionID}/journal
func (h *SoloPrepHandler) UpsertJournal(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
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

	entry, err := h.soloPrepService.UpsertJournalEntry(r.Context(), sessionID, user.ID, req.PromptID, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// POST /v1/sessions/{sessionID}/generate-briefing
func (h *SoloPrepHandler) GenerateBriefing(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.soloPrepService.RequestBriefing(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
