package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/service"
)

func passthroughLimiter(next http.Handler) http.Handler {
	return next
}

func newGuestRouter(jointRepo *mockJointRepo, soloRepo *mockSoloPrepRepo, gen *mockGenerator) chi.Router {
	guestService := service.NewGuestService(jointRepo, soloRepo, gen, nil)
	h := NewGuestHandler(guestService, passthroughLimiter)

	r := chi.NewRouter()
	r.Mount("/guest", h.Routes())
	return r
}

func pendingJoint() *model.JointUnpackSession {
	return &model.JointUnpackSession{
		ID:                "joint-1",
		SoloPrepSessionID: "solo-1",
		InitiatorUserID:   "user-1",
		InvitationToken:   "tok-abc",
		InvitationStatus:  model.InvitationStatusPending,
		InviteExpiresAt:   time.Now().Add(24 * time.Hour),
	}
}

func convertedSolo() *model.SoloPrepSession {
	return &model.SoloPrepSession{
		ID:                "solo-1",
		OwnerUserID:       "user-1",
		RelationshipType:  "partner",
		ConversationTopic: "chores",
		Status:            model.SoloPrepStatusConverted,
	}
}

func TestGuestAccess(t *testing.T) {
	t.Run("returns guest view for live token", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		soloRepo := new(mockSoloPrepRepo)
		jointRepo.On("FindByToken", mock.Anything, "tok-abc").Return(pendingJoint(), nil)
		jointRepo.On("MarkAccepted", mock.Anything, "joint-1").Return(nil)
		soloRepo.On("FindByID", mock.Anything, "solo-1").Return(convertedSolo(), nil)

		r := newGuestRouter(jointRepo, soloRepo, new(mockGenerator))

		body := bytes.NewBufferString(`{"invitationToken": "tok-abc"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/access", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var view model.GuestSessionView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "joint-1", view.SessionID)
		assert.Equal(t, "partner", view.RelationshipType)
		assert.Equal(t, "chores", view.Topic)
	})

	t.Run("returns 404 for unknown token", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		jointRepo.On("FindByToken", mock.Anything, "tok-bad").Return(nil, nil)

		r := newGuestRouter(jointRepo, new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"invitationToken": "tok-bad"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/access", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_OR_EXPIRED_INVITATION")
	})

	t.Run("returns 404 for expired token", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		expired := pendingJoint()
		expired.InviteExpiresAt = time.Now().Add(-time.Minute)
		jointRepo.On("FindByToken", mock.Anything, "tok-abc").Return(expired, nil)

		r := newGuestRouter(jointRepo, new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"invitationToken": "tok-abc"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/access", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_OR_EXPIRED_INVITATION")
	})

	t.Run("returns 400 when token is missing", func(t *testing.T) {
		r := newGuestRouter(new(mockJointRepo), new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/access", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_REQUIRED")
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		r := newGuestRouter(new(mockJointRepo), new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{invalid`)
		req := httptest.NewRequest(http.MethodPost, "/guest/access", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})
}

func TestGuestSubmitResponse(t *testing.T) {
	t.Run("stores response", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		jointRepo.On("FindByID", mock.Anything, "joint-1").Return(pendingJoint(), nil)
		jointRepo.On("UpsertGuestResponse", mock.Anything, "joint-1", "p1", "my answer").
			Return(&model.GuestResponse{JointSessionID: "joint-1", PromptID: "p1", Response: "my answer"}, nil)
		jointRepo.On("MarkCompleted", mock.Anything, "joint-1").Return(nil)

		r := newGuestRouter(jointRepo, new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"promptId": "p1", "response": "my answer"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/sessions/joint-1/response", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		jointRepo.AssertExpectations(t)
	})

	t.Run("returns 400 when promptId is missing", func(t *testing.T) {
		r := newGuestRouter(new(mockJointRepo), new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"response": "my answer"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/sessions/joint-1/response", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_REQUIRED")
	})
}

func TestGuestReadyToReveal(t *testing.T) {
	t.Run("sets invitee flag and returns combined state", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		joint := pendingJoint()
		joint.InvitationStatus = model.InvitationStatusCompleted
		jointRepo.On("FindByToken", mock.Anything, "tok-abc").Return(joint, nil)
		jointRepo.On("SetReady", mock.Anything, "joint-1", model.PartyInvitee).
			Return(&model.RevealState{InitiatorReady: false, InviteeReady: true}, nil)

		r := newGuestRouter(jointRepo, new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"invitationToken": "tok-abc"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/sessions/joint-1/ready-to-reveal", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var state model.RevealState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
		assert.True(t, state.InviteeReady)
		assert.False(t, state.InitiatorReady)
	})

	t.Run("returns 404 when token belongs to another session", func(t *testing.T) {
		jointRepo := new(mockJointRepo)
		joint := pendingJoint()
		joint.InvitationStatus = model.InvitationStatusCompleted
		jointRepo.On("FindByToken", mock.Anything, "tok-abc").Return(joint, nil)

		r := newGuestRouter(jointRepo, new(mockSoloPrepRepo), new(mockGenerator))

		body := bytes.NewBufferString(`{"invitationToken": "tok-abc"}`)
		req := httptest.NewRequest(http.MethodPost, "/guest/sessions/other-session/ready-to-reveal", body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_OR_EXPIRED_INVITATION")
	})
}
