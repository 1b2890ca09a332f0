package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/generator"
	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/repository"
)

type CreateSoloPrepInput struct {
	RelationshipType  string
	ConversationTopic string
	ConversationData  *json.RawMessage
}

// SoloPrepService owns the single-party reflection session lifecycle:
// creation, journal upserts and briefing generation.
type SoloPrepService struct {
	repo        repository.SoloPrepRepository
	entitlement *EntitlementService
	gen         generator.Client
	promptCache *PromptCache
}

func NewSoloPrepService(
	repo repository.SoloPrepRepository,
	entitlement *EntitlementService,
	gen generator.Client,
	promptCache *PromptCache,
) *SoloPrepService {
	return &SoloPrepService{
		repo:        repo,
		entitlement: entitlement,
		gen:         gen,
		promptCache: promptCache,
	}
}

func (s *SoloPrepService) Create(ctx context.Context, user *model.User, input CreateSoloPrepInput) (*model.SoloPrepSession, error) {
	if err := s.entitlement.AuthorizeSessionCreation(ctx, user); err != nil {
		return nil, err
	}

	session, err := s.repo.Create(ctx, model.CreateSoloPrepParams{
		OwnerUserID:       user.ID,
		RelationshipType:  input.RelationshipType,
		ConversationTopic: input.ConversationTopic,
		ConversationData:  input.ConversationData,
	})
	if err != nil {
		return nil, fmt.Errorf("create solo prep session: %w", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("userId", user.ID).
		Str("relationshipType", session.RelationshipType).
		Msg("solo prep session created")

	return session, nil
}

func (s *SoloPrepService) Get(ctx context.Context, sessionID, requesterID string) (*model.SoloPrepSession, error) {
	return s.ownedSession(ctx, sessionID, requesterID)
}

// GetPrompts returns the owner-facing prompt set for the session's context.
func (s *SoloPrepService) GetPrompts(ctx context.Context, sessionID, requesterID string) ([]generator.Prompt, error) {
	session, err := s.ownedSession(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	prompts, err := s.promptCache.Fetch(ctx, generator.AudienceOwner, session.RelationshipType, session.ConversationTopic,
		func(ctx context.Context) ([]generator.Prompt, error) {
			return s.gen.GeneratePrompts(ctx, generator.PromptsRequest{
				Audience:         generator.AudienceOwner,
				RelationshipType: session.RelationshipType,
				Topic:            session.ConversationTopic,
			})
		})
	if err != nil {
		return nil, apperrors.Upstream("content generator", err)
	}
	return prompts, nil
}

// UpsertJournalEntry records the response to one prompt. Re-submitting the
// same prompt replaces the response, so client retries are harmless.
func (s *SoloPrepService) UpsertJournalEntry(ctx context.Context, sessionID, requesterID, promptID, response string) (*model.JournalEntry, error) {
	session, err := s.ownedSession(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SoloPrepStatusConverted {
		return nil, apperrors.InvalidState("Converted sessions are immutable")
	}

	entry, err := s.repo.UpsertJournalEntry(ctx, sessionID, promptID, response)
	if err != nil {
		return nil, fmt.Errorf("upsert journal entry: %w", err)
	}
	return entry, nil
}

// RequestBriefing asks the content generator to synthesize a briefing from
// the journal and completes the session. A generator failure leaves the
// session untouched so the client can retry safely.
func (s *SoloPrepService) RequestBriefing(ctx context.Context, sessionID, requesterID string) (*model.SoloPrepSession, error) {
	session, err := s.ownedSession(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SoloPrepStatusConverted {
		return nil, apperrors.InvalidState("Converted sessions are immutable")
	}

	entries, err := s.repo.ListJournalEntries(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, apperrors.InvalidState("Cannot generate a briefing before any journal entries")
	}

	briefing, err := s.gen.GenerateBriefing(ctx, generator.BriefingRequest{
		RelationshipType: session.RelationshipType,
		Topic:            session.ConversationTopic,
		Entries:          entrySet(entries),
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("briefing generation failed")
		return nil, apperrors.Upstream("content generator", err)
	}

	if err := s.repo.SetBriefing(ctx, sessionID, briefing); err != nil {
		return nil, fmt.Errorf("store briefing: %w", err)
	}

	log.Info().
		Str("sessionId", sessionID).
		Int("entries", len(entries)).
		Msg("briefing generated, session completed")

	return s.ownedSession(ctx, sessionID, requesterID)
}

func (s *SoloPrepService) ListJournalEntries(ctx context.Context, sessionID, requesterID string) ([]model.JournalEntry, error) {
	if _, err := s.ownedSession(ctx, sessionID, requesterID); err != nil {
		return nil, err
	}
	return s.repo.ListJournalEntries(ctx, sessionID)
}

// ownedSession loads a session the requester owns. Absence and ownership
// mismatch are reported identically so callers cannot probe for other users'
// session ids.
func (s *SoloPrepService) ownedSession(ctx context.Context, sessionID, requesterID string) (*model.SoloPrepSession, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil || session.OwnerUserID != requesterID {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

func entrySet(entries []model.JournalEntry) generator.EntrySet {
	set := make(generator.EntrySet, len(entries))
	for _, e := range entries {
		set[e.PromptID] = e.Response
	}
	return set
}
