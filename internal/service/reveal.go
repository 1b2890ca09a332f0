package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/generator"
	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/repository"
)

// MutualResponses is both parties' entry sets, released together once the
// reveal gate opens.
type MutualResponses struct {
	InitiatorEntries []model.JournalEntry  `json:"initiatorEntries"`
	InviteeResponses []model.GuestResponse `json:"inviteeResponses"`
}

// RevealService coordinates per-party readiness and enforces the
// simultaneous-disclosure gate: neither party may observe the other's answers
// until both have opted in. Commit first, reveal after.
type RevealService struct {
	jointRepo repository.JointUnpackRepository
	soloRepo  repository.SoloPrepRepository
	gen       generator.Client
}

func NewRevealService(
	jointRepo repository.JointUnpackRepository,
	soloRepo repository.SoloPrepRepository,
	gen generator.Client,
) *RevealService {
	return &RevealService{
		jointRepo: jointRepo,
		soloRepo:  soloRepo,
		gen:       gen,
	}
}

// SetInitiatorReady raises the initiator's flag. Idempotent: re-setting an
// already-true flag is a no-op, never an error. Returns the combined state so
// the caller can render "waiting on the other party".
func (s *RevealService) SetInitiatorReady(ctx context.Context, sessionID, requesterID string) (*model.RevealState, error) {
	joint, err := s.ownedJoint(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	state, err := s.jointRepo.SetReady(ctx, joint.ID, model.PartyInitiator)
	if err != nil {
		return nil, fmt.Errorf("set initiator ready: %w", err)
	}
	if state == nil {
		return nil, apperrors.NotFound("Session")
	}

	log.Info().
		Str("jointSessionId", joint.ID).
		Bool("initiatorReady", state.InitiatorReady).
		Bool("inviteeReady", state.InviteeReady).
		Msg("initiator ready to reveal")

	return state, nil
}

// GetMutualResponses returns both entry sets once both parties are ready.
func (s *RevealService) GetMutualResponses(ctx context.Context, sessionID, requesterID string) (*MutualResponses, error) {
	joint, err := s.revealedJoint(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	entries, err := s.soloRepo.ListJournalEntries(ctx, joint.SoloPrepSessionID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	responses, err := s.jointRepo.ListGuestResponses(ctx, joint.ID)
	if err != nil {
		return nil, fmt.Errorf("list guest responses: %w", err)
	}

	return &MutualResponses{
		InitiatorEntries: entries,
		InviteeResponses: responses,
	}, nil
}

// GenerateAgenda synthesizes a shared agenda from both response sets.
// Regeneration is allowed and overwrites. A generator failure leaves the
// session untouched.
func (s *RevealService) GenerateAgenda(ctx context.Context, sessionID, requesterID string) (string, error) {
	joint, err := s.revealedJoint(ctx, sessionID, requesterID)
	if err != nil {
		return "", err
	}

	solo, err := s.soloRepo.FindByID(ctx, joint.SoloPrepSessionID)
	if err != nil {
		return "", fmt.Errorf("find solo prep session: %w", err)
	}
	if solo == nil {
		return "", apperrors.Internal("Joint session has no solo prep session")
	}

	entries, err := s.soloRepo.ListJournalEntries(ctx, joint.SoloPrepSessionID)
	if err != nil {
		return "", fmt.Errorf("list journal entries: %w", err)
	}
	responses, err := s.jointRepo.ListGuestResponses(ctx, joint.ID)
	if err != nil {
		return "", fmt.Errorf("list guest responses: %w", err)
	}

	agenda, err := s.gen.GenerateAgenda(ctx, generator.AgendaRequest{
		RelationshipType: solo.RelationshipType,
		Topic:            solo.ConversationTopic,
		InitiatorEntries: entrySet(entries),
		InviteeEntries:   guestEntrySet(responses),
	})
	if err != nil {
		log.Error().Err(err).Str("jointSessionId", joint.ID).Msg("agenda generation failed")
		return "", apperrors.Upstream("content generator", err)
	}

	if err := s.jointRepo.SetAgenda(ctx, joint.ID, agenda); err != nil {
		return "", fmt.Errorf("store agenda: %w", err)
	}

	log.Info().Str("jointSessionId", joint.ID).Msg("agenda generated")
	return agenda, nil
}

// GetAgenda returns the stored agenda behind the same reveal gate.
func (s *RevealService) GetAgenda(ctx context.Context, sessionID, requesterID string) (string, error) {
	joint, err := s.revealedJoint(ctx, sessionID, requesterID)
	if err != nil {
		return "", err
	}
	if joint.GeneratedAgenda == nil {
		return "", apperrors.NotFound("Agenda")
	}
	return *joint.GeneratedAgenda, nil
}

// ownedJoint loads a joint session the requester initiated. Absence and
// ownership mismatch are reported identically.
func (s *RevealService) ownedJoint(ctx context.Context, sessionID, requesterID string) (*model.JointUnpackSession, error) {
	joint, err := s.jointRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find joint session: %w", err)
	}
	if joint == nil || joint.InitiatorUserID != requesterID {
		return nil, apperrors.NotFound("Session")
	}
	return joint, nil
}

// revealedJoint is ownedJoint plus the mutual-reveal gate.
func (s *RevealService) revealedJoint(ctx context.Context, sessionID, requesterID string) (*model.JointUnpackSession, error) {
	joint, err := s.ownedJoint(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}
	if !joint.Revealed() {
		return nil, apperrors.NotReady()
	}
	return joint, nil
}

func guestEntrySet(responses []model.GuestResponse) generator.EntrySet {
	set := make(generator.EntrySet, len(responses))
	for _, r := range responses {
		set[r.PromptID] = r.Response
	}
	return set
}
