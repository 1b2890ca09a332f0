package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/generator"
	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/repository"
	"github.com/candorapp/session-server-go/internal/util"
)

// GuestService is the invitation and guest access gateway. The second party
// is unauthenticated: possession of a live invitation token is the only
// credential, and the projection it unlocks never includes initiator content.
type GuestService struct {
	jointRepo   repository.JointUnpackRepository
	soloRepo    repository.SoloPrepRepository
	gen         generator.Client
	promptCache *PromptCache
}

func NewGuestService(
	jointRepo repository.JointUnpackRepository,
	soloRepo repository.SoloPrepRepository,
	gen generator.Client,
	promptCache *PromptCache,
) *GuestService {
	return &GuestService{
		jointRepo:   jointRepo,
		soloRepo:    soloRepo,
		gen:         gen,
		promptCache: promptCache,
	}
}

// ResolveInvitation exchanges a token for the restricted guest view. Unknown
// and expired tokens fail identically so token history cannot be probed. The
// first successful resolution advances the invitation to accepted; later
// resolutions succeed without effect so the guest can reload.
func (s *GuestService) ResolveInvitation(ctx context.Context, token string) (*model.GuestSessionView, error) {
	joint, err := s.liveByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if joint.InvitationStatus == model.InvitationStatusPending {
		if err := s.jointRepo.MarkAccepted(ctx, joint.ID); err != nil {
			return nil, fmt.Errorf("mark invitation accepted: %w", err)
		}
		log.Info().
			Str("jointSessionId", joint.ID).
			Str("token", util.MaskToken(token)).
			Msg("invitation accepted")
	}

	solo, err := s.soloRepo.FindByID(ctx, joint.SoloPrepSessionID)
	if err != nil {
		return nil, fmt.Errorf("find solo prep session: %w", err)
	}
	if solo == nil {
		return nil, apperrors.Internal("Joint session has no solo prep session")
	}

	return &model.GuestSessionView{
		SessionID:        joint.ID,
		RelationshipType: solo.RelationshipType,
		Topic:            solo.ConversationTopic,
	}, nil
}

// GetGuestPrompts returns the invitee-tagged prompt set for the session's
// relationship and topic context.
func (s *GuestService) GetGuestPrompts(ctx context.Context, sessionID string) ([]generator.Prompt, error) {
	joint, err := s.jointRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find joint session: %w", err)
	}
	if joint == nil {
		return nil, apperrors.NotFound("Session")
	}

	solo, err := s.soloRepo.FindByID(ctx, joint.SoloPrepSessionID)
	if err != nil {
		return nil, fmt.Errorf("find solo prep session: %w", err)
	}
	if solo == nil {
		return nil, apperrors.Internal("Joint session has no solo prep session")
	}

	prompts, err := s.promptCache.Fetch(ctx, generator.AudienceInvitee, solo.RelationshipType, solo.ConversationTopic,
		func(ctx context.Context) ([]generator.Prompt, error) {
			return s.gen.GeneratePrompts(ctx, generator.PromptsRequest{
				Audience:         generator.AudienceInvitee,
				RelationshipType: solo.RelationshipType,
				Topic:            solo.ConversationTopic,
			})
		})
	if err != nil {
		return nil, apperrors.Upstream("content generator", err)
	}
	return prompts, nil
}

// SubmitGuestResponse upserts the invitee's answer for one prompt. There is
// no identity check: the caller reached this session through a resolved
// token, and guest content is low-sensitivity preparatory material. Any
// submission advances the invitation to completed.
func (s *GuestService) SubmitGuestResponse(ctx context.Context, sessionID, promptID, response string) (*model.GuestResponse, error) {
	joint, err := s.jointRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find joint session: %w", err)
	}
	if joint == nil {
		return nil, apperrors.NotFound("Session")
	}

	gr, err := s.jointRepo.UpsertGuestResponse(ctx, sessionID, promptID, response)
	if err != nil {
		return nil, fmt.Errorf("upsert guest response: %w", err)
	}

	if err := s.jointRepo.MarkCompleted(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("mark invitation completed: %w", err)
	}

	return gr, nil
}

// SetInviteeReady is the token-authenticated readiness variant. The token
// must belong to the session and still be live.
func (s *GuestService) SetInviteeReady(ctx context.Context, sessionID, token string) (*model.RevealState, error) {
	joint, err := s.liveByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if joint.ID != sessionID {
		return nil, apperrors.InvalidOrExpiredInvitation()
	}

	state, err := s.jointRepo.SetReady(ctx, joint.ID, model.PartyInvitee)
	if err != nil {
		return nil, fmt.Errorf("set invitee ready: %w", err)
	}
	if state == nil {
		return nil, apperrors.NotFound("Session")
	}

	log.Info().
		Str("jointSessionId", joint.ID).
		Bool("initiatorReady", state.InitiatorReady).
		Bool("inviteeReady", state.InviteeReady).
		Msg("invitee ready to reveal")

	return state, nil
}

// liveByToken looks up a joint session by invitation token and checks the
// clock. The caller gets the same error whether the token never existed or
// has lapsed.
func (s *GuestService) liveByToken(ctx context.Context, token string) (*model.JointUnpackSession, error) {
	joint, err := s.jointRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("find joint session by token: %w", err)
	}
	if joint == nil {
		log.Warn().Str("token", util.MaskToken(token)).Msg("unknown invitation token")
		return nil, apperrors.InvalidOrExpiredInvitation()
	}
	if joint.InvitationExpired(time.Now()) {
		log.Warn().
			Str("jointSessionId", joint.ID).
			Time("expiredAt", joint.InviteExpiresAt).
			Msg("expired invitation token")
		return nil, apperrors.InvalidOrExpiredInvitation()
	}
	return joint, nil
}
