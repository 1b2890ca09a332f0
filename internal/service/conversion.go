package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/database"
	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/repository"
	"github.com/candorapp/session-server-go/internal/util"
)

// ConversionService promotes a completed solo prep session into a joint
// unpack session and mints the single-use invitation token. The joint insert
// and the solo status flip form one transaction: the joint session must never
// exist without the solo session being marked converted, or vice versa.
type ConversionService struct {
	db          *database.DB
	jointRepo   repository.JointUnpackRepository
	entitlement *EntitlementService
	inviteTTL   time.Duration
}

func NewConversionService(
	db *database.DB,
	jointRepo repository.JointUnpackRepository,
	entitlement *EntitlementService,
	inviteTTL time.Duration,
) *ConversionService {
	return &ConversionService{
		db:          db,
		jointRepo:   jointRepo,
		entitlement: entitlement,
		inviteTTL:   inviteTTL,
	}
}

// ConvertToJoint is idempotent: converting an already-converted session
// returns the existing joint session instead of minting a second invitation
// token. The row lock on the solo session serializes concurrent attempts and
// the unique index on solo_prep_session_id backstops anything that slips by.
func (s *ConversionService) ConvertToJoint(ctx context.Context, user *model.User, soloPrepID string) (*model.JointUnpackSession, error) {
	if err := s.entitlement.AuthorizeConversion(user); err != nil {
		return nil, err
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}

	var joint *model.JointUnpackSession
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		soloRepo := repository.NewSoloPrepRepository(tx)
		jointRepo := repository.NewJointUnpackRepository(tx)

		solo, err := soloRepo.FindByIDForUpdate(ctx, soloPrepID)
		if err != nil {
			return fmt.Errorf("lock solo prep session: %w", err)
		}
		if solo == nil || solo.OwnerUserID != user.ID {
			return apperrors.NotFound("Session")
		}

		if solo.Status == model.SoloPrepStatusConverted {
			existing, err := jointRepo.FindBySoloPrepID(ctx, soloPrepID)
			if err != nil {
				return fmt.Errorf("find existing joint session: %w", err)
			}
			if existing == nil {
				return apperrors.Internal("Converted session has no joint session")
			}
			joint = existing
			return nil
		}

		if solo.Status != model.SoloPrepStatusCompleted {
			return apperrors.InvalidState("Session must be completed before conversion")
		}

		created, err := jointRepo.Create(ctx, model.CreateJointUnpackParams{
			SoloPrepSessionID: soloPrepID,
			InitiatorUserID:   user.ID,
			InvitationToken:   token,
			InviteExpiresAt:   time.Now().Add(s.inviteTTL),
		})
		if err != nil {
			return fmt.Errorf("create joint session: %w", err)
		}

		if err := soloRepo.MarkConverted(ctx, soloPrepID); err != nil {
			return fmt.Errorf("mark solo session converted: %w", err)
		}

		joint = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("soloPrepId", soloPrepID).
		Str("jointSessionId", joint.ID).
		Str("token", util.MaskToken(joint.InvitationToken)).
		Time("expiresAt", joint.InviteExpiresAt).
		Msg("solo prep session converted to joint unpack")

	return joint, nil
}

// Invitation returns the existing invitation for an owned joint session.
// Re-reads never mint a new token; the invitation is single-use by token,
// not by read.
func (s *ConversionService) Invitation(ctx context.Context, user *model.User, jointID string) (*model.JointUnpackSession, error) {
	joint, err := s.jointRepo.FindByID(ctx, jointID)
	if err != nil {
		return nil, fmt.Errorf("find joint session: %w", err)
	}
	if joint == nil || joint.InitiatorUserID != user.ID {
		return nil, apperrors.NotFound("Session")
	}
	return joint, nil
}
