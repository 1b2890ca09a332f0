package repository

import (
	"context"
	"fmt"

	"github.com/candorapp/session-server-go/internal/database"
	"github.com/candorapp/session-server-go/internal/model"
)

type JointUnpackRepository interface {
	Create(ctx context.Context, params model.CreateJointUnpackParams) (*model.JointUnpackSession, error)
	FindByID(ctx context.Context, id string) (*model.JointUnpackSession, error)
	FindBySoloPrepID(ctx context.Context, soloPrepID string) (*model.JointUnpackSession, error)
	FindByToken(ctx context.Context, token string) (*model.JointUnpackSession, error)
	MarkAccepted(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	SetReady(ctx context.Context, id string, party model.Party) (*model.RevealState, error)
	SetAgenda(ctx context.Context, id, agenda string) error
	UpsertGuestResponse(ctx context.Context, sessionID, promptID, response string) (*model.GuestResponse, error)
	ListGuestResponses(ctx context.Context, sessionID string) ([]model.GuestResponse, error)
	MarkExpiredPending(ctx context.Context) (int64, error)
}

type jointUnpackRepo struct {
	db database.DBTX
}

func NewJointUnpackRepository(db database.DBTX) JointUnpackRepository {
	return &jointUnpackRepo{db: db}
}

func (r *jointUnpackRepo) Create(ctx context.Context, params model.CreateJointUnpackParams) (*model.JointUnpackSession, error) {
	var s model.JointUnpackSession
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO joint_unpack_sessions (solo_prep_session_id, initiator_user_id, invitation_token, invite_expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.SoloPrepSessionID, params.InitiatorUserID, params.InvitationToken, params.InviteExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *jointUnpackRepo) FindByID(ctx context.Context, id string) (*model.JointUnpackSession, error) {
	var s model.JointUnpackSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM joint_unpack_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&s, err)
}

func (r *jointUnpackRepo) FindBySoloPrepID(ctx context.Context, soloPrepID string) (*model.JointUnpackSession, error) {
	var s model.JointUnpackSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM joint_unpack_sessions WHERE solo_prep_session_id = $1
	`, soloPrepID)
	return HandleNotFound(&s, err)
}

// FindByToken does not filter on expiry; the service layer checks the clock
// so expired and unknown tokens produce the same uninformative error.
func (r *jointUnpackRepo) FindByToken(ctx context.Context, token string) (*model.JointUnpackSession, error) {
	var s model.JointUnpackSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM joint_unpack_sessions WHERE invitation_token = $1
	`, token)
	return HandleNotFound(&s, err)
}

// MarkAccepted advances pending -> accepted. A no-op when the invitation has
// already moved on; the lifecycle never goes backwards.
func (r *jointUnpackRepo) MarkAccepted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE joint_unpack_sessions SET
			invitation_status = 'accepted',
			invite_accepted_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND invitation_status = 'pending'
	`, id)
	return err
}

// MarkCompleted advances to completed from any earlier live state.
func (r *jointUnpackRepo) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE joint_unpack_sessions SET
			invitation_status = 'completed',
			updated_at = NOW()
		WHERE id = $1 AND invitation_status IN ('pending', 'accepted')
	`, id)
	return err
}

// SetReady raises one party's readiness flag and returns the combined state.
// Setting an already-true flag is a no-op, so the operation is idempotent and
// commutative between parties.
func (r *jointUnpackRepo) SetReady(ctx context.Context, id string, party model.Party) (*model.RevealState, error) {
	var column string
	switch party {
	case model.PartyInitiator:
		column = "initiator_ready"
	case model.PartyInvitee:
		column = "invitee_ready"
	default:
		return nil, fmt.Errorf("unknown party %q", party)
	}

	var state model.RevealState
	err := r.db.GetContext(ctx, &state, fmt.Sprintf(`
		UPDATE joint_unpack_sessions SET
			%s = TRUE,
			updated_at = NOW()
		WHERE id = $1
		RETURNING initiator_ready, invitee_ready
	`, column), id)
	return HandleNotFound(&state, err)
}

func (r *jointUnpackRepo) SetAgenda(ctx context.Context, id, agenda string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE joint_unpack_sessions SET
			generated_agenda = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, agenda)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("joint session %s not found", id)
	}
	return nil
}

func (r *jointUnpackRepo) UpsertGuestResponse(ctx context.Context, sessionID, promptID, response string) (*model.GuestResponse, error) {
	var gr model.GuestResponse
	err := r.db.GetContext(ctx, &gr, `
		INSERT INTO guest_responses (joint_session_id, prompt_id, response)
		VALUES ($1, $2, $3)
		ON CONFLICT (joint_session_id, prompt_id) DO UPDATE SET
			response = EXCLUDED.response,
			updated_at = NOW()
		RETURNING *
	`, sessionID, promptID, response)
	if err != nil {
		return nil, err
	}
	return &gr, nil
}

func (r *jointUnpackRepo) ListGuestResponses(ctx context.Context, sessionID string) ([]model.GuestResponse, error) {
	var responses []model.GuestResponse
	err := r.db.SelectContext(ctx, &responses, `
		SELECT * FROM guest_responses
		WHERE joint_session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	return responses, err
}

// MarkExpiredPending flags invitations that lapsed before the guest ever
// accepted. Lazy expiry at access time stays authoritative; this keeps
// abandoned sessions from lingering as pending forever.
func (r *jointUnpackRepo) MarkExpiredPending(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE joint_unpack_sessions SET
			invitation_status = 'expired',
			updated_at = NOW()
		WHERE invitation_status = 'pending' AND invite_expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
