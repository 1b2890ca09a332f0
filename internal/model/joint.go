package model

import (
	"time"
)

// JointUnpackSession is the two-party session derived from a completed solo
// prep session. The invitation token is the invitee's only credential.
type JointUnpackSession struct {
	ID                 string           `db:"id" json:"id"`
	SoloPrepSessionID  string           `db:"solo_prep_session_id" json:"soloPrepSessionId"`
	InitiatorUserID    string           `db:"initiator_user_id" json:"initiatorUserId"`
	InvitationToken    string           `db:"invitation_token" json:"-"`
	InvitationStatus   InvitationStatus `db:"invitation_status" json:"invitationStatus"`
	InviteExpiresAt    time.Time        `db:"invite_expires_at" json:"inviteExpiresAt"`
	InviteAcceptedAt   *time.Time       `db:"invite_accepted_at" json:"inviteAcceptedAt,omitempty"`
	InitiatorReady     bool             `db:"initiator_ready" json:"initiatorReady"`
	InviteeReady       bool             `db:"invitee_ready" json:"inviteeReady"`
	GeneratedAgenda    *string          `db:"generated_agenda" json:"generatedAgenda,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// InvitationExpired checks the token lifetime against the clock. Expiry is
// observed lazily; there is no authoritative background sweep.
func (s *JointUnpackSession) InvitationExpired(now time.Time) bool {
	return !now.Before(s.InviteExpiresAt)
}

// Revealed is the mutual-reveal gate: both parties must have opted in.
func (s *JointUnpackSession) Revealed() bool {
	return s.InitiatorReady && s.InviteeReady
}

type CreateJointUnpackParams struct {
	SoloPrepSessionID string
	InitiatorUserID   string
	InvitationToken   string
	InviteExpiresAt   time.Time
}

// GuestResponse is one invitee answer within a joint unpack session,
// upsertable by prompt id.
type GuestResponse struct {
	JointSessionID string    `db:"joint_session_id" json:"-"`
	PromptID       string    `db:"prompt_id" json:"promptId"`
	Response       string    `db:"response" json:"response"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// GuestSessionView is the restricted projection returned to the second party
// when an invitation resolves. It must never include initiator journal content.
type GuestSessionView struct {
	SessionID        string `db:"session_id" json:"sessionId"`
	RelationshipType string `db:"relationship_type" json:"relationshipType"`
	Topic            string `db:"conversation_topic" json:"topic"`
}

// RevealState is the combined readiness returned by the ready-to-reveal
// operations so the caller can render "waiting on the other party".
type RevealState struct {
	InitiatorReady bool `db:"initiator_ready" json:"initiatorReady"`
	InviteeReady   bool `db:"invitee_ready" json:"inviteeReady"`
}

// Revealed is true when both parties have opted in.
func (r RevealState) Revealed() bool {
	return r.InitiatorReady && r.InviteeReady
}
