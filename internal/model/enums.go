package model

type SubscriptionStatus string

const (
	SubscriptionTrial          SubscriptionStatus = "trial"
	SubscriptionPremiumMonthly SubscriptionStatus = "premium_monthly"
	SubscriptionPremiumAnnual  SubscriptionStatus = "premium_annual"
	SubscriptionFree           SubscriptionStatus = "free"
)

// IsPremium reports whether the tier grants unmetered access.
func (s SubscriptionStatus) IsPremium() bool {
	return s == SubscriptionPremiumMonthly || s == SubscriptionPremiumAnnual
}

type SoloPrepStatus string

// Solo prep lifecycle is monotonic: in-progress -> completed -> converted.
const (
	SoloPrepStatusInProgress SoloPrepStatus = "in-progress"
	SoloPrepStatusCompleted  SoloPrepStatus = "completed"
	SoloPrepStatusConverted  SoloPrepStatus = "converted"
)

type InvitationStatus string

// pending -> accepted -> completed is monotonic; expired is observed lazily
// whenever expires_at is checked.
const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusCompleted InvitationStatus = "completed"
	InvitationStatusExpired   InvitationStatus = "expired"
)

// Party identifies which side of a joint unpack session an actor is on.
type Party string

const (
	PartyInitiator Party = "initiator"
	PartyInvitee   Party = "invitee"
)
