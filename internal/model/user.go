package model

import (
	"time"
)

type User struct {
	ID                     string             `db:"id" json:"id"`
	DisplayName            string             `db:"display_name" json:"displayName"`
	AccessTokenHash        string             `db:"access_token_hash" json:"-"`
	SubscriptionStatus     SubscriptionStatus `db:"subscription_status" json:"subscriptionStatus"`
	TrialSessionsRemaining int                `db:"trial_sessions_remaining" json:"trialSessionsRemaining"`
	CreatedAt              time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updatedAt"`
}
