package model

import (
	"encoding/json"
	"time"
)

// SoloPrepSession is a private single-party reflection session preceding a
// real conversation. A converted session is immutable and maps 1:1 to exactly
// one JointUnpackSession.
type SoloPrepSession struct {
	ID                string           `db:"id" json:"id"`
	OwnerUserID       string           `db:"owner_user_id" json:"ownerUserId"`
	RelationshipType  string           `db:"relationship_type" json:"relationshipType"`
	ConversationTopic string           `db:"conversation_topic" json:"conversationTopic"`
	ConversationData  *json.RawMessage `db:"conversation_data" json:"conversationData,omitempty"`
	Status            SoloPrepStatus   `db:"status" json:"status"`
	GeneratedBriefing *string          `db:"generated_briefing" json:"generatedBriefing,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}

type CreateSoloPrepParams struct {
	OwnerUserID       string
	RelationshipType  string
	ConversationTopic string
	ConversationData  *json.RawMessage
}

// JournalEntry is one answered prompt within a solo prep session,
// upsertable by prompt id and ordered by position.
type JournalEntry struct {
	SessionID string    `db:"session_id" json:"-"`
	PromptID  string    `db:"prompt_id" json:"promptId"`
	Response  string    `db:"response" json:"response"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
