package generator

import (
	"context"
)

// Audience tags a prompt set with the party it is meant for.
type Audience string

const (
	AudienceOwner   Audience = "owner"
	AudienceInvitee Audience = "invitee"
)

// Prompt is one reflective question produced by the content generator.
type Prompt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type PromptsRequest struct {
	Audience         Audience `json:"audience"`
	RelationshipType string   `json:"relationshipType"`
	Topic            string   `json:"topic"`
	Context          string   `json:"context,omitempty"`
	History          []string `json:"history,omitempty"`
}

// EntrySet is one party's answered prompts, passed through to briefing and
// agenda synthesis.
type EntrySet map[string]string

type BriefingRequest struct {
	RelationshipType string   `json:"relationshipType"`
	Topic            string   `json:"topic"`
	Entries          EntrySet `json:"entries"`
	Profile          string   `json:"profile,omitempty"`
}

type AgendaRequest struct {
	RelationshipType string   `json:"relationshipType"`
	Topic            string   `json:"topic"`
	InitiatorEntries EntrySet `json:"initiatorEntries"`
	InviteeEntries   EntrySet `json:"inviteeEntries"`
}

// Client is the content generation collaborator. It is fallible and slow;
// callers must never let its failures corrupt session state transitions.
type Client interface {
	GeneratePrompts(ctx context.Context, req PromptsRequest) ([]Prompt, error)
	GenerateBriefing(ctx context.Context, req BriefingRequest) (string, error)
	GenerateAgenda(ctx context.Context, req AgendaRequest) (string, error)
}
