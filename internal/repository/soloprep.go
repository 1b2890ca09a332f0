package repository

import (
	"context"
	"fmt"

	"github.com/candorapp/session-server-go/internal/database"
	"github.com/candorapp/session-server-go/internal/model"
)

type SoloPrepRepository interface {
	Create(ctx context.Context, params model.CreateSoloPrepParams) (*model.SoloPrepSession, error)
	FindByID(ctx context.Context, id string) (*model.SoloPrepSession, error)
	// FindByIDForUpdate locks the row for the remainder of the transaction.
	// Only valid when the repository is bound to a transaction.
	FindByIDForUpdate(ctx context.Context, id string) (*model.SoloPrepSession, error)
	UpsertJournalEntry(ctx context.Context, sessionID, promptID, response string) (*model.JournalEntry, error)
	ListJournalEntries(ctx context.Context, sessionID string) ([]model.JournalEntry, error)
	SetBriefing(ctx context.Context, id, briefing string) error
	MarkConverted(ctx context.Context, id string) error
}

type soloPrepRepo struct {
	db database.DBTX
}

func NewSoloPrepRepository(db database.DBTX) SoloPrepRepository {
	return &soloPrepRepo{db: db}
}

func (r *soloPrepRepo) Create(ctx context.Context, params model.CreateSoloPrepParams) (*model.SoloPrepSession, error) {
	var s model.SoloPrepSession
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO solo_prep_sessions (owner_user_id, relationship_type, conversation_topic, conversation_data)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.OwnerUserID, params.RelationshipType, params.ConversationTopic, params.ConversationData)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *soloPrepRepo) FindByID(ctx context.Context, id string) (*model.SoloPrepSession, error) {
	var s model.SoloPrepSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM solo_prep_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&s, err)
}

func (r *soloPrepRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.SoloPrepSession, error) {
	var s model.SoloPrepSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM solo_prep_sessions WHERE id = $1 FOR UPDATE
	`, id)
	return HandleNotFound(&s, err)
}

// UpsertJournalEntry inserts or replaces the response for a prompt. New
// prompts are appended at the end; re-submissions keep their position so
// client retries are idempotent.
func (r *soloPrepRepo) UpsertJournalEntry(ctx context.Context, sessionID, promptID, response string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := r.db.GetContext(ctx, &e, `
		INSERT INTO journal_entries (session_id, prompt_id, response, position)
		VALUES ($1, $2, $3, (
			SELECT COALESCE(MAX(position) + 1, 0) FROM journal_entries WHERE session_id = $1
		))
		ON CONFLICT (session_id, prompt_id) DO UPDATE SET
			response = EXCLUDED.response,
			updated_at = NOW()
		RETURNING *
	`, sessionID, promptID, response)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *soloPrepRepo) ListJournalEntries(ctx context.Context, sessionID string) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM journal_entries
		WHERE session_id = $1
		ORDER BY position ASC
	`, sessionID)
	return entries, err
}

// SetBriefing stores the generated briefing and completes the session in one
// update. Completion is irreversible but a completed session may regenerate.
func (r *soloPrepRepo) SetBriefing(ctx context.Context, id, briefing string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE solo_prep_sessions SET
			generated_briefing = $2,
			status = 'completed',
			updated_at = NOW()
		WHERE id = $1 AND status IN ('in-progress', 'completed')
	`, id, briefing)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s not updatable", id)
	}
	return nil
}

func (r *soloPrepRepo) MarkConverted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE solo_prep_sessions SET
			status = 'converted',
			updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s not in completed state", id)
	}
	return nil
}
