package repository

import (
	"context"

	"github.com/candorapp/session-server-go/internal/database"
	"github.com/candorapp/session-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	// DecrementTrialIfPositive consumes one trial session as a single
	// conditional update. Returns false when the balance was already zero.
	// Never read-then-write: concurrent requests must not both observe a
	// positive balance.
	DecrementTrialIfPositive(ctx context.Context, id string) (bool, error)
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&u, err)
}

func (r *userRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE access_token_hash = $1
	`, tokenHash)
	return HandleNotFound(&u, err)
}

func (r *userRepo) DecrementTrialIfPositive(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			trial_sessions_remaining = trial_sessions_remaining - 1,
			updated_at = NOW()
		WHERE id = $1 AND trial_sessions_remaining > 0
	`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
