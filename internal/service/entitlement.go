package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/candorapp/session-server-go/internal/errors"
	"github.com/candorapp/session-server-go/internal/model"
	"github.com/candorapp/session-server-go/internal/repository"
)

// EntitlementService decides whether subscription or trial status permits an
// operation. For trial users the session grant and the counter decrement are
// the same atomic database operation.
type EntitlementService struct {
	userRepo repository.UserRepository
}

func NewEntitlementService(userRepo repository.UserRepository) *EntitlementService {
	return &EntitlementService{userRepo: userRepo}
}

// AuthorizeSessionCreation grants a new solo prep session. Premium tiers are
// always allowed. Trial users consume one unit via decrement-if-positive; two
// racing requests can never both succeed on a balance of one.
func (s *EntitlementService) AuthorizeSessionCreation(ctx context.Context, user *model.User) error {
	if user.SubscriptionStatus.IsPremium() {
		return nil
	}

	if user.SubscriptionStatus == model.SubscriptionTrial {
		granted, err := s.userRepo.DecrementTrialIfPositive(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("decrement trial counter: %w", err)
		}
		if granted {
			log.Info().
				Str("userId", user.ID).
				Msg("trial session granted")
			return nil
		}
		log.Info().
			Str("userId", user.ID).
			Msg("trial sessions exhausted")
		return apperrors.EntitlementDenied("Trial sessions exhausted")
	}

	return apperrors.EntitlementDenied("Subscription required to start a session")
}

// AuthorizeConversion gates promotion to a joint unpack session, which is
// premium-only.
func (s *EntitlementService) AuthorizeConversion(user *model.User) error {
	if user.SubscriptionStatus.IsPremium() {
		return nil
	}
	return apperrors.EntitlementDenied("Premium subscription required for joint sessions")
}
