package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/repository"
)

// CleanupJob periodically flags invitations that expired before the guest
// ever accepted. Expiry is still enforced lazily on every token access; this
// only keeps abandoned joint sessions from sitting in pending forever.
type CleanupJob struct {
	jointRepo repository.JointUnpackRepository
	interval  time.Duration
	done      chan struct{}
}

func NewCleanupJob(jointRepo repository.JointUnpackRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		jointRepo: jointRepo,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.jointRepo.MarkExpiredPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire stale invitations")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("expired stale invitations")
	}
}
