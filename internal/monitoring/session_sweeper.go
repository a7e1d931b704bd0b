package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ExpiredSessionPurger removes expired server-side sessions.
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically purges expired sessions on a cron schedule.
type SessionSweeper struct {
	purger  ExpiredSessionPurger
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	log     zerolog.Logger
}

// NewSessionSweeper creates a sweeper. spec accepts standard cron
// expressions and descriptors such as "@every 10m".
func NewSessionSweeper(purger ExpiredSessionPurger, spec string, logger zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		purger:  purger,
		spec:    spec,
		timeout: 30 * time.Second,
		cron:    cron.New(),
		log:     logger.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start registers the job, runs one sweep immediately and starts the schedule.
func (s *SessionSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.spec, err)
	}
	s.log.Info().Str("schedule", s.spec).Msg("Starting session sweeper")

	// Run once immediately on start
	s.Sweep()

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Stopped session sweeper")
}

// Sweep deletes the expired sessions once.
func (s *SessionSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to purge expired sessions")
		return
	}
	if n > 0 {
		s.log.Info().Int64("purged", n).Msg("Purged expired sessions")
	}
}
