// Package sweeper runs the periodic conversation eviction pass on a cron
// schedule.
package sweeper

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/sandevgo/shopclerk/pkg/log"
)

// Store is the slice of the session store the sweeper drives.
type Store interface {
	Sweep() int
	Len() int
}

// Sweeper evicts idle conversations on a fixed cron schedule. Ticks never
// overlap: if a pass is still running, the next tick is skipped.
type Sweeper struct {
	store    Store
	schedule string

	mu   sync.Mutex
	runs sync.Mutex
	cron *cron.Cron
}

func New(store Store, schedule string) *Sweeper {
	return &Sweeper{store: store, schedule: schedule}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := log.FromCtx(ctx)

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	_, err := s.cron.AddFunc(s.schedule, func() {
		if !s.runs.TryLock() {
			logger.Warn().Msg("sweep still running, skipping tick")
			return
		}
		defer s.runs.Unlock()

		removed := s.store.Sweep()
		logger.Debug().
			Int("removed", removed).
			Int("remaining", s.store.Len()).
			Msg("swept idle conversations")
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	logger.Info().Str("schedule", s.schedule).Msg("conversation sweeper started")
	return nil
}

// Shutdown stops the schedule and waits for an in-flight pass.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return nil
}
