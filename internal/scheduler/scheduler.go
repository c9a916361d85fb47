// Package scheduler watches active circles for elapsed cycle windows.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/susu"
)

// DeadlineScheduler periodically scans active circles and logs the ones
// whose cycle window has elapsed, split by whether the payout is claimable
// or members are still missing contributions. Downstream notifiers consume
// these records; the scan itself never mutates circle state.
type DeadlineScheduler struct {
	cronEngine *cron.Cron
	registry   *susu.Registry
	logger     *zap.Logger
	spec       string // e.g. "*/5 * * * *"
}

// New creates a scheduler; Start must be called to begin scanning.
func New(registry *susu.Registry, logger *zap.Logger, spec string) *DeadlineScheduler {
	return &DeadlineScheduler{
		cronEngine: cron.New(),
		registry:   registry,
		logger:     logger,
		spec:       spec,
	}
}

// Start registers the scan job and starts the cron engine.
func (s *DeadlineScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.scan); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.Info("deadline scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron engine, waiting for a running scan to finish.
func (s *DeadlineScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
}

func (s *DeadlineScheduler) scan() {
	ids := s.registry.ListCircles(0, s.registry.TotalCircles())
	for _, id := range ids {
		c, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		if c.State() != susu.StateActive || c.CycleTimeRemaining() > 0 {
			continue
		}
		info := c.Info()
		if c.AllContributed() {
			recipient, err := c.CurrentRecipient()
			if err != nil {
				continue
			}
			s.logger.Info("payout ready",
				zap.String("circle_id", id.String()),
				zap.Int("cycle", info.CurrentCycle),
				zap.String("recipient", recipient),
			)
		} else {
			members, contributed := c.ContributionStatus(info.CurrentCycle)
			missing := make([]string, 0, len(members))
			for i, m := range members {
				if !contributed[i] {
					missing = append(missing, m)
				}
			}
			s.logger.Warn("cycle window elapsed with missing contributions",
				zap.String("circle_id", id.String()),
				zap.Int("cycle", info.CurrentCycle),
				zap.Strings("missing", missing),
			)
		}
	}
}
