package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is one polling round.
type Job func(ctx context.Context) error

// Poller runs a job every interval and backs off while it keeps failing.
type Poller struct {
	name     string
	interval time.Duration
	retry    RetryPolicy
	job      Job
	fatal    func(error) bool
	logger   *zerolog.Logger
}

func NewPoller(name string, interval time.Duration, retry RetryPolicy, job Job, logger *zerolog.Logger) *Poller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Poller{
		name:     name,
		interval: interval,
		retry:    retry,
		job:      job,
		logger:   logger,
	}
}

// StopOn makes Run return the first error matching fn instead of retrying.
func (p *Poller) StopOn(fn func(error) bool) *Poller {
	p.fatal = fn
	return p
}

// Run polls until ctx is done or the job fails with a fatal error.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().Str("worker", p.name).Dur("interval", p.interval).Msg("poller started")
	defer p.logger.Info().Str("worker", p.name).Msg("poller stopped")

	failures := 0
	for {
		delay := p.interval
		err := p.job(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if p.fatal != nil && p.fatal(err) {
				return err
			}
			failures++
			delay = p.retry.NextDelay(failures)
			p.logger.Warn().Err(err).
				Str("worker", p.name).
				Int("failures", failures).
				Dur("retry_in", delay).
				Msg("poll failed")
		} else {
			failures = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
