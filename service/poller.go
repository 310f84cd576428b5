package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller runs a task immediately and then on every tick until its context
// is cancelled. A failed run is logged and retried on the next tick.
type Poller struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   *logrus.Logger
}

// NewPoller creates a Poller; interval must be positive.
func NewPoller(name string, interval time.Duration, task func(ctx context.Context) error, logger *logrus.Logger) *Poller {
	return &Poller{name: name, interval: interval, task: task, logger: logger}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("poller", p.name).Debug("poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// Start runs the poller in a goroutine and returns a function that stops it
// and waits for the current run to finish.
func (p *Poller) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if err := p.task(ctx); err != nil && ctx.Err() == nil {
		p.logger.WithError(err).WithField("poller", p.name).Warn("poller run failed")
	}
}
