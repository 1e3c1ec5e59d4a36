package alerts

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"schedule_notification_bot/internal/domain/alert"

	"github.com/sirupsen/logrus"
)

// Poller keeps a last-known-good alert.Status refreshed on a fixed interval.
// Status() never blocks on network I/O: it returns the cached value
// immediately, marked stale after a failed refresh, or the explicit unknown
// status before the first successful poll.
type Poller struct {
	client   *Client
	interval time.Duration
	log      *logrus.Entry

	mu     sync.RWMutex
	status alert.Status

	inFlight atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
}

func NewPoller(client *Client, interval time.Duration, log *logrus.Entry) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		log:      log,
		status:   alert.Status{Known: false, Stale: true},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the polling loop: an immediate poll, then one per interval.
// A tick that arrives while a poll is still in flight is skipped.
func (p *Poller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.loop()
}

// Stop halts the polling loop and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	if !p.started.Load() {
		return
	}
	close(p.stopCh)
	<-p.doneCh
}

// Status returns a copy of the current cached value.
func (p *Poller) Status() alert.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) loop() {
	defer close(p.doneCh)

	p.pollOnce()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce refreshes the cached status. On failure the previous value stays
// in place and is only marked stale.
func (p *Poller) pollOnce() {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.log.Debug("previous alert poll still in flight, skipping tick")
		return
	}
	defer p.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	payload, err := p.client.Fetch(ctx)
	if err != nil {
		p.log.Warnf("alert feed poll failed: %v", err)
		p.mu.Lock()
		p.status.Stale = true
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.status = alert.Status{
		Active:    payload.Active,
		Message:   payload.Message,
		Types:     payload.Types,
		FetchedAt: time.Now(),
		Stale:     false,
		Known:     true,
	}
	p.mu.Unlock()
}
