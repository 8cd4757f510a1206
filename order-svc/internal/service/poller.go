package service

import (
	"context"
	"log"
	"time"
)

const (
	DefaultPollInterval  = 5 * time.Second
	DefaultRetryInterval = 30 * time.Second
)

// StatusPoller asks the provider about every pending session on each tick.
type StatusPoller struct {
	manager  *SessionManager
	sessions SessionRepository
	interval time.Duration
}

func NewStatusPoller(manager *SessionManager, sessions SessionRepository, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &StatusPoller{manager: manager, sessions: sessions, interval: interval}
}

func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *StatusPoller) Tick(ctx context.Context) {
	codes, err := p.sessions.ListPending(ctx)
	if err != nil {
		log.Printf("failed to list pending payment sessions: %v", err)
		return
	}
	for _, code := range codes {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.manager.PollStatus(ctx, code); err != nil {
			log.Printf("failed to poll payment session %s: %v", code, err)
		}
	}
}

// SettlementRetrier picks up completed sessions whose order lines did not
// all flip to paid.
type SettlementRetrier struct {
	manager  *SessionManager
	sessions SessionRepository
	interval time.Duration
}

func NewSettlementRetrier(manager *SessionManager, sessions SessionRepository, interval time.Duration) *SettlementRetrier {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	return &SettlementRetrier{manager: manager, sessions: sessions, interval: interval}
}

func (r *SettlementRetrier) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *SettlementRetrier) Tick(ctx context.Context) {
	codes, err := r.sessions.ListUnsettled(ctx)
	if err != nil {
		log.Printf("failed to list unsettled payment sessions: %v", err)
		return
	}
	for _, code := range codes {
		if ctx.Err() != nil {
			return
		}
		result, err := r.manager.RetrySettlement(ctx, code)
		if err != nil {
			log.Printf("failed to retry settlement %s: %v", code, err)
			continue
		}
		if len(result.Failed) > 0 {
			log.Printf("settlement still incomplete %s: failed=%v", code, result.Failed)
		}
	}
}
