package photo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconciler removes uploads that never committed.
type Reconciler interface {
	ReconcileUploads(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper periodically reconciles upload intents older than a grace period.
type Sweeper struct {
	cron   *cron.Cron
	rec    Reconciler
	grace  time.Duration
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	first  sync.WaitGroup
}

// NewSweeper schedules rec on the cron spec (for example "@every 15m").
func NewSweeper(rec Reconciler, schedule string, grace time.Duration) (*Sweeper, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		cron:   cron.New(),
		rec:    rec,
		grace:  grace,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Run(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one sweep immediately and then follows the schedule.
func (s *Sweeper) Start() {
	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.Run(s.ctx)
	}()
	s.cron.Start()
	log.Println("sweep: upload sweeper started")
}

// Stop halts the schedule and waits for running sweeps, the initial one
// included. When ctx ends first the sweeps are cancelled.
func (s *Sweeper) Stop(ctx context.Context) {
	scheduled := s.cron.Stop()
	idle := make(chan struct{})
	go func() {
		s.first.Wait()
		<-scheduled.Done()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
		log.Println("sweep: stop timed out with a sweep in progress")
	}
	s.cancel()
}

// Run performs a single sweep and returns the number of intents removed.
func (s *Sweeper) Run(ctx context.Context) int {
	n, err := s.rec.ReconcileUploads(ctx, s.now().Add(-s.grace))
	if err != nil {
		log.Printf("sweep: %v", err)
	}
	if n > 0 {
		log.Printf("sweep: removed %d abandoned uploads", n)
	}
	return n
}
