package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/corebank/backend/internal/services"
)

// Scheduler owns the background cron jobs. The only job today is the monthly
// interest accrual over credit accounts.
type Scheduler struct {
	cron    *cron.Cron
	credits *services.CreditService
}

func New(credits *services.CreditService) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		credits: credits,
	}
}

// Start registers the accrual job under the given cron expression
// (standard five-field syntax, e.g. "0 0 1 * *") and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.runAccrual)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[SCHEDULER] Interest accrual scheduled: %q", schedule)
	return nil
}

// Stop waits for a running job to finish before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runAccrual() {
	charged, err := s.credits.AccrueMonthlyInterest(context.Background())
	if err != nil {
		log.Printf("[SCHEDULER] Interest accrual aborted after %d accounts: %v", charged, err)
		return
	}
	log.Printf("[SCHEDULER] Interest accrual complete, %d accounts charged", charged)
}
