package loyalty

import (
	"context"
	"sync"
	"time"

	"pitboss/internal/config"
	"pitboss/internal/store"

	"github.com/rs/zerolog/log"
)

// Store is the slice of persistence the dispatcher needs.
type Store interface {
	GetRatingSlip(ctx context.Context, id string) (*store.RatingSlip, error)
	GetVisit(ctx context.Context, id string) (*store.Visit, error)
	InsertAccrualIfAbsent(ctx context.Context, e store.LoyaltyLedgerEntry) (bool, error)
}

// AccrualJob identifies one closed slip to credit. The slip id doubles as
// the idempotency key.
type AccrualJob struct {
	CasinoID string
	SlipID   string
	Attempt  int
}

// Dispatcher runs accrual jobs off a bounded queue. Failures retry with
// exponential backoff up to RetryMax; the ledger's unique accrual index,
// not any in-process lock, decides who credits.
type Dispatcher struct {
	store Store
	cfg   config.LoyaltyConfig

	jobs chan AccrualJob
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewDispatcher(st Store, cfg config.LoyaltyConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Second
	}
	return &Dispatcher{
		store: st,
		cfg:   cfg,
		jobs:  make(chan AccrualJob, cfg.QueueSize),
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Dispatch enqueues an accrual for a closed slip. Never blocks the
// caller: a full queue drops the job, which is observable via the
// dropped counter and safe because a later retry path (or operator
// replay) re-credits idempotently. Returns whether the job was queued.
func (d *Dispatcher) Dispatch(casinoID, slipID string) bool {
	metricAccrualDispatchedTotal.Add(1)
	select {
	case d.jobs <- AccrualJob{CasinoID: casinoID, SlipID: slipID}:
		metricAccrualQueueLen.Set(int64(len(d.jobs)))
		return true
	default:
		metricAccrualDroppedTotal.Add(1)
		log.Warn().Str("slip_id", slipID).Msg("accrual queue full, job dropped")
		return false
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case job := <-d.jobs:
			metricAccrualQueueLen.Set(int64(len(d.jobs)))
			if err := d.process(ctx, job); err != nil {
				d.retryOrDrop(job, err)
			}
		}
	}
}

// process credits one slip. A nil return means the job is settled:
// credited, deduped, or skipped. An error means the job is retryable.
func (d *Dispatcher) process(ctx context.Context, job AccrualJob) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.JobTimeout)
	defer cancel()

	slip, err := d.store.GetRatingSlip(ctx, job.SlipID)
	if err != nil {
		return err
	}
	if slip.Status != store.SlipClosed {
		// Dispatch happens after the close commits, so this is a
		// caller bug, not a transient state. Do not retry.
		log.Error().Str("slip_id", job.SlipID).Msg("accrual dispatched for open slip")
		metricAccrualFailedTotal.Add(1)
		return nil
	}
	visit, err := d.store.GetVisit(ctx, slip.VisitID)
	if err != nil {
		return err
	}
	if visit.PlayerID == nil {
		// Ghost visits never accrue.
		metricAccrualGhostSkipTotal.Add(1)
		return nil
	}

	pts := Points(slip.Policy, slip.AverageBet, slip.AccumulatedSeconds)
	inserted, err := d.store.InsertAccrualIfAbsent(ctx, store.LoyaltyLedgerEntry{
		CasinoID:     job.CasinoID,
		PlayerID:     *visit.PlayerID,
		RatingSlipID: &slip.ID,
		Points:       pts,
		Reason:       store.AccrualReason,
	})
	if err != nil {
		return err
	}
	if !inserted {
		metricAccrualDedupedTotal.Add(1)
		return nil
	}
	metricAccrualCreditedTotal.Add(1)
	log.Info().Str("slip_id", slip.ID).Str("player_id", *visit.PlayerID).Int64("points", pts).Msg("loyalty accrual credited")
	return nil
}

func (d *Dispatcher) retryOrDrop(job AccrualJob, err error) {
	if job.Attempt >= d.cfg.RetryMax {
		metricAccrualFailedTotal.Add(1)
		log.Error().Err(err).Str("slip_id", job.SlipID).Int("attempts", job.Attempt).Msg("accrual abandoned after retries")
		return
	}
	job.Attempt++
	metricAccrualRetryTotal.Add(1)
	delay := d.cfg.RetryBase * time.Duration(1<<(job.Attempt-1))
	time.AfterFunc(delay, func() {
		select {
		case <-d.done:
		case d.jobs <- job:
			metricAccrualQueueLen.Set(int64(len(d.jobs)))
		}
	})
}
