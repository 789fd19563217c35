// Package reconcile periodically rebuilds gaming-day summaries from the
// compliance entries. Summaries are derived data; the rebuild both
// repairs drift and proves the entries alone reproduce them.
package reconcile

import (
	"context"
	"time"

	"pitboss/internal/compliance"
	"pitboss/internal/config"
	"pitboss/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Store interface {
	RecomputeGamingDaySummaries(ctx context.Context, casinoID, gamingDay string, badgeFor store.BadgeFunc) (int, error)
}

type Reconciler struct {
	store      Store
	casinoID   string
	thresholds compliance.Thresholds
	days       *compliance.Resolver
	cron       *cron.Cron
	spec       string
}

func New(st Store, casinoID string, thresholds compliance.Thresholds, days *compliance.Resolver, cfg config.ReconcileConfig) *Reconciler {
	return &Reconciler{
		store:      st,
		casinoID:   casinoID,
		thresholds: thresholds,
		days:       days,
		cron:       cron.New(),
		spec:       cfg.Cron,
	}
}

// Start schedules the periodic rebuild. The schedule spec comes from
// configuration; an invalid spec is a startup error.
func (r *Reconciler) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("gaming day summary reconciliation failed")
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Info().Str("schedule", r.spec).Msg("summary reconciler started")
	return nil
}

func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce rebuilds the current gaming day and the previous one. The
// previous day is included because entries written just before the day
// rollover land on a day the next tick would otherwise never revisit.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	now := time.Now()
	for _, day := range []string{r.days.Resolve(now.Add(-24 * time.Hour)), r.days.Resolve(now)} {
		n, err := r.store.RecomputeGamingDaySummaries(ctx, r.casinoID, day, r.thresholds.ClassifyAggregate)
		if err != nil {
			return err
		}
		log.Debug().Str("gaming_day", day).Int("players", n).Msg("summaries rebuilt")
	}
	return nil
}
