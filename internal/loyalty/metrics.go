package loyalty

import "expvar"

var (
	metricAccrualDispatchedTotal = expvar.NewInt("accrual_dispatched_total")
	metricAccrualCreditedTotal   = expvar.NewInt("accrual_credited_total")
	metricAccrualDedupedTotal    = expvar.NewInt("accrual_deduped_total")
	metricAccrualGhostSkipTotal  = expvar.NewInt("accrual_ghost_skip_total")
	metricAccrualRetryTotal      = expvar.NewInt("accrual_retry_total")
	metricAccrualDroppedTotal    = expvar.NewInt("accrual_dropped_total")
	metricAccrualFailedTotal     = expvar.NewInt("accrual_failed_total")
	metricAccrualQueueLen        = expvar.NewInt("accrual_queue_len")
)
