package httptransport

import "expvar"

var (
	metricSlipOpenTotal   = expvar.NewInt("slip_open_total")
	metricSlipOpenErrors  = expvar.NewInt("slip_open_errors_total")
	metricSlipCloseTotal  = expvar.NewInt("slip_close_total")
	metricSlipCloseErrors = expvar.NewInt("slip_close_errors_total")
	metricSlipMoveTotal   = expvar.NewInt("slip_move_total")
	metricSlipMoveErrors  = expvar.NewInt("slip_move_errors_total")

	metricCashRecordTotal  = expvar.NewInt("cash_record_total")
	metricCashRecordErrors = expvar.NewInt("cash_record_errors_total")
)
