package rating

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrVisitNotFound  = errors.New("visit_not_found")
	ErrTableNotFound  = errors.New("table_not_found")
	ErrSlipNotFound   = errors.New("slip_not_found")
	ErrSeatOccupied   = errors.New("seat_occupied")
	ErrAlreadyClosed  = errors.New("already_closed")
)
