package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"pitboss/internal/app/rating"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type RatingHandlers struct {
	svc *rating.Service
}

func NewRatingHandlers(svc *rating.Service) *RatingHandlers {
	return &RatingHandlers{svc: svc}
}

func (h *RatingHandlers) OpenSlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			VisitID    string          `json:"visit_id"`
			TableID    string          `json:"table_id"`
			Seat       *string         `json:"seat"`
			AverageBet decimal.Decimal `json:"average_bet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		slip, err := h.svc.Open(r.Context(), rating.OpenParams{
			VisitID:    body.VisitID,
			TableID:    body.TableID,
			Seat:       body.Seat,
			AverageBet: body.AverageBet,
		})
		if err != nil {
			metricSlipOpenErrors.Add(1)
			writeRatingError(w, err)
			return
		}
		metricSlipOpenTotal.Add(1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"slip": slipToView(slip)})
	}
}

func (h *RatingHandlers) CloseSlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CashOut         decimal.Decimal  `json:"cash_out"`
			FinalAverageBet *decimal.Decimal `json:"final_average_bet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.CloseWithSettlement(r.Context(), chi.URLParam(r, "slip_id"), body.CashOut, body.FinalAverageBet)
		if err != nil {
			metricSlipCloseErrors.Add(1)
			writeRatingError(w, err)
			return
		}
		metricSlipCloseTotal.Add(1)
		resp := map[string]any{"slip": slipToView(res.Slip)}
		if res.EntryBadge != "" {
			resp["entry_badge"] = string(res.EntryBadge)
			resp["aggregate_badge"] = string(res.AggregateBadge)
		}
		if len(res.Warnings) > 0 {
			resp["warnings"] = res.Warnings
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RatingHandlers) MoveSlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TableID         string           `json:"table_id"`
			Seat            string           `json:"seat"`
			FinalAverageBet *decimal.Decimal `json:"final_average_bet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.MovePlayer(r.Context(), rating.MoveParams{
			SlipID:          chi.URLParam(r, "slip_id"),
			DestTableID:     body.TableID,
			DestSeat:        body.Seat,
			FinalAverageBet: body.FinalAverageBet,
		})
		if err != nil {
			metricSlipMoveErrors.Add(1)
			writeRatingError(w, err)
			return
		}
		metricSlipMoveTotal.Add(1)
		resp := map[string]any{
			"closed_slip_id": res.ClosedSlipID,
			"slip":           slipToView(res.NewSlip),
			"move_group_id":  res.MoveGroupID,
		}
		if len(res.Warnings) > 0 {
			resp["warnings"] = res.Warnings
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RatingHandlers) UpdateSlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AverageBet decimal.Decimal `json:"average_bet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		slipID := chi.URLParam(r, "slip_id")
		if err := h.svc.SetAverageBet(r.Context(), slipID, body.AverageBet); err != nil {
			writeRatingError(w, err)
			return
		}
		slip, err := h.svc.Slip(r.Context(), slipID)
		if err != nil {
			writeRatingError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"slip": slipToView(slip)})
	}
}

func (h *RatingHandlers) GetSlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slip, err := h.svc.Slip(r.Context(), chi.URLParam(r, "slip_id"))
		if err != nil {
			writeRatingError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"slip": slipToView(slip)})
	}
}

func (h *RatingHandlers) TableSlips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slips, err := h.svc.OpenSlipsByTable(r.Context(), chi.URLParam(r, "table_id"))
		if err != nil {
			writeRatingError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": slipsToViews(slips)})
	}
}

func writeRatingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rating.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, rating.ErrVisitNotFound):
		WriteHTTPError(w, http.StatusNotFound, "visit_not_found")
	case errors.Is(err, rating.ErrTableNotFound):
		WriteHTTPError(w, http.StatusNotFound, "table_not_found")
	case errors.Is(err, rating.ErrSlipNotFound):
		WriteHTTPError(w, http.StatusNotFound, "slip_not_found")
	case errors.Is(err, rating.ErrSeatOccupied):
		WriteHTTPError(w, http.StatusConflict, "seat_occupied")
	case errors.Is(err, rating.ErrAlreadyClosed):
		WriteHTTPError(w, http.StatusConflict, "already_closed")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
