package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pitboss/internal/app/mtl"
	"pitboss/internal/compliance"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type MTLHandlers struct {
	svc *mtl.Service
}

func NewMTLHandlers(svc *mtl.Service) *MTLHandlers {
	return &MTLHandlers{svc: svc}
}

func (h *MTLHandlers) RecordCash() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerID  string          `json:"player_id"`
			Direction string          `json:"direction"`
			Amount    decimal.Decimal `json:"amount"`
			TxCode    string          `json:"tx_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.RecordCashObservation(r.Context(), mtl.RecordCashParams{
			PlayerID:  body.PlayerID,
			Direction: compliance.Direction(body.Direction),
			Amount:    body.Amount,
			TxCode:    body.TxCode,
		}, time.Now())
		if err != nil {
			metricCashRecordErrors.Add(1)
			writeMTLError(w, err)
			return
		}
		metricCashRecordTotal.Add(1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entry_id":        res.EntryID,
			"gaming_day":      res.GamingDay,
			"entry_badge":     string(res.EntryBadge),
			"aggregate_badge": string(res.AggregateBadge),
			"summary":         summaryToView(res.Summary),
		})
	}
}

func (h *MTLHandlers) PatronDay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := h.svc.Summary(r.Context(), chi.URLParam(r, "player_id"), r.URL.Query().Get("gaming_day"), time.Now())
		if err != nil {
			writeMTLError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"summary": summaryToView(sum)})
	}
}

func (h *MTLHandlers) Entries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		q := r.URL.Query()
		items, err := h.svc.Entries(r.Context(), mtl.EntriesFilter{
			PlayerID:  q.Get("player_id"),
			GamingDay: q.Get("gaming_day"),
			Direction: q.Get("direction"),
		}, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": complianceEntriesToViews(items), "limit": limit, "offset": offset})
	}
}

// Classify exposes the threshold classifier without recording anything.
// Useful for pit supervisors previewing what a pending transaction would
// trigger.
func (h *MTLHandlers) Classify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount       decimal.Decimal `json:"amount"`
			Direction    string          `json:"direction"`
			RunningTotal decimal.Decimal `json:"running_total"`
			Tier         string          `json:"tier"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		direction := compliance.Direction(body.Direction)
		tier := compliance.Tier(body.Tier)
		if body.Amount.Sign() <= 0 || !direction.Valid() || !tier.Valid() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		badge := h.svc.Thresholds().Classify(body.Amount, direction, body.RunningTotal, tier)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"badge":    string(badge),
			"severity": badge.Severity(),
		})
	}
}

func writeMTLError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mtl.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, mtl.ErrPlayerNotFound):
		WriteHTTPError(w, http.StatusNotFound, "player_not_found")
	case errors.Is(err, mtl.ErrNoActivity):
		WriteHTTPError(w, http.StatusNotFound, "no_activity")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
