package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"pitboss/internal/store"

	"github.com/go-chi/chi/v5"
)

// FloorHandlers cover the supporting floor-management surface: patrons,
// visits, tables, and loyalty reads. They talk to the store directly,
// there is no lifecycle logic behind them.
type FloorHandlers struct {
	store    *store.Store
	casinoID string
}

func NewFloorHandlers(st *store.Store, casinoID string) *FloorHandlers {
	return &FloorHandlers{store: st, casinoID: casinoID}
}

func (h *FloorHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func (h *FloorHandlers) CreatePlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Name == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		p := store.Player{ID: store.NewID(), CasinoID: h.casinoID, Name: body.Name}
		if err := h.store.CreatePlayer(r.Context(), p); err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"player_id": p.ID})
	}
}

// CreateVisit starts a floor visit. An absent player_id records a ghost
// visit: the patron plays unidentified and accrues nothing.
func (h *FloorHandlers) CreateVisit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerID *string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.PlayerID != nil {
			if _, err := h.store.GetPlayer(r.Context(), *body.PlayerID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					WriteHTTPError(w, http.StatusNotFound, "player_not_found")
					return
				}
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
				return
			}
		}
		v := store.Visit{ID: store.NewID(), CasinoID: h.casinoID, PlayerID: body.PlayerID}
		if err := h.store.CreateVisit(r.Context(), v); err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"visit_id": v.ID, "ghost": body.PlayerID == nil})
	}
}

func (h *FloorHandlers) EndVisit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.EndVisit(r.Context(), chi.URLParam(r, "visit_id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "visit_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *FloorHandlers) Tables() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.store.ListGamingTables(r.Context(), h.casinoID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": tablesToViews(items)})
	}
}

func (h *FloorHandlers) LoyaltyEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		q := r.URL.Query()
		items, err := h.store.ListLoyaltyEntries(r.Context(), h.casinoID, store.LoyaltyFilter{
			PlayerID:     q.Get("player_id"),
			RatingSlipID: q.Get("rating_slip_id"),
			Reason:       q.Get("reason"),
		}, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": loyaltyEntriesToViews(items), "limit": limit, "offset": offset})
	}
}

func (h *FloorHandlers) PlayerPoints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "player_id")
		if _, err := h.store.GetPlayer(r.Context(), playerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "player_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		bal, err := h.store.PlayerPointsBalance(r.Context(), h.casinoID, playerID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"player_id": playerID, "points": bal})
	}
}
