package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"pitboss/internal/app/mtl"
	"pitboss/internal/app/rating"
	"pitboss/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, ratingSvc *rating.Service, mtlSvc *mtl.Service, casinoID string) *chi.Mux {
	ratingHandlers := NewRatingHandlers(ratingSvc)
	mtlHandlers := NewMTLHandlers(mtlSvc)
	floorHandlers := NewFloorHandlers(st, casinoID)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", floorHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Post("/slips", ratingHandlers.OpenSlip())
		r.Get("/slips/{slip_id}", ratingHandlers.GetSlip())
		r.Patch("/slips/{slip_id}", ratingHandlers.UpdateSlip())
		r.Post("/slips/{slip_id}/close", ratingHandlers.CloseSlip())
		r.Post("/slips/{slip_id}/move", ratingHandlers.MoveSlip())
		r.Get("/tables/{table_id}/slips", ratingHandlers.TableSlips())

		r.Post("/cash", mtlHandlers.RecordCash())
		r.Get("/patrons/{player_id}/day", mtlHandlers.PatronDay())
		r.Get("/compliance/entries", mtlHandlers.Entries())
		r.Post("/classify", mtlHandlers.Classify())

		r.Post("/players", floorHandlers.CreatePlayer())
		r.Get("/players/{player_id}/points", floorHandlers.PlayerPoints())
		r.Post("/visits", floorHandlers.CreateVisit())
		r.Post("/visits/{visit_id}/end", floorHandlers.EndVisit())
		r.Get("/tables", floorHandlers.Tables())
		r.Get("/loyalty/entries", floorHandlers.LoyaltyEntries())

		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
