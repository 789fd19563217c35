package compliance

import (
	"fmt"
	"time"
)

// Resolver maps timestamps to the casino's business date. A gaming day
// starts at StartHour local time; anything before it belongs to the
// previous calendar date. Resolution happens once, when a cash
// observation is recorded, and is never recomputed for existing entries.
type Resolver struct {
	loc       *time.Location
	startHour int
}

func NewResolver(tz string, startHour int) (*Resolver, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("gaming day timezone: %w", err)
	}
	if startHour < 0 || startHour > 23 {
		return nil, fmt.Errorf("gaming day start hour %d out of range", startHour)
	}
	return &Resolver{loc: loc, startHour: startHour}, nil
}

// Resolve returns the gaming day for t as YYYY-MM-DD.
func (r *Resolver) Resolve(t time.Time) string {
	local := t.In(r.loc)
	if local.Hour() < r.startHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}
