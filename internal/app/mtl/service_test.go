package mtl

import (
	"context"
	"errors"
	"testing"
	"time"

	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	players   map[string]*store.Player
	entries   []store.ComplianceEntry
	summaries map[string]*store.GamingDaySummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:   map[string]*store.Player{"player-1": {ID: "player-1"}},
		summaries: map[string]*store.GamingDaySummary{},
	}
}

func (f *fakeStore) GetPlayer(_ context.Context, id string) (*store.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) key(casinoID, playerID, day string) string {
	return casinoID + "/" + playerID + "/" + day
}

func (f *fakeStore) RecordComplianceEntry(_ context.Context, e store.ComplianceEntry, badgeFor store.BadgeFunc) (*store.GamingDaySummary, error) {
	f.entries = append(f.entries, e)
	k := f.key(e.CasinoID, e.PlayerID, e.GamingDay)
	sum, ok := f.summaries[k]
	if !ok {
		sum = &store.GamingDaySummary{
			CasinoID:  e.CasinoID,
			PlayerID:  e.PlayerID,
			GamingDay: e.GamingDay,
			BadgeIn:   compliance.BadgeNone,
			BadgeOut:  compliance.BadgeNone,
		}
		f.summaries[k] = sum
	}
	if e.Direction == compliance.DirectionIn {
		sum.CashInTotal = sum.CashInTotal.Add(e.Amount)
		sum.InCount++
	} else {
		sum.CashOutTotal = sum.CashOutTotal.Add(e.Amount)
		sum.OutCount++
	}
	sum.BadgeIn = badgeFor(sum.CashInTotal)
	sum.BadgeOut = badgeFor(sum.CashOutTotal)
	cp := *sum
	return &cp, nil
}

func (f *fakeStore) GetGamingDaySummary(_ context.Context, casinoID, playerID, gamingDay string) (*store.GamingDaySummary, error) {
	sum, ok := f.summaries[f.key(casinoID, playerID, gamingDay)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sum
	return &cp, nil
}

func (f *fakeStore) ListComplianceEntries(_ context.Context, casinoID string, flt store.ComplianceFilter, limit, offset int) ([]store.ComplianceEntry, error) {
	var out []store.ComplianceEntry
	for _, e := range f.entries {
		if e.CasinoID != casinoID {
			continue
		}
		if flt.PlayerID != "" && e.PlayerID != flt.PlayerID {
			continue
		}
		if flt.GamingDay != "" && e.GamingDay != flt.GamingDay {
			continue
		}
		if flt.Direction != "" && string(e.Direction) != flt.Direction {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func newTestService(t *testing.T) (*fakeStore, *Service) {
	t.Helper()
	days, err := compliance.NewResolver("America/Los_Angeles", 6)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	fs := newFakeStore()
	return fs, NewService(fs, "main", compliance.DefaultThresholds(), days)
}

// Noon Pacific on 2024-03-15. Well past the 06:00 gaming-day start, so
// events an hour apart stay inside one gaming day.
var noon = time.Date(2024, 3, 15, 19, 0, 0, 0, time.UTC)

func TestRecordBuyInAtWatchlistFloor(t *testing.T) {
	_, svc := newTestService(t)

	res, err := svc.RecordCashObservation(context.Background(), RecordCashParams{
		PlayerID:  "player-1",
		Direction: compliance.DirectionIn,
		Amount:    decimal.RequireFromString("3000"),
	}, noon)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.EntryBadge != compliance.BadgeWatchlistNear {
		t.Fatalf("entry badge = %s, want watchlist_near", res.EntryBadge)
	}
	if res.AggregateBadge != compliance.BadgeWatchlistNear {
		t.Fatalf("aggregate badge = %s, want watchlist_near", res.AggregateBadge)
	}
	if res.Summary.InCount != 1 || !res.Summary.CashInTotal.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("summary = %+v, want one $3000 in", res.Summary)
	}
}

func TestSmallEntriesCrossAggregateThreshold(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionIn,
		Amount: decimal.RequireFromString("9500"),
	}, noon)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.AggregateBadge != compliance.BadgeCTRNear {
		t.Fatalf("after $9500: aggregate = %s, want ctr_near", first.AggregateBadge)
	}

	// A $600 buy-in is individually unremarkable but tips the day total
	// over $10,000.
	second, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionIn,
		Amount: decimal.RequireFromString("600"),
	}, noon.Add(time.Hour))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.GamingDay != first.GamingDay {
		t.Fatalf("entries split across days %s and %s", first.GamingDay, second.GamingDay)
	}
	if second.EntryBadge != compliance.BadgeNone {
		t.Fatalf("entry badge for $600 = %s, want none", second.EntryBadge)
	}
	if second.AggregateBadge != compliance.BadgeCTRMet {
		t.Fatalf("aggregate = %s, want ctr_met", second.AggregateBadge)
	}
	if second.Summary.BadgeOut != compliance.BadgeNone {
		t.Fatalf("out badge = %s, want none; directions aggregate independently", second.Summary.BadgeOut)
	}
}

func TestDirectionsTrackedSeparately(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionIn,
		Amount: decimal.RequireFromString("6000"),
	}, noon); err != nil {
		t.Fatalf("in: %v", err)
	}
	out, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionOut,
		Amount: decimal.RequireFromString("6000"),
	}, noon)
	if err != nil {
		t.Fatalf("out: %v", err)
	}
	// $6000 each way; neither direction alone approaches the CTR amount.
	if out.Summary.BadgeIn != compliance.BadgeWatchlistNear || out.Summary.BadgeOut != compliance.BadgeWatchlistNear {
		t.Fatalf("badges = %s/%s, want watchlist_near both", out.Summary.BadgeIn, out.Summary.BadgeOut)
	}
}

func TestDefaultTxCodes(t *testing.T) {
	fs, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionIn, Amount: decimal.RequireFromString("100"),
	}, noon); err != nil {
		t.Fatalf("in: %v", err)
	}
	if _, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionOut, Amount: decimal.RequireFromString("100"),
	}, noon); err != nil {
		t.Fatalf("out: %v", err)
	}
	if fs.entries[0].TxCode != "buy_in" || fs.entries[1].TxCode != "chip_redemption" {
		t.Fatalf("tx codes = %s/%s, want buy_in/chip_redemption", fs.entries[0].TxCode, fs.entries[1].TxCode)
	}
}

func TestRecordValidation(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		p    RecordCashParams
		want error
	}{
		{"unknown player", RecordCashParams{PlayerID: "nope", Direction: compliance.DirectionIn, Amount: decimal.RequireFromString("1")}, ErrPlayerNotFound},
		{"zero amount", RecordCashParams{PlayerID: "player-1", Direction: compliance.DirectionIn, Amount: decimal.Zero}, ErrInvalidRequest},
		{"negative amount", RecordCashParams{PlayerID: "player-1", Direction: compliance.DirectionIn, Amount: decimal.RequireFromString("-5")}, ErrInvalidRequest},
		{"bad direction", RecordCashParams{PlayerID: "player-1", Direction: "sideways", Amount: decimal.RequireFromString("1")}, ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordCashObservation(ctx, tc.p, noon); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSummaryResolvesCurrentDay(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.RecordCashObservation(ctx, RecordCashParams{
		PlayerID: "player-1", Direction: compliance.DirectionIn, Amount: decimal.RequireFromString("250"),
	}, noon)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	sum, err := svc.Summary(ctx, "player-1", "", noon)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.GamingDay != rec.GamingDay {
		t.Fatalf("summary day %s, entry day %s", sum.GamingDay, rec.GamingDay)
	}
	if _, err := svc.Summary(ctx, "player-1", "1999-01-01", noon); !errors.Is(err, ErrNoActivity) {
		t.Fatalf("idle day: err = %v, want ErrNoActivity", err)
	}
}
