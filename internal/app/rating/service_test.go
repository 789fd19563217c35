package rating

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pitboss/internal/compliance"
	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu       sync.Mutex
	visits   map[string]*store.Visit
	slips    map[string]*store.RatingSlip
	policies map[string]*store.PolicySnapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		visits:   map[string]*store.Visit{},
		slips:    map[string]*store.RatingSlip{},
		policies: map[string]*store.PolicySnapshot{},
	}
}

func (f *fakeStore) GetVisit(_ context.Context, id string) (*store.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) GetRatingSlip(_ context.Context, id string) (*store.RatingSlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slips[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) GetTablePolicy(_ context.Context, _, tableID string) (*store.PolicySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.policies[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) seatTaken(tableID, seat string) bool {
	for _, s := range f.slips {
		if s.Status == store.SlipOpen && s.TableID == tableID && s.Seat != nil && *s.Seat == seat {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateRatingSlip(_ context.Context, slip store.RatingSlip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slip.Seat != nil && f.seatTaken(slip.TableID, *slip.Seat) {
		return store.ErrOpenSeatConflict
	}
	cp := slip
	f.slips[slip.ID] = &cp
	return nil
}

func (f *fakeStore) CloseRatingSlip(_ context.Context, id string, finalAverageBet *decimal.Decimal, reason store.CloseReason) (*store.RatingSlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slips[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.Status != store.SlipOpen {
		return nil, store.ErrSlipNotOpen
	}
	s.Status = store.SlipClosed
	s.ClosedReason = &reason
	now := time.Now()
	s.EndedAt = &now
	if finalAverageBet != nil {
		s.AverageBet = *finalAverageBet
	}
	s.AccumulatedSeconds += int64(now.Sub(s.StartedAt) / time.Second)
	cp := *s
	return &cp, nil
}

func (f *fakeStore) SetRatingSlipAverageBet(_ context.Context, id string, averageBet decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slips[id]
	if !ok {
		return store.ErrNotFound
	}
	if s.Status != store.SlipOpen {
		return store.ErrSlipNotOpen
	}
	s.AverageBet = averageBet
	return nil
}

func (f *fakeStore) ListOpenSlipsByTable(_ context.Context, _, tableID string) ([]store.RatingSlip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.RatingSlip
	for _, s := range f.slips {
		if s.Status == store.SlipOpen && s.TableID == tableID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) SeatAvailable(_ context.Context, _, tableID, seat string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.seatTaken(tableID, seat), nil
}

type fakeCash struct {
	mu    sync.Mutex
	calls []decimal.Decimal
	err   error
}

func (f *fakeCash) RecordCashOut(_ context.Context, _ string, amount decimal.Decimal, _ time.Time) (compliance.Badge, compliance.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	f.calls = append(f.calls, amount)
	return compliance.BadgeNone, compliance.BadgeWatchlistNear, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	slipIDs []string
	full    bool
}

func (f *fakeDispatcher) Dispatch(_, slipID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.slipIDs = append(f.slipIDs, slipID)
	return true
}

func seedFixture(t *testing.T) (*fakeStore, *fakeCash, *fakeDispatcher, *Service) {
	t.Helper()
	fs := newFakeStore()
	playerID := "player-1"
	fs.visits["visit-1"] = &store.Visit{ID: "visit-1", PlayerID: &playerID}
	fs.visits["visit-ghost"] = &store.Visit{ID: "visit-ghost"}
	policy := store.PolicySnapshot{
		HouseEdge:        decimal.RequireFromString("0.01"),
		DecisionsPerHour: 70,
		PointConversion:  decimal.RequireFromString("10"),
	}
	fs.policies["bj-01"] = &policy
	fs.policies["bj-02"] = &policy
	cash := &fakeCash{}
	disp := &fakeDispatcher{}
	return fs, cash, disp, NewService(fs, cash, disp, "main")
}

func openSlip(t *testing.T, svc *Service, visitID, tableID, seat string) *store.RatingSlip {
	t.Helper()
	var seatPtr *string
	if seat != "" {
		seatPtr = &seat
	}
	slip, err := svc.Open(context.Background(), OpenParams{
		VisitID:    visitID,
		TableID:    tableID,
		Seat:       seatPtr,
		AverageBet: decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatalf("open slip: %v", err)
	}
	return slip
}

func TestOpenRejectsOccupiedSeat(t *testing.T) {
	_, _, _, svc := seedFixture(t)
	openSlip(t, svc, "visit-1", "bj-01", "3")

	_, err := svc.Open(context.Background(), OpenParams{
		VisitID:    "visit-ghost",
		TableID:    "bj-01",
		Seat:       strPtr("3"),
		AverageBet: decimal.Zero,
	})
	if !errors.Is(err, ErrSeatOccupied) {
		t.Fatalf("err = %v, want ErrSeatOccupied", err)
	}
}

func TestOpenUnknownVisitAndTable(t *testing.T) {
	_, _, _, svc := seedFixture(t)

	if _, err := svc.Open(context.Background(), OpenParams{VisitID: "nope", TableID: "bj-01"}); !errors.Is(err, ErrVisitNotFound) {
		t.Fatalf("unknown visit: err = %v, want ErrVisitNotFound", err)
	}
	if _, err := svc.Open(context.Background(), OpenParams{VisitID: "visit-1", TableID: "nope"}); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("unknown table: err = %v, want ErrTableNotFound", err)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	_, _, disp, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "1")

	res, err := svc.CloseWithSettlement(context.Background(), slip.ID, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Slip.Status != store.SlipClosed || res.Slip.ClosedReason == nil || *res.Slip.ClosedReason != store.CloseSettled {
		t.Fatalf("closed slip = %+v, want settled close", res.Slip)
	}
	if len(disp.slipIDs) != 1 || disp.slipIDs[0] != slip.ID {
		t.Fatalf("dispatched = %v, want exactly [%s]", disp.slipIDs, slip.ID)
	}

	if _, err := svc.CloseWithSettlement(context.Background(), slip.ID, decimal.Zero, nil); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("second close: err = %v, want ErrAlreadyClosed", err)
	}
	if err := svc.SetAverageBet(context.Background(), slip.ID, decimal.RequireFromString("50")); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("update after close: err = %v, want ErrAlreadyClosed", err)
	}
}

func TestRetriedCloseRecordsNoSecondObservation(t *testing.T) {
	_, cash, disp, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "1")

	cashOut := decimal.RequireFromString("500")
	if _, err := svc.CloseWithSettlement(context.Background(), slip.ID, cashOut, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(cash.calls) != 1 {
		t.Fatalf("cash observations = %d, want 1", len(cash.calls))
	}

	// A retry of the identical call must leave the observation and
	// accrual state exactly as the first call left it.
	if _, err := svc.CloseWithSettlement(context.Background(), slip.ID, cashOut, nil); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("retried close: err = %v, want ErrAlreadyClosed", err)
	}
	if len(cash.calls) != 1 {
		t.Fatalf("cash observations after retry = %d, want 1", len(cash.calls))
	}
	if len(disp.slipIDs) != 1 {
		t.Fatalf("dispatches after retry = %d, want 1", len(disp.slipIDs))
	}
}

func TestCloseCashFailureDoesNotBlock(t *testing.T) {
	_, cash, disp, svc := seedFixture(t)
	cash.err = errors.New("cage offline")
	slip := openSlip(t, svc, "visit-1", "bj-01", "1")

	res, err := svc.CloseWithSettlement(context.Background(), slip.ID, decimal.RequireFromString("500"), nil)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Slip.Status != store.SlipClosed {
		t.Fatal("slip not closed despite cash failure")
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "cash_observation_failed" {
		t.Fatalf("warnings = %v, want [cash_observation_failed]", res.Warnings)
	}
	if len(disp.slipIDs) != 1 {
		t.Fatalf("accrual dispatched %d times, want 1", len(disp.slipIDs))
	}
}

func TestCloseGhostVisitSkipsCashAndAccrual(t *testing.T) {
	_, cash, disp, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-ghost", "bj-01", "1")

	res, err := svc.CloseWithSettlement(context.Background(), slip.ID, decimal.RequireFromString("5000"), nil)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(cash.calls) != 0 {
		t.Fatalf("cash recorded for ghost visit: %v", cash.calls)
	}
	if len(disp.slipIDs) != 0 {
		t.Fatalf("accrual dispatched for ghost visit: %v", disp.slipIDs)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", res.Warnings)
	}
}

func TestMoveClosesSourceAndLinksSuccessor(t *testing.T) {
	fs, _, disp, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")

	res, err := svc.MovePlayer(context.Background(), MoveParams{
		SlipID:      slip.ID,
		DestTableID: "bj-02",
		DestSeat:    "5",
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	src := fs.slips[slip.ID]
	if src.Status != store.SlipClosed || *src.ClosedReason != store.CloseMoved {
		t.Fatalf("source = %+v, want moved close", src)
	}
	if res.NewSlip.VisitID != slip.VisitID {
		t.Fatalf("successor visit = %s, want %s", res.NewSlip.VisitID, slip.VisitID)
	}
	if res.NewSlip.PreviousSlipID == nil || *res.NewSlip.PreviousSlipID != slip.ID {
		t.Fatal("successor not linked to source")
	}
	if res.NewSlip.MoveGroupID == nil || *res.NewSlip.MoveGroupID != res.MoveGroupID {
		t.Fatal("move group not stamped on successor")
	}
	if len(disp.slipIDs) != 1 || disp.slipIDs[0] != slip.ID {
		t.Fatalf("dispatched = %v, want accrual for source %s", disp.slipIDs, slip.ID)
	}
}

func TestMoveChainKeepsOneGroup(t *testing.T) {
	_, _, _, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")

	first, err := svc.MovePlayer(context.Background(), MoveParams{SlipID: slip.ID, DestTableID: "bj-02", DestSeat: "5"})
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	second, err := svc.MovePlayer(context.Background(), MoveParams{SlipID: first.NewSlip.ID, DestTableID: "bj-01", DestSeat: "4"})
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if second.MoveGroupID != first.MoveGroupID {
		t.Fatalf("group %s changed to %s across chain", first.MoveGroupID, second.MoveGroupID)
	}
}

func TestMoveToOccupiedSeatLeavesSourceClosed(t *testing.T) {
	fs, _, disp, svc := seedFixture(t)
	blocker := openSlip(t, svc, "visit-ghost", "bj-02", "5")
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")
	_ = blocker

	_, err := svc.MovePlayer(context.Background(), MoveParams{SlipID: slip.ID, DestTableID: "bj-02", DestSeat: "5"})
	if !errors.Is(err, ErrSeatOccupied) {
		t.Fatalf("err = %v, want ErrSeatOccupied", err)
	}
	// Pre-check caught it, so the source must be untouched.
	if fs.slips[slip.ID].Status != store.SlipOpen {
		t.Fatal("source closed by a rejected move")
	}
	if len(disp.slipIDs) != 0 {
		t.Fatalf("accrual dispatched for a rejected move: %v", disp.slipIDs)
	}
}

func TestMoveInsertRaceDispatchesAccrualAnyway(t *testing.T) {
	fs, _, disp, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")

	// Seat looked free at pre-check, taken by insert time. Simulated by
	// making the insert fail while SeatAvailable reported free: occupy
	// the seat between the two through a racing goroutine-free shim.
	raced := &racingStore{fakeStore: fs, occupyAfterCheck: func() {
		ghost := openSlip(t, svc, "visit-ghost", "bj-02", "5")
		_ = ghost
	}}
	svcRaced := NewService(raced, &fakeCash{}, disp, "main")

	_, err := svcRaced.MovePlayer(context.Background(), MoveParams{SlipID: slip.ID, DestTableID: "bj-02", DestSeat: "5"})
	if !errors.Is(err, ErrSeatOccupied) {
		t.Fatalf("err = %v, want ErrSeatOccupied", err)
	}
	if fs.slips[slip.ID].Status != store.SlipClosed {
		t.Fatal("source should stay closed after losing the insert race")
	}
	found := false
	for _, id := range disp.slipIDs {
		if id == slip.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("accrual for closed source not dispatched; got %v", disp.slipIDs)
	}
}

func TestMoveSameSeatProducesNewSlip(t *testing.T) {
	_, _, _, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")

	res, err := svc.MovePlayer(context.Background(), MoveParams{SlipID: slip.ID, DestTableID: "bj-01", DestSeat: "2"})
	if err != nil {
		t.Fatalf("same-seat move: %v", err)
	}
	if res.NewSlip.ID == slip.ID {
		t.Fatal("same-seat move reused the source row")
	}
	if *res.NewSlip.Seat != "2" || res.NewSlip.TableID != "bj-01" {
		t.Fatalf("successor at %s/%v, want bj-01/2", res.NewSlip.TableID, res.NewSlip.Seat)
	}
}

func TestMoveClosedSlipRejected(t *testing.T) {
	_, _, _, svc := seedFixture(t)
	slip := openSlip(t, svc, "visit-1", "bj-01", "2")
	if _, err := svc.CloseWithSettlement(context.Background(), slip.ID, decimal.Zero, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := svc.MovePlayer(context.Background(), MoveParams{SlipID: slip.ID, DestTableID: "bj-02", DestSeat: "5"})
	if !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("err = %v, want ErrAlreadyClosed", err)
	}
}

// racingStore reports the destination seat free, then occupies it before
// the successor insert runs.
type racingStore struct {
	*fakeStore
	occupyAfterCheck func()
	once             sync.Once
}

func (r *racingStore) SeatAvailable(ctx context.Context, casinoID, tableID, seat string) (bool, error) {
	free, err := r.fakeStore.SeatAvailable(ctx, casinoID, tableID, seat)
	if free {
		r.once.Do(r.occupyAfterCheck)
	}
	return free, err
}

func strPtr(s string) *string { return &s }
