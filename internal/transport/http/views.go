package httptransport

import (
	"time"

	"pitboss/internal/store"

	"github.com/shopspring/decimal"
)

type policyView struct {
	HouseEdge        decimal.Decimal `json:"house_edge"`
	DecisionsPerHour int             `json:"decisions_per_hour"`
	PointConversion  decimal.Decimal `json:"point_conversion"`
}

type slipView struct {
	ID                 string          `json:"id"`
	VisitID            string          `json:"visit_id"`
	TableID            string          `json:"table_id"`
	Seat               *string         `json:"seat,omitempty"`
	Status             string          `json:"status"`
	ClosedReason       *string         `json:"closed_reason,omitempty"`
	AverageBet         decimal.Decimal `json:"average_bet"`
	StartedAt          time.Time       `json:"started_at"`
	EndedAt            *time.Time      `json:"ended_at,omitempty"`
	PreviousSlipID     *string         `json:"previous_slip_id,omitempty"`
	MoveGroupID        *string         `json:"move_group_id,omitempty"`
	AccumulatedSeconds int64           `json:"accumulated_seconds"`
	Policy             policyView      `json:"policy"`
}

func slipToView(s *store.RatingSlip) slipView {
	v := slipView{
		ID:                 s.ID,
		VisitID:            s.VisitID,
		TableID:            s.TableID,
		Seat:               s.Seat,
		Status:             string(s.Status),
		AverageBet:         s.AverageBet,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		PreviousSlipID:     s.PreviousSlipID,
		MoveGroupID:        s.MoveGroupID,
		AccumulatedSeconds: s.AccumulatedSeconds,
		Policy: policyView{
			HouseEdge:        s.Policy.HouseEdge,
			DecisionsPerHour: s.Policy.DecisionsPerHour,
			PointConversion:  s.Policy.PointConversion,
		},
	}
	if s.ClosedReason != nil {
		reason := string(*s.ClosedReason)
		v.ClosedReason = &reason
	}
	return v
}

func slipsToViews(slips []store.RatingSlip) []slipView {
	out := make([]slipView, 0, len(slips))
	for i := range slips {
		out = append(out, slipToView(&slips[i]))
	}
	return out
}

type tableView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

func tablesToViews(tables []store.GamingTable) []tableView {
	out := make([]tableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableView{ID: t.ID, Name: t.Name, GameCode: t.GameCode})
	}
	return out
}

type summaryView struct {
	PlayerID     string          `json:"player_id"`
	GamingDay    string          `json:"gaming_day"`
	CashInTotal  decimal.Decimal `json:"cash_in_total"`
	CashOutTotal decimal.Decimal `json:"cash_out_total"`
	InCount      int             `json:"in_count"`
	OutCount     int             `json:"out_count"`
	BadgeIn      string          `json:"badge_in"`
	BadgeOut     string          `json:"badge_out"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func summaryToView(s *store.GamingDaySummary) summaryView {
	return summaryView{
		PlayerID:     s.PlayerID,
		GamingDay:    s.GamingDay,
		CashInTotal:  s.CashInTotal,
		CashOutTotal: s.CashOutTotal,
		InCount:      s.InCount,
		OutCount:     s.OutCount,
		BadgeIn:      string(s.BadgeIn),
		BadgeOut:     string(s.BadgeOut),
		UpdatedAt:    s.UpdatedAt,
	}
}

type complianceEntryView struct {
	ID        string          `json:"id"`
	PlayerID  string          `json:"player_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	TxCode    string          `json:"tx_code"`
	GamingDay string          `json:"gaming_day"`
	CreatedAt time.Time       `json:"created_at"`
}

func complianceEntriesToViews(entries []store.ComplianceEntry) []complianceEntryView {
	out := make([]complianceEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, complianceEntryView{
			ID:        e.ID,
			PlayerID:  e.PlayerID,
			Direction: string(e.Direction),
			Amount:    e.Amount,
			TxCode:    e.TxCode,
			GamingDay: e.GamingDay,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

type loyaltyEntryView struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"player_id"`
	RatingSlipID *string   `json:"rating_slip_id,omitempty"`
	Points       int64     `json:"points"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

func loyaltyEntriesToViews(entries []store.LoyaltyLedgerEntry) []loyaltyEntryView {
	out := make([]loyaltyEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, loyaltyEntryView{
			ID:           e.ID,
			PlayerID:     e.PlayerID,
			RatingSlipID: e.RatingSlipID,
			Points:       e.Points,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
