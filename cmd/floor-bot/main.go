// floor-bot drives a pit session against a running floor-server: it
// registers a patron, rates a short session with a mid-session table
// move, settles with a cash-out, and prints the resulting points and
// compliance state. Useful for smoke-testing a fresh deployment.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type table struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

func main() {
	baseURL := getenv("FLOOR_URL", "http://localhost:8080")
	c := &client{base: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	var tablesResp struct {
		Items []table `json:"items"`
	}
	c.get("/api/tables", &tablesResp)
	if len(tablesResp.Items) < 2 {
		log.Fatal("need at least two tables; is the server seeded?")
	}

	var playerResp struct {
		PlayerID string `json:"player_id"`
	}
	c.post("/api/players", map[string]any{"name": fmt.Sprintf("bot-%d", rnd.Intn(10000))}, &playerResp)
	log.Printf("player %s", playerResp.PlayerID)

	var visitResp struct {
		VisitID string `json:"visit_id"`
	}
	c.post("/api/visits", map[string]any{"player_id": playerResp.PlayerID}, &visitResp)

	buyIn := 500 + rnd.Intn(5000)
	var cashResp struct {
		EntryBadge     string `json:"entry_badge"`
		AggregateBadge string `json:"aggregate_badge"`
	}
	c.post("/api/cash", map[string]any{
		"player_id": playerResp.PlayerID,
		"direction": "in",
		"amount":    fmt.Sprintf("%d", buyIn),
	}, &cashResp)
	log.Printf("buy-in $%d: entry=%s aggregate=%s", buyIn, cashResp.EntryBadge, cashResp.AggregateBadge)

	var openResp struct {
		Slip struct {
			ID string `json:"id"`
		} `json:"slip"`
	}
	c.post("/api/slips", map[string]any{
		"visit_id":    visitResp.VisitID,
		"table_id":    tablesResp.Items[0].ID,
		"seat":        "1",
		"average_bet": "25",
	}, &openResp)
	slipID := openResp.Slip.ID
	log.Printf("slip %s open at %s", slipID, tablesResp.Items[0].Name)

	time.Sleep(2 * time.Second)
	c.patch("/api/slips/"+slipID, map[string]any{"average_bet": "50"}, nil)

	var moveResp struct {
		Slip struct {
			ID string `json:"id"`
		} `json:"slip"`
		MoveGroupID string `json:"move_group_id"`
	}
	c.post("/api/slips/"+slipID+"/move", map[string]any{
		"table_id": tablesResp.Items[1].ID,
		"seat":     "1",
	}, &moveResp)
	slipID = moveResp.Slip.ID
	log.Printf("moved to %s, slip %s, group %s", tablesResp.Items[1].Name, slipID, moveResp.MoveGroupID)

	time.Sleep(2 * time.Second)
	var closeResp struct {
		Slip struct {
			AccumulatedSeconds int64 `json:"accumulated_seconds"`
		} `json:"slip"`
		Warnings []string `json:"warnings"`
	}
	c.post("/api/slips/"+slipID+"/close", map[string]any{"cash_out": fmt.Sprintf("%d", buyIn/2)}, &closeResp)
	log.Printf("settled after %ds (warnings: %v)", closeResp.Slip.AccumulatedSeconds, closeResp.Warnings)

	// Accrual is asynchronous; give the dispatcher a moment.
	time.Sleep(2 * time.Second)
	var pointsResp struct {
		Points int64 `json:"points"`
	}
	c.get("/api/players/"+playerResp.PlayerID+"/points", &pointsResp)

	var dayResp struct {
		Summary struct {
			CashInTotal  string `json:"cash_in_total"`
			CashOutTotal string `json:"cash_out_total"`
			BadgeIn      string `json:"badge_in"`
			BadgeOut     string `json:"badge_out"`
		} `json:"summary"`
	}
	c.get("/api/patrons/"+playerResp.PlayerID+"/day", &dayResp)
	log.Printf("points=%d day in=%s(%s) out=%s(%s)",
		pointsResp.Points,
		dayResp.Summary.CashInTotal, dayResp.Summary.BadgeIn,
		dayResp.Summary.CashOutTotal, dayResp.Summary.BadgeOut)
}

type client struct {
	base string
	http *http.Client
}

func (c *client) get(path string, out any) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		log.Fatalf("GET %s: %v", path, err)
	}
	c.decode(path, resp, out)
}

func (c *client) post(path string, body, out any) {
	c.send(http.MethodPost, path, body, out)
}

func (c *client) patch(path string, body, out any) {
	c.send(http.MethodPatch, path, body, out)
}

func (c *client) send(method, path string, body, out any) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("%s %s: marshal: %v", method, path, err)
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	c.decode(path, resp, out)
}

func (c *client) decode(path string, resp *http.Response, out any) {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		log.Fatalf("%s: HTTP %d (%s)", path, resp.StatusCode, errBody.Error)
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("%s: decode: %v", path, err)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
