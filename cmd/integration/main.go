package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/quantrail/stratforge/internal/config"
	"github.com/quantrail/stratforge/internal/models"
)

// client wraps the HTTP plumbing shared by every check.
type client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

func main() {
	fmt.Println("=== Strategy Builder - End-to-End Integration Test ===")
	fmt.Println()

	var configPath, baseURL string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&baseURL, "url", "", "Base URL of a running service (default: localhost + config port)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	logger := log.New(os.Stdout, "[E2E] ", log.LstdFlags)

	c := &client{
		baseURL: baseURL,
		token:   cfg.Server.AuthToken,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}

	logger.Printf("Target: %s", baseURL)
	fmt.Println()

	runIntegrationTests(c)
}

func runIntegrationTests(c *client) {
	testsPassed := 0
	totalTests := 7

	// A draft created in test 4 threads through tests 5-7.
	var draftID string

	run := func(name string, check func() bool) {
		fmt.Println(name)
		for range name {
			fmt.Print("=")
		}
		fmt.Println()
		if check() {
			testsPassed++
			fmt.Println("PASSED")
		} else {
			fmt.Println("FAILED")
		}
		fmt.Println()
	}

	run("Test 1: Service Health", func() bool {
		return testHealth(c)
	})
	run("Test 2: Strike Ladders", func() bool {
		return testLadders(c)
	})
	run("Test 3: Index Table", func() bool {
		return testIndices(c)
	})
	run("Test 4: Draft Lifecycle", func() bool {
		id, ok := testDraftLifecycle(c)
		draftID = id
		return ok
	})
	run("Test 5: Leg Editing", func() bool {
		return testLegEditing(c, draftID)
	})
	run("Test 6: Risk Dependencies", func() bool {
		return testRiskDependencies(c, draftID)
	})
	run("Test 7: Wizard Walk", func() bool {
		return testWizardWalk(c, draftID)
	})

	// Always try to remove the working draft, even after failures.
	if draftID != "" {
		if _, _, err := c.do(http.MethodDelete, "/api/drafts/"+draftID, nil); err != nil {
			c.logger.Printf("cleanup of draft %s failed: %v", draftID, err)
		}
	}

	fmt.Println("=== Integration Test Results ===")
	fmt.Printf("Tests Passed: %d/%d\n", testsPassed, totalTests)
	if testsPassed == totalTests {
		fmt.Println("All checks passed - service is healthy")
	} else {
		fmt.Printf("%d check(s) failed - review before deploying\n", totalTests-testsPassed)
		os.Exit(1)
	}
}

// do sends one request and returns the parsed status plus raw body.
func (c *client) do(method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

// expect sends a request, checks the status code, and decodes the body
// into out when out is non-nil.
func (c *client) expect(method, path string, body any, wantStatus int, out any) bool {
	resp, data, err := c.do(method, path, body)
	if err != nil {
		c.logger.Printf("%s %s failed: %v", method, path, err)
		return false
	}
	if resp.StatusCode != wantStatus {
		c.logger.Printf("%s %s: status %d, want %d (body: %s)", method, path, resp.StatusCode, wantStatus, data)
		return false
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.logger.Printf("%s %s: decoding response: %v", method, path, err)
			return false
		}
	}
	return true
}

func testHealth(c *client) bool {
	return c.expect(http.MethodGet, "/health", nil, http.StatusOK, nil)
}

func testLadders(c *client) bool {
	var ladder struct {
		Method  models.SelectionMethod `json:"method"`
		Entries []models.LadderEntry   `json:"entries"`
	}
	if !c.expect(http.MethodGet, "/api/ladders/ATM_POINTS", nil, http.StatusOK, &ladder) {
		return false
	}
	if len(ladder.Entries) != 41 {
		c.logger.Printf("ATM_POINTS ladder has %d entries, want 41", len(ladder.Entries))
		return false
	}
	if mid := ladder.Entries[20]; mid.Label != models.ATMLabel {
		c.logger.Printf("ladder center is %q, want ATM", mid.Label)
		return false
	}
	c.logger.Printf("ATM_POINTS ladder: %d entries, %s .. %s",
		len(ladder.Entries), ladder.Entries[0].Label, ladder.Entries[len(ladder.Entries)-1].Label)

	if !c.expect(http.MethodGet, "/api/ladders/CLOSEST_PREMIUM", nil, http.StatusOK, &ladder) {
		return false
	}
	if len(ladder.Entries) != 0 {
		c.logger.Printf("CLOSEST_PREMIUM ladder has %d entries, want none", len(ladder.Entries))
		return false
	}

	// Unknown methods must be refused, not defaulted.
	return c.expect(http.MethodGet, "/api/ladders/FIBONACCI", nil, http.StatusBadRequest, nil)
}

func testIndices(c *client) bool {
	var indices []struct {
		Symbol              models.IndexSymbol `json:"symbol"`
		LotSize             int                `json:"lot_size"`
		StrikeStep          float64            `json:"strike_step"`
		IndicativeATMStrike float64            `json:"indicative_atm_strike"`
	}
	if !c.expect(http.MethodGet, "/api/indices", nil, http.StatusOK, &indices) {
		return false
	}
	if len(indices) == 0 {
		c.logger.Printf("index table is empty")
		return false
	}
	for _, idx := range indices {
		if idx.LotSize <= 0 || idx.StrikeStep <= 0 {
			c.logger.Printf("%s has lot size %d, strike step %.2f", idx.Symbol, idx.LotSize, idx.StrikeStep)
			return false
		}
		if rem := math.Mod(idx.IndicativeATMStrike, idx.StrikeStep); rem != 0 {
			c.logger.Printf("%s indicative ATM %.2f is off the %.2f strike grid",
				idx.Symbol, idx.IndicativeATMStrike, idx.StrikeStep)
			return false
		}
		c.logger.Printf("%s: lot %d, step %.0f, ATM %.0f",
			idx.Symbol, idx.LotSize, idx.StrikeStep, idx.IndicativeATMStrike)
	}
	return true
}

func testDraftLifecycle(c *client) (string, bool) {
	var draft models.Draft
	create := map[string]string{"name": "E2E Strangle", "index": "BANKNIFTY", "expiry": "WEEKLY"}
	if !c.expect(http.MethodPost, "/api/drafts", create, http.StatusCreated, &draft) {
		return "", false
	}
	if draft.ID == "" {
		c.logger.Printf("created draft has no id")
		return "", false
	}
	c.logger.Printf("Created draft %s", draft.ID)

	patch := map[string]any{"name": "E2E Strangle (renamed)"}
	if !c.expect(http.MethodPatch, "/api/drafts/"+draft.ID, patch, http.StatusOK, &draft) {
		return draft.ID, false
	}

	var loaded models.Draft
	if !c.expect(http.MethodGet, "/api/drafts/"+draft.ID, nil, http.StatusOK, &loaded) {
		return draft.ID, false
	}
	if loaded.Strategy.Name != "E2E Strangle (renamed)" {
		c.logger.Printf("patched name did not persist: %q", loaded.Strategy.Name)
		return draft.ID, false
	}
	if loaded.Strategy.Index != models.IndexBankNifty {
		c.logger.Printf("draft index is %s, want BANKNIFTY", loaded.Strategy.Index)
		return draft.ID, false
	}
	return draft.ID, true
}

func testLegEditing(c *client, draftID string) bool {
	if draftID == "" {
		c.logger.Printf("no working draft, skipping")
		return false
	}
	base := "/api/drafts/" + draftID

	// Every mutation returns the full draft.
	var draft models.Draft
	if !c.expect(http.MethodPost, base+"/legs", nil, http.StatusCreated, &draft) {
		return false
	}
	if len(draft.Strategy.Legs) != 1 {
		c.logger.Printf("draft has %d legs after add, want 1", len(draft.Strategy.Legs))
		return false
	}
	leg := draft.Strategy.Legs[0]
	c.logger.Printf("Added leg %s (%s %s)", leg.ID, leg.Action, leg.OptionType)

	patch := map[string]any{"option_type": "PUT", "action": "SELL", "lots": 2}
	if !c.expect(http.MethodPatch, base+"/legs/"+leg.ID, patch, http.StatusOK, &draft) {
		return false
	}
	leg = draft.Strategy.Legs[0]
	if leg.OptionType != models.OptionTypePut || leg.Action != models.ActionSell || leg.Lots != 2 {
		c.logger.Printf("leg patch did not stick: %s %s x%d", leg.Action, leg.OptionType, leg.Lots)
		return false
	}

	if !c.expect(http.MethodPost, base+"/legs/"+leg.ID+"/copy", nil, http.StatusCreated, &draft) {
		return false
	}
	if len(draft.Strategy.Legs) != 2 {
		c.logger.Printf("draft has %d legs after copy, want 2", len(draft.Strategy.Legs))
		return false
	}
	var twin models.Leg
	for _, l := range draft.Strategy.Legs {
		if l.ID != leg.ID {
			twin = l
		}
	}
	if twin.ID == "" {
		c.logger.Printf("copied leg kept the original id")
		return false
	}
	if twin.Lots != leg.Lots || twin.OptionType != leg.OptionType {
		c.logger.Printf("copied leg diverged from the original")
		return false
	}
	c.logger.Printf("Copied leg %s -> %s", leg.ID, twin.ID)

	if !c.expect(http.MethodDelete, base+"/legs/"+twin.ID, nil, http.StatusOK, &draft) {
		return false
	}
	if len(draft.Strategy.Legs) != 1 {
		c.logger.Printf("draft has %d legs after delete, want 1", len(draft.Strategy.Legs))
		return false
	}
	return true
}

func testRiskDependencies(c *client, draftID string) bool {
	if draftID == "" {
		c.logger.Printf("no working draft, skipping")
		return false
	}
	var draft models.Draft
	if !c.expect(http.MethodGet, "/api/drafts/"+draftID, nil, http.StatusOK, &draft) {
		return false
	}
	if len(draft.Strategy.Legs) == 0 {
		c.logger.Printf("draft has no legs to configure")
		return false
	}
	risk := "/api/drafts/" + draftID + "/legs/" + draft.Strategy.Legs[0].ID + "/risk/"

	// Dependent toggles must be refused until their prerequisite is on.
	tsl := map[string]any{"kind": "POINTS", "instrument_move_value": 50, "stop_loss_move_value": 25, "enabled": true}
	if !c.expect(http.MethodPut, risk+"trailing-stop-loss", tsl, http.StatusConflict, nil) {
		return false
	}
	c.logger.Printf("Trailing stop without stop loss correctly refused")

	sl := map[string]any{"kind": "PERCENTAGE", "value": 30, "enabled": true}
	if !c.expect(http.MethodPut, risk+"stop-loss", sl, http.StatusOK, nil) {
		return false
	}
	if !c.expect(http.MethodPut, risk+"trailing-stop-loss", tsl, http.StatusOK, nil) {
		return false
	}

	reExec := map[string]any{"kind": "TP_REEXEC", "count": 2, "enabled": true}
	if !c.expect(http.MethodPut, risk+"re-execute", reExec, http.StatusConflict, nil) {
		return false
	}
	c.logger.Printf("Re-execute without target profit correctly refused")

	tp := map[string]any{"kind": "PERCENTAGE", "value": 60, "enabled": true}
	if !c.expect(http.MethodPut, risk+"target-profit", tp, http.StatusOK, nil) {
		return false
	}
	if !c.expect(http.MethodPut, risk+"re-execute", reExec, http.StatusOK, nil) {
		return false
	}
	c.logger.Printf("Full risk block configured")
	return true
}

func testWizardWalk(c *client, draftID string) bool {
	if draftID == "" {
		c.logger.Printf("no working draft, skipping")
		return false
	}
	base := "/api/drafts/" + draftID

	var draft models.Draft
	if !c.expect(http.MethodPost, base+"/advance", nil, http.StatusOK, &draft) {
		return false
	}
	if !c.expect(http.MethodPost, base+"/advance", nil, http.StatusOK, &draft) {
		return false
	}
	if draft.State != models.WizardStatePreview {
		c.logger.Printf("draft is on %s after two advances, want preview", draft.State)
		return false
	}

	var blockers struct {
		Submittable bool     `json:"submittable"`
		Blockers    []string `json:"blockers"`
	}
	if !c.expect(http.MethodGet, base+"/blockers", nil, http.StatusOK, &blockers) {
		return false
	}
	if !blockers.Submittable {
		c.logger.Printf("draft not submittable: %v", blockers.Blockers)
		return false
	}
	c.logger.Printf("Draft is submittable from preview")

	if !c.expect(http.MethodPost, base+"/back", nil, http.StatusOK, &draft) {
		return false
	}
	if draft.State != models.WizardStateLegs {
		c.logger.Printf("draft is on %s after back, want legs", draft.State)
		return false
	}
	if !c.expect(http.MethodPost, base+"/advance", nil, http.StatusOK, &draft) {
		return false
	}

	// Submission is left to a live order service; cancel instead.
	if !c.expect(http.MethodDelete, base, nil, http.StatusNoContent, nil) {
		return false
	}
	return c.expect(http.MethodGet, base, nil, http.StatusNotFound, nil)
}
