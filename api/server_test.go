package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"

	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/logging"
	"github.com/seenimoa/stockpulse/internal/session"
	"github.com/seenimoa/stockpulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	switch query {
	case "BAD":
		return nil, &models.ServiceError{Message: "Ticker not found for this company"}
	case "DOWN":
		return nil, context.DeadlineExceeded
	case "SLOW":
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &models.AnalysisResult{
		Ticker:            query,
		CompanyName:       "Tata Consultancy Services",
		LatestPrice:       4012.5,
		LSTMTrend:         "Bullish (Heuristic)",
		UnifiedAlphaScore: 73,
		Recommendation:    "BUY",
		Indicators:        models.Indicators{RSI: 82, SMA50: 4000, EMA20: 4005, MACD: 1.2},
		ClaudeSummary:     "Momentum intact.",
		KeyHeadlines: []models.Headline{
			{Title: "First", Link: "https://example.com/1", SentimentImpact: "Positive"},
			{Title: "Second", Link: "https://example.com/2"},
			{Title: "Third", Link: "https://example.com/3"},
		},
		Peers: []models.Peer{
			{Ticker: "INFY.NS", ChangePct: 0},
			{Ticker: "WIPRO.NS", ChangePct: -0.01},
		},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{Host: "127.0.0.1", Port: 3000},
		UI: config.UIConfig{
			ScrollDelayMS: 10,
			Presets: []config.Preset{
				{Name: "Reliance Industries", Ticker: "RELIANCE.NS", Description: "High-cap volatility & neural momentum."},
				{Name: "TCS", Ticker: "TCS.NS", Description: "Blue-chip stability & relative valuation."},
			},
		},
	}
}

func testServer(t *testing.T) (*Server, *session.Controller) {
	t.Helper()
	ctrl := session.NewController(stubAnalyzer{},
		session.WithLogger(logging.Discard()),
		session.WithScrollDelay(10*time.Millisecond),
		session.WithTimeout(2*time.Second),
	)
	t.Cleanup(ctrl.Close)

	srv, err := NewServer(testConfig(), ctrl, logging.Discard())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, ctrl
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// decodeData re-decodes resp.Data into v.
func decodeData(t *testing.T, resp APIResponse, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func waitTerminal(t *testing.T, ctrl *session.Controller) session.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := ctrl.State()
		if st.Status.Terminal() {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("state still %v", st.Status)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ════════════════════════════════════════════════════════════════════
// Health / Presets / Config
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		data, ok := resp.Data.(map[string]interface{})
		if !resp.Success || !ok {
			t.Fatalf("%s: unexpected body %+v", path, resp)
		}
		if data["status"] != "ok" || data["session"] != "idle" {
			t.Errorf("%s: got %v", path, data)
		}
	}
}

func TestHandlePresets(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/presets", "")
	var presets []config.Preset
	decodeData(t, decodeResponse(t, rec), &presets)

	if len(presets) != 2 || presets[0].Ticker != "RELIANCE.NS" || presets[1].Ticker != "TCS.NS" {
		t.Errorf("presets: got %+v", presets)
	}
}

func TestHandleGetConfig(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/config", "")
	var cr struct {
		Config   config.Config          `json:"config"`
		Settings []config.SettingStatus `json:"settings"`
	}
	decodeData(t, decodeResponse(t, rec), &cr)
	if cr.Config.API.Port != 3000 {
		t.Errorf("config api.port: got %d", cr.Config.API.Port)
	}
	if len(cr.Settings) == 0 {
		t.Error("settings missing")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/config/settings", "")
	if rec.Code != http.StatusOK {
		t.Errorf("settings: got %d", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Analyze / Query / State
// ════════════════════════════════════════════════════════════════════

func TestHandleAnalyzeSuccess(t *testing.T) {
	srv, ctrl := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", `{"company_name":" TCS.NS "}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}
	var ar AnalyzeResponse
	decodeData(t, decodeResponse(t, rec), &ar)
	if !ar.Accepted || ar.Submission == nil || ar.Submission.Ticker != "TCS.NS" {
		t.Errorf("analyze response: got %+v", ar)
	}

	st := waitTerminal(t, ctrl)
	if st.Status != session.Succeeded {
		t.Fatalf("final state: got %v", st.Status)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/state", "")
	var sr StateResponse
	decodeData(t, decodeResponse(t, rec), &sr)
	if sr.Dashboard == nil {
		t.Fatal("state response missing dashboard")
	}
	if sr.Dashboard.Symbol != "TCS" || sr.Dashboard.GaugeFraction != 0.73 {
		t.Errorf("dashboard: got symbol %q fraction %v", sr.Dashboard.Symbol, sr.Dashboard.GaugeFraction)
	}
}

func TestHandleAnalyzeBlankIsIgnored(t *testing.T) {
	srv, ctrl := testServer(t)

	for _, body := range []string{"", `{}`, `{"company_name":"   "}`} {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: got %d, want 200", body, rec.Code)
		}
		var ar AnalyzeResponse
		decodeData(t, decodeResponse(t, rec), &ar)
		if ar.Accepted {
			t.Errorf("body %q: blank submission accepted", body)
		}
	}
	if st := ctrl.State(); st.Status != session.Idle {
		t.Errorf("state: got %v, want idle", st.Status)
	}
}

func TestHandleAnalyzeUsesHeldQuery(t *testing.T) {
	srv, ctrl := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/query", `{"query":"RELIANCE.NS"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put query: got %d", rec.Code)
	}
	if ctrl.Query() != "RELIANCE.NS" {
		t.Errorf("held query: got %q", ctrl.Query())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/analyze", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("analyze: got %d, want 202", rec.Code)
	}
	if st := waitTerminal(t, ctrl); st.Ticker != "RELIANCE.NS" {
		t.Errorf("ticker: got %q", st.Ticker)
	}
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success || resp.Error == "" {
		t.Errorf("body: got %+v", resp)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/query", `[`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("query status: got %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Page / Fragment
// ════════════════════════════════════════════════════════════════════

func TestIndexPage(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}

	doc := parseHTML(t, rec)
	var tickers []string
	doc.Find(".preset").Each(func(_ int, s *goquery.Selection) {
		tickers = append(tickers, s.AttrOr("data-ticker", ""))
	})
	if strings.Join(tickers, ",") != "RELIANCE.NS,TCS.NS" {
		t.Errorf("preset tickers: got %v", tickers)
	}
	if doc.Find("#query-input").Length() != 1 {
		t.Error("query input missing")
	}
	if doc.Find(`[data-action="focus-query"]`).Length() != 1 {
		t.Error("focus-query action missing")
	}
	if got := doc.Find("#results [data-status]").AttrOr("data-status", ""); got != "idle" {
		t.Errorf("results status: got %q, want idle", got)
	}
}

func TestResultsFragmentSucceeded(t *testing.T) {
	srv, ctrl := testServer(t)

	ctrl.Submit("TCS.NS")
	waitTerminal(t, ctrl)

	doc := parseHTML(t, doRequest(t, srv, http.MethodGet, "/fragment/results", ""))

	if got := strings.TrimSpace(doc.Find(".ticker-title").Text()); got != "TCS / NSE" {
		t.Errorf("ticker title: got %q", got)
	}
	if !doc.Find(".trend").HasClass("trend-positive") {
		t.Error("trend should be positive")
	}
	if !doc.Find(".recommendation-badge").HasClass("buy") {
		t.Error("recommendation badge should have the buy variant")
	}
	if doc.Find(".stat-box.rsi-overbought").Length() != 1 {
		t.Error("RSI 82 should render overbought")
	}
	if got := doc.Find(".gauge-fill").AttrOr("stroke-dashoffset", ""); got != "76.41" {
		t.Errorf("gauge offset: got %q, want 76.41", got)
	}

	var titles []string
	doc.Find(".headline-card a").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	if strings.Join(titles, ",") != "First,Second,Third" {
		t.Errorf("headline order: got %v", titles)
	}
	if n := doc.Find(".headline-card .impact").Length(); n != 1 {
		t.Errorf("impact badges: got %d, want 1", n)
	}

	var signs []string
	doc.Find(".peer-change").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("positive") {
			signs = append(signs, "positive")
		} else {
			signs = append(signs, "negative")
		}
	})
	if strings.Join(signs, ",") != "positive,negative" {
		t.Errorf("peer signs: got %v", signs)
	}
	if !strings.Contains(doc.Find(".peer-footnote").Text(), "against 2 major industry rivals") {
		t.Errorf("footnote: got %q", doc.Find(".peer-footnote").Text())
	}
}

func TestResultsFragmentFailures(t *testing.T) {
	tests := []struct {
		ticker      string
		wantMessage string
		wantFailure string
	}{
		{"BAD", "Ticker not found for this company", "server_reported"},
		{"DOWN", session.UnreachableMessage, "service_unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			srv, ctrl := testServer(t)
			ctrl.Submit(tt.ticker)
			waitTerminal(t, ctrl)

			doc := parseHTML(t, doRequest(t, srv, http.MethodGet, "/fragment/results", ""))
			errDiv := doc.Find(".status.error")
			if errDiv.Length() != 1 {
				t.Fatal("error panel missing")
			}
			if got := strings.TrimSpace(errDiv.Text()); got != tt.wantMessage {
				t.Errorf("message: got %q, want %q", got, tt.wantMessage)
			}
			if got := errDiv.AttrOr("data-failure", ""); got != tt.wantFailure {
				t.Errorf("failure kind: got %q, want %q", got, tt.wantFailure)
			}
			if doc.Find(".dashboard").Length() != 0 {
				t.Error("dashboard rendered for a failure")
			}
		})
	}
}

func TestResultsFragmentPending(t *testing.T) {
	srv, ctrl := testServer(t)
	ctrl.Submit("SLOW")

	doc := parseHTML(t, doRequest(t, srv, http.MethodGet, "/fragment/results", ""))
	if !strings.Contains(doc.Find(".status.pending").Text(), "Processing neural signals for SLOW") {
		t.Errorf("pending text: got %q", doc.Find(".status").Text())
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		if rec := doRequest(t, srv, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: got %d", path, rec.Code)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestWSHubBroadcast(t *testing.T) {
	hub := NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := &WSClient{hub: hub, send: make(chan WSMessage, 4)}
	if !hub.Register(client) {
		t.Fatal("Register failed")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount: got %d, want 1", hub.ClientCount())
	}

	hub.Broadcast(WSMessage{Type: "state_changed"})
	select {
	case msg := <-client.send:
		if msg.Type != "state_changed" {
			t.Errorf("type: got %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast not delivered")
	}

	cancel()
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel should be closed after hub stops")
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not close client on shutdown")
	}
	if hub.Register(&WSClient{hub: hub, send: make(chan WSMessage, 1)}) {
		t.Error("Register after stop should report false")
	}
}

func TestAttachClientSnapshotFollowsRegistration(t *testing.T) {
	srv, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.wsHub.Run(ctx)

	client := &WSClient{hub: srv.wsHub, send: make(chan WSMessage, 8)}
	if !srv.attachClient(client) {
		t.Fatal("attachClient failed")
	}
	if srv.wsHub.ClientCount() != 1 {
		t.Fatalf("ClientCount: got %d, want 1", srv.wsHub.ClientCount())
	}

	srv.wsHub.Broadcast(WSMessage{Type: "state_changed"})

	var types []string
	for len(types) < 2 {
		select {
		case msg := <-client.send:
			types = append(types, msg.Type)
		case <-time.After(time.Second):
			t.Fatalf("got %v, want state then state_changed", types)
		}
	}
	if types[0] != "state" || types[1] != "state_changed" {
		t.Errorf("message order: got %v", types)
	}
}

func TestWSHubSendToUnknownClient(t *testing.T) {
	hub := NewWSHub()
	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	if hub.SendTo(client, WSMessage{Type: "pong"}) {
		t.Error("SendTo unregistered client should report false")
	}
}

func TestWebSocketStreamsSessionEvents(t *testing.T) {
	srv, ctrl := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := ctrl.Subscribe(64)
	defer unsubscribe()
	go srv.wsHub.Run(ctx)
	go srv.relayEvents(ctx, events)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() WSMessage {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != "state" {
		t.Fatalf("first message: got %q, want state", msg.Type)
	}

	ctrl.Submit("TCS.NS")

	var types []string
	for len(types) < 3 {
		types = append(types, read().Type)
	}
	want := []string{"state_changed", "state_changed", "scroll_to_results"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("message types: got %v, want %v", types, want)
	}

	if err := conn.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := read(); msg.Type != "pong" {
		t.Errorf("ping reply: got %q, want pong", msg.Type)
	}
}
