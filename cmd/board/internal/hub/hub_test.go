package hub_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/board/internal/fps"
	"github.com/marketmock/ticker-board/cmd/board/internal/hub"
	"github.com/marketmock/ticker-board/cmd/board/internal/protocol"
	"github.com/marketmock/ticker-board/cmd/board/internal/testutils"
	"github.com/marketmock/ticker-board/pkg/render"
)

func setup() (*hub.Hub, *testutils.MockPriceStore) {
	store := testutils.NewMockStore()
	renderer := render.NewRowRenderer(0)
	gauge := fps.NewGauge(fps.SystemClock{})
	return hub.NewHub(store, renderer, gauge, zap.NewNop()), store
}

var validTickers = map[string]bool{"AAAA": true, "AAAB": true, "AAAC": true}

func TestHub_Subscribe_Success(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")

	req := protocol.WSRequest{
		Action:  "subscribe",
		Payload: protocol.RequestPayload{Symbols: []string{"AAAA"}},
		ID:      "req-1",
	}

	h.HandleCommand(client, req, validTickers)

	if client.LastMsgType() != "ack" {
		t.Errorf("Expected ack, got %s", client.LastMsgType())
	}

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if store.SubscribedChannels["AAAA"] != 1 {
		t.Errorf("Expected upstream subscription to AAAA")
	}
}

func TestHub_Subscribe_MixedValidity(t *testing.T) {
	h, _ := setup()
	client := testutils.NewMockClient("c1")

	req := protocol.WSRequest{
		Action:  "subscribe",
		Payload: protocol.RequestPayload{Symbols: []string{"AAAA", "NOTASYMBOL"}},
		ID:      "req-2",
	}

	h.HandleCommand(client, req, validTickers)

	lastMsg := client.LastMsg()
	if lastMsg.Status != "success" {
		t.Errorf("Expected success for partial valid subscription")
	}
	if !strings.Contains(lastMsg.Message, "AAAA") {
		t.Errorf("Response should contain accepted symbol AAAA")
	}
	if strings.Contains(lastMsg.Message, "NOTASYMBOL") {
		t.Errorf("Response should NOT contain invalid symbol")
	}
}

func TestHub_Subscribe_Idempotency(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")
	req := protocol.WSRequest{
		Action: "subscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA"}},
	}

	h.HandleCommand(client, req, validTickers)
	h.HandleCommand(client, req, validTickers)

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if store.SubscribedChannels["AAAA"] != 1 {
		t.Errorf("Upstream should only subscribe once per unique symbol")
	}
}

func TestHub_Unsubscribe_Logic(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "subscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA", "AAAB"}},
	}, validTickers)

	h.HandleCommand(client, protocol.WSRequest{
		Action: "unsubscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA"}},
	}, validTickers)

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if store.SubscribedChannels["AAAA"] != 0 {
		t.Errorf("Upstream should be unsubscribed from AAAA")
	}
	if store.SubscribedChannels["AAAB"] != 1 {
		t.Errorf("Upstream should still be subscribed to AAAB")
	}
}

func TestHub_UnsubscribeAll(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "subscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA", "AAAB"}},
	}, validTickers)

	h.HandleCommand(client, protocol.WSRequest{Action: "unsubscribe_all"}, validTickers)

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if len(store.SubscribedChannels) != 0 {
		t.Errorf("Store should be empty after unsubscribe_all")
	}
}

func TestHub_WatchToggle_RoundTrip(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")

	if h.IsWatching(client, "AAAA") {
		t.Fatal("New client should not be watching anything")
	}

	req := protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbol: "AAAA"}, ID: "w1",
	}

	h.HandleCommand(client, req, validTickers)
	if !h.IsWatching(client, "AAAA") {
		t.Error("First toggle should enable the flag")
	}
	ack := client.LastMsg()
	if state, ok := ack.Data.(protocol.WatchState); !ok || !state.Watching {
		t.Errorf("Ack should carry watching=true, got %+v", ack.Data)
	}

	// Second toggle returns to the original state.
	h.HandleCommand(client, req, validTickers)
	if h.IsWatching(client, "AAAA") {
		t.Error("Second toggle should restore the original state")
	}

	// The flag is client-local: nothing upstream moved.
	store.Mu.Lock()
	defer store.Mu.Unlock()
	if len(store.SubscribedChannels) != 0 || store.SnapshotCalls != 0 {
		t.Error("Watch toggles must not touch the store")
	}
}

func TestHub_Watch_IsPerClient(t *testing.T) {
	h, _ := setup()
	c1 := testutils.NewMockClient("c1")
	c2 := testutils.NewMockClient("c2")

	h.HandleCommand(c1, protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbol: "AAAA"},
	}, validTickers)

	if !h.IsWatching(c1, "AAAA") {
		t.Error("c1 should be watching AAAA")
	}
	if h.IsWatching(c2, "AAAA") {
		t.Error("c2 must not inherit c1's watch flag")
	}
}

func TestHub_Trade_AckOnly(t *testing.T) {
	h, store := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "trade", Payload: protocol.RequestPayload{Symbol: "AAAB", Quantity: 5}, ID: "t1",
	}, validTickers)

	ack := client.LastMsg()
	if ack.Type != "ack" || ack.Status != "success" {
		t.Fatalf("Expected successful ack, got %+v", ack)
	}
	if !strings.Contains(ack.Message, "5 x AAAB") {
		t.Errorf("Ack should name the trade, got %q", ack.Message)
	}

	store.Mu.Lock()
	defer store.Mu.Unlock()
	if len(store.SubscribedChannels) != 0 || store.SnapshotCalls != 0 {
		t.Error("Trade confirmation must not touch the store")
	}
}

func TestHub_Trade_InvalidQuantity(t *testing.T) {
	h, _ := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "trade", Payload: protocol.RequestPayload{Symbol: "AAAA", Quantity: 0},
	}, validTickers)

	if client.LastMsgType() != "error" {
		t.Errorf("Expected error for zero quantity, got %s", client.LastMsgType())
	}
}

func TestHub_Broadcast_RendersRows(t *testing.T) {
	h, _ := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "subscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA"}},
	}, validTickers)

	record := `{"symbol":"AAAA","company":"AAAA Corp","price":110,"open_price":100,"day_high":112,"day_low":95,"volume":2500000,"market_cap":1500000000}`
	h.Broadcast("AAAA", record)

	// The subscribe ack also triggers an async snapshot row, so pick out the
	// broadcast frame rather than assuming order.
	var frame string
	deadline := time.Now().Add(time.Second)
	for frame == "" && time.Now().Before(deadline) {
		client.Mu.Lock()
		for _, raw := range client.RawBytes {
			if strings.Contains(raw, "$110.00") {
				frame = raw
				break
			}
		}
		client.Mu.Unlock()
		if frame == "" {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if frame == "" {
		t.Fatal("Broadcast row never arrived")
	}

	var resp struct {
		Type string     `json:"type"`
		Data render.Row `json:"data"`
	}
	if err := json.Unmarshal([]byte(frame), &resp); err != nil {
		t.Fatalf("Broadcast frame is not valid JSON: %v", err)
	}
	if resp.Type != "row" {
		t.Errorf("Expected row frame, got %s", resp.Type)
	}
	if resp.Data.Price != "$110.00" {
		t.Errorf("Expected price $110.00, got %s", resp.Data.Price)
	}
	if resp.Data.Change != "+10.00%" || resp.Data.Direction != render.DirectionUp {
		t.Errorf("Expected +10.00%% up, got %s %s", resp.Data.Change, resp.Data.Direction)
	}
	if resp.Data.Volume != "2.50M" {
		t.Errorf("Expected volume 2.50M, got %s", resp.Data.Volume)
	}
	if resp.Data.MarketCap != "$1.50B" {
		t.Errorf("Expected market cap $1.50B, got %s", resp.Data.MarketCap)
	}
}

func TestHub_RaceCondition(t *testing.T) {
	// Run with `go test -race ./...`
	h, _ := setup()
	client := testutils.NewMockClient("c1")

	go func() {
		h.HandleCommand(client, protocol.WSRequest{Action: "subscribe", Payload: protocol.RequestPayload{Symbols: []string{"AAAA"}}}, validTickers)
	}()
	go func() {
		h.HandleCommand(client, protocol.WSRequest{Action: "watch", Payload: protocol.RequestPayload{Symbol: "AAAA"}}, validTickers)
	}()
	go func() {
		h.Unregister(client)
	}()
}
