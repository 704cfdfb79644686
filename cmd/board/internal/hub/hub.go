// Package hub fans rendered rows out to connected board clients and owns all
// per-client state: symbol subscriptions, watchlist flags, upstream ref
// counts. Clients only ever see read-only row projections; nothing a client
// does mutates the record feed.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/board/internal/fps"
	"github.com/marketmock/ticker-board/cmd/board/internal/protocol"
	"github.com/marketmock/ticker-board/cmd/board/internal/repository"
	"github.com/marketmock/ticker-board/pkg/models"
	"github.com/marketmock/ticker-board/pkg/render"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

type Hub struct {
	subscribers map[string]map[ClientInterface]bool
	clientSubs  map[ClientInterface]map[string]bool
	// watchFlags is row-local toggle state. It lives for the client's
	// connection lifetime and never reaches the store or the feed.
	watchFlags map[ClientInterface]map[string]bool

	store    repository.PriceStore
	renderer *render.RowRenderer
	gauge    *fps.Gauge
	logger   *zap.Logger
	mu       sync.RWMutex
	refCount map[string]int
}

func NewHub(store repository.PriceStore, renderer *render.RowRenderer, gauge *fps.Gauge, logger *zap.Logger) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[ClientInterface]bool),
		clientSubs:  make(map[ClientInterface]map[string]bool),
		watchFlags:  make(map[ClientInterface]map[string]bool),
		store:       store,
		renderer:    renderer,
		gauge:       gauge,
		logger:      logger,
		refCount:    make(map[string]int),
	}

	go h.store.RunPubSub(context.Background(), h.Broadcast)

	return h
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest, validTickers map[string]bool) {
	switch req.Action {
	case protocol.ActionSubscribe:
		h.handleSubscribe(client, req, validTickers)
	case protocol.ActionUnsubscribe:
		h.handleUnsubscribe(client, req)
	case protocol.ActionUnsubscribeAll:
		h.handleUnsubscribeAll(client, req)
	case protocol.ActionWatch:
		h.handleWatch(client, req, validTickers)
	case protocol.ActionTrade:
		h.handleTrade(client, req, validTickers)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleSubscribe(client ClientInterface, req protocol.WSRequest, validTickers map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var valid []string
	for _, s := range req.Payload.Symbols {
		if validTickers[s] {
			// Idempotency: ignore if already subscribed
			if h.clientSubs[client] != nil && h.clientSubs[client][s] {
				continue
			}
			valid = append(valid, s)
		}
	}

	if len(valid) == 0 {
		h.sendError(client, req.ID, "No valid/new symbols provided")
		return
	}

	if h.clientSubs[client] == nil {
		h.clientSubs[client] = make(map[string]bool)
	}

	for _, sym := range valid {
		h.clientSubs[client][sym] = true
		if h.subscribers[sym] == nil {
			h.subscribers[sym] = make(map[ClientInterface]bool)
		}
		h.subscribers[sym][client] = true

		// Upstream subscription is ref counted across clients.
		h.refCount[sym]++
		if h.refCount[sym] == 1 {
			if err := h.store.SubscribeToFeed(context.Background(), sym); err != nil {
				h.logger.Error("Failed to subscribe upstream", zap.String("symbol", sym), zap.Error(err))
			}
		}
	}

	h.sendAck(client, req.ID, "success", fmt.Sprintf("Subscribed to %v", valid))

	// Snapshots go out async so the lock is not held during store reads.
	go h.sendSnapshots(client, valid)
}

func (h *Hub) sendSnapshots(client ClientInterface, symbols []string) {
	snapshots, err := h.store.GetSnapshots(context.Background(), symbols)
	if err != nil {
		h.logger.Error("Failed to fetch snapshots", zap.Error(err))
		return
	}
	for _, snap := range snapshots {
		if msg, ok := h.renderRow([]byte(snap)); ok {
			client.SendBytes(msg)
		}
	}
}

func (h *Hub) handleUnsubscribe(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []string
	if subs, ok := h.clientSubs[client]; ok {
		for _, sym := range req.Payload.Symbols {
			if subs[sym] {
				delete(subs, sym)
				delete(h.subscribers[sym], client)
				removed = append(removed, sym)
				h.decreaseRefCount(sym)
			}
		}
	}

	if len(removed) > 0 {
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Unsubscribed from %v", removed))
	} else {
		h.sendError(client, req.ID, fmt.Sprintf("Not subscribed to: %v", req.Payload.Symbols))
	}
}

func (h *Hub) handleUnsubscribeAll(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clientSubs[client]; ok {
		for sym := range subs {
			delete(h.subscribers[sym], client)
			h.decreaseRefCount(sym)
		}
		// Clear the map but keep the client registered
		h.clientSubs[client] = make(map[string]bool)
	}
	h.sendAck(client, req.ID, "success", "Unsubscribed from all symbols")
}

// handleWatch flips the client-local watchlist flag for one symbol. Two
// toggles restore the original state; the record set is never touched.
func (h *Hub) handleWatch(client ClientInterface, req protocol.WSRequest, validTickers map[string]bool) {
	sym := req.Payload.Symbol
	if !validTickers[sym] {
		h.sendError(client, req.ID, "Unknown symbol: "+sym)
		return
	}

	h.mu.Lock()
	if h.watchFlags[client] == nil {
		h.watchFlags[client] = make(map[string]bool)
	}
	watching := !h.watchFlags[client][sym]
	h.watchFlags[client][sym] = watching
	h.mu.Unlock()

	msg := "Removed " + sym + " from watchlist"
	if watching {
		msg = "Added " + sym + " to watchlist"
	}
	c := protocol.WSResponse{
		Type: "ack", ID: req.ID, Status: "success", Message: msg,
		Data: protocol.WatchState{Symbol: sym, Watching: watching},
	}
	client.SendJSON(c)
}

// handleTrade acknowledges a trade request. It is confirmation only: no
// price, volume, or any other shared state moves.
func (h *Hub) handleTrade(client ClientInterface, req protocol.WSRequest, validTickers map[string]bool) {
	sym := req.Payload.Symbol
	if !validTickers[sym] {
		h.sendError(client, req.ID, "Unknown symbol: "+sym)
		return
	}
	qty := req.Payload.Quantity
	if qty <= 0 {
		h.sendError(client, req.ID, fmt.Sprintf("Invalid quantity: %d", qty))
		return
	}

	h.sendAck(client, req.ID, "success", fmt.Sprintf("Trade confirmed: %d x %s", qty, sym))
}

// IsWatching reports the client's local watchlist flag for a symbol.
func (h *Hub) IsWatching(client ClientInterface, symbol string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.watchFlags[client][symbol]
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clientSubs[client]; ok {
		for sym := range subs {
			delete(h.subscribers[sym], client)
			h.decreaseRefCount(sym)
		}
		delete(h.clientSubs, client)
	}
	delete(h.watchFlags, client)
	client.Close()
}

// Broadcast renders one record payload into a row frame and fans it out to
// the symbol's subscribers. Every broadcast pass counts as one render frame
// on the fps gauge.
func (h *Hub) Broadcast(symbol string, payload string) {
	h.gauge.FrameTick()

	msg, ok := h.renderRow([]byte(payload))
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.subscribers[symbol]; ok {
		for client := range clients {
			client.SendBytes(msg)
		}
	}
}

// BroadcastStatus pushes the current fps reading to every connected client.
func (h *Hub) BroadcastStatus() {
	resp := protocol.WSResponse{
		Type: "fps",
		Data: protocol.FPSStatus{FPS: h.gauge.FPS(), Status: h.gauge.Status()},
	}
	msg, err := json.Marshal(resp)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clientSubs {
		client.SendBytes(msg)
	}
}

func (h *Hub) renderRow(payload []byte) ([]byte, bool) {
	var s models.Stock
	if err := json.Unmarshal(payload, &s); err != nil {
		h.logger.Warn("Dropping malformed record payload", zap.Error(err))
		return nil, false
	}

	row := h.renderer.Row(s)
	msg, err := json.Marshal(protocol.WSResponse{Type: "row", Data: row})
	if err != nil {
		h.logger.Error("Failed to marshal row", zap.Error(err))
		return nil, false
	}
	return msg, true
}

func (h *Hub) decreaseRefCount(symbol string) {
	h.refCount[symbol]--
	if h.refCount[symbol] <= 0 {
		if err := h.store.UnsubscribeFromFeed(context.Background(), symbol); err != nil {
			h.logger.Error("Failed to unsubscribe upstream", zap.String("symbol", symbol), zap.Error(err))
		}
		delete(h.refCount, symbol)
		delete(h.subscribers, symbol)
	}
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.WSResponse{Type: "ack", ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.WSResponse{Type: "error", ID: id, Message: msg})
}
