package protocol

// Client actions. Subscribe/unsubscribe manage the symbol feed; watch and
// trade are row-level actions that never touch the shared record set.
const (
	ActionSubscribe      = "subscribe"
	ActionUnsubscribe    = "unsubscribe"
	ActionUnsubscribeAll = "unsubscribe_all"
	ActionWatch          = "watch"
	ActionTrade          = "trade"
)

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

type RequestPayload struct {
	Symbols  []string `json:"symbols,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	Quantity int      `json:"quantity,omitempty"`
}

type WSResponse struct {
	Type    string      `json:"type"`             // "ack", "error", "row", "fps"
	ID      string      `json:"id,omitempty"`     // Matches request ID
	Status  string      `json:"status,omitempty"` // "success", "error"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WatchState is the Data payload of a watch ack.
type WatchState struct {
	Symbol   string `json:"symbol"`
	Watching bool   `json:"watching"`
}

// FPSStatus is the Data payload of the periodic fps frame.
type FPSStatus struct {
	FPS    int    `json:"fps"`
	Status string `json:"status"`
}
