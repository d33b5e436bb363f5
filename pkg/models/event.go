package models

// Event is the canonical record the broadcaster operates on internally.
// RSI and Price are pointers so an absent upstream value survives as null
// on the wire instead of a misleading zero.
type Event struct {
	Token       string   `json:"token"`
	RSI         *float64 `json:"rsi"`
	Price       *float64 `json:"price"`
	TimestampMs int64    `json:"timestamp_ms"`
}
