package normalizer

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

var (
	// ErrBadPayload means the raw bytes were not a JSON object at all.
	ErrBadPayload = errors.New("payload is not a JSON object")
	// ErrNoToken means no accepted key field resolved to a non-empty string.
	ErrNoToken = errors.New("unresolvable token key")
)

// Accepted upstream field names per logical field, probed in priority order.
// Kept as data so adding another producer shape is a one-line change.
var (
	tokenFields     = []string{"token_address", "token", "token_addr", "mint"}
	rsiFields       = []string{"rsi", "rsi_value"}
	priceFields     = []string{"price_in_sol", "price", "price_sol", "amount_in_sol"}
	timestampFields = []string{"timestamp_ms", "timestamp"}
)

// Normalizer maps heterogeneous upstream JSON records to models.Event.
type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock is for tests that need a deterministic fallback timestamp.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize parses a raw record into a canonical event.
// Missing or unparseable rsi/price fields become nil, not zero; the event is
// still valid as long as a token key resolves. A missing timestamp falls back
// to the broadcaster's wall clock, so timestamps are not monotonic per token.
func (n *Normalizer) Normalize(raw []byte) (models.Event, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Event{}, ErrBadPayload
	}

	token := probeString(fields, tokenFields)
	if token == "" {
		return models.Event{}, ErrNoToken
	}

	ev := models.Event{
		Token: token,
		RSI:   probeFloat(fields, rsiFields),
		Price: probeFloat(fields, priceFields),
	}

	if ts := probeFloat(fields, timestampFields); ts != nil {
		ev.TimestampMs = int64(*ts)
	} else {
		ev.TimestampMs = n.now().UnixMilli()
	}

	return ev, nil
}

// probeString returns the first non-empty string value among candidates.
func probeString(fields map[string]any, candidates []string) string {
	for _, name := range candidates {
		if v, ok := fields[name]; ok {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// probeFloat returns the first value among candidates that is numeric or a
// string parseable as a float. Unparseable candidates do not stop the probe.
func probeFloat(fields map[string]any, candidates []string) *float64 {
	for _, name := range candidates {
		v, ok := fields[name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			f := val
			return &f
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return &f
			}
		case json.Number:
			if f, err := val.Float64(); err == nil {
				return &f
			}
		}
	}
	return nil
}
