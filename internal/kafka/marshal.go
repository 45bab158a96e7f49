package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/greengrove-market/internal/market"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// DecodeEnvelope parses b and checks the fields every consumer relies on.
func DecodeEnvelope(b []byte) (market.Envelope, error) {
	var env market.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.EventID == "" || env.EventType == "" || len(env.Payload) == 0 {
		return env, fmt.Errorf("%w: missing event_id, event_type or payload", ErrMalformedEnvelope)
	}
	return env, nil
}

// UnwrapPayload decodes the payload of a specific event type.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
