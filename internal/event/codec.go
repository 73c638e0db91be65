package event

import (
	"encoding/json"
	"fmt"

	"supply_go/internal/domain"
)

// EnvelopeVersion is the current notification wire version.
const EnvelopeVersion = 1

// Envelope is the wire form shared by every sink.
type Envelope struct {
	Version int              `json:"version"`
	ID      string           `json:"id"`
	Type    Type             `json:"type"`
	Seq     uint64           `json:"seq"`
	Ts      domain.Timestamp `json:"ts"`
	Payload json.RawMessage  `json:"payload"`
}

// Wrap builds the envelope of a notification.
func Wrap(n Notification) (Envelope, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", n.GetType(), err)
	}
	return Envelope{
		Version: EnvelopeVersion,
		ID:      n.GetID(),
		Type:    n.GetType(),
		Seq:     n.GetSeq(),
		Ts:      n.GetTs(),
		Payload: payload,
	}, nil
}

// Encode serializes a notification into its envelope.
func Encode(n Notification) ([]byte, error) {
	env, err := Wrap(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses an envelope back into a typed notification.
func Decode(data []byte) (Notification, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("%w: envelope version %d", domain.ErrUnsupportedVersion, env.Version)
	}

	base := BaseEvent{ID: env.ID, Seq: env.Seq, Ts: env.Ts}
	switch env.Type {
	case TypeOrderAccepted:
		ev := &OrderAcceptedEvent{}
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		ev.BaseEvent = base
		return ev, nil
	case TypeSupplyReset:
		ev := &SupplyResetEvent{}
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		ev.BaseEvent = base
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", env.Type)
	}
}
