package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// State is one operator's position in a multi-step dialogue. Exactly one
// variant is active at a time; Idle means no dialogue in progress.
type State interface {
	kind() string
}

type Idle struct{}

// AwaitingBroadcastField waits for one field of a broadcast slot
// configuration dialogue. The dialogue walks time, then destination chat,
// then message; Time, ChatID and ChatTitle carry the already-collected
// fields forward. ChatID stays nil when the operator named the destination
// by title only.
type AwaitingBroadcastField struct {
	Slot      int    `json:"slot"`
	Field     string `json:"field"` // "time", "chat", "message"
	Time      string `json:"time,omitempty"`
	ChatID    *int64 `json:"chat_id,omitempty"`
	ChatTitle string `json:"chat_title,omitempty"`
}

// AwaitingAccountInput waits for payment-account dialogue input. AccountID
// is zero in create mode; AccountType is set only in create mode.
type AwaitingAccountInput struct {
	Mode        string       `json:"mode"` // "create", "edit"
	AccountType string       `json:"account_type,omitempty"`
	AccountID   snowflake.ID `json:"account_id,omitempty"`
}

// AwaitingBreachAmount waits for the settlement amount of a breach order.
type AwaitingBreachAmount struct {
	ChatID int64 `json:"chat_id"`
}

func (Idle) kind() string                   { return "idle" }
func (AwaitingBroadcastField) kind() string { return "awaiting_broadcast_field" }
func (AwaitingAccountInput) kind() string   { return "awaiting_account_input" }
func (AwaitingBreachAmount) kind() string   { return "awaiting_breach_amount" }

var ErrUnknownStateKind = errors.New("unknown_session_state_kind")

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode serializes a state for storage.
func Encode(s State) ([]byte, error) {
	if s == nil {
		s = Idle{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: s.kind(), Data: data})
}

// Decode restores a stored state. Unknown kinds are an error rather than
// a silent Idle, so a schema drift surfaces loudly.
func Decode(raw []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case Idle{}.kind():
		return Idle{}, nil
	case AwaitingBroadcastField{}.kind():
		var s AwaitingBroadcastField
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case AwaitingAccountInput{}.kind():
		var s AwaitingAccountInput
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case AwaitingBreachAmount{}.kind():
		var s AwaitingBreachAmount
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%q: %w", env.Kind, ErrUnknownStateKind)
	}
}
