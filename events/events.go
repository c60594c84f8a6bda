// Package events turns committed finance events into wire envelopes and
// hands them to a broker (see the kafka and amqp subpackages).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/bucket-ledger/finance"
)

// Envelope is the JSON document written to the broker.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope assigns a fresh id and encodes the payload.
func NewEnvelope(ev finance.Event) (Envelope, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		OccurredAt: occurred.UTC(),
		Payload:    payload,
	}, nil
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Recorder keeps every envelope in memory. Useful in tests and as the
// "none" backend when you still want to inspect traffic.
type Recorder struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (r *Recorder) Publish(_ context.Context, ev finance.Event) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, env)
	return nil
}

// Envelopes returns a copy of everything published so far.
func (r *Recorder) Envelopes() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.envelopes...)
}

// Types lists the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.envelopes))
	for i, env := range r.envelopes {
		types[i] = env.Type
	}
	return types
}

var _ finance.Publisher = (*Recorder)(nil)
