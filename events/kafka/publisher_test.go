package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bucket-ledger/events"
	"github.com/warp/bucket-ledger/finance"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	msg, err := newMessage(finance.Event{
		Type:       finance.EventTransferCompleted,
		OccurredAt: at,
		Payload:    map[string]string{"amount": "50.00"},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("transfer.completed"), msg.Key)
	assert.True(t, msg.Time.Equal(at))

	var env events.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "transfer.completed", env.Type)
	assert.JSONEq(t, `{"amount":"50.00"}`, string(env.Payload))

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event-id", msg.Headers[0].Key)
	assert.Equal(t, env.ID, string(msg.Headers[0].Value))
}

func TestNewPublisher_DefaultTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	t.Cleanup(func() { p.Close() })
	assert.Equal(t, DefaultTopic, p.writer.Topic)
}
