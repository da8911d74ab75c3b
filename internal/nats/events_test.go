package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/agentbrain/internal/usage"
)

func TestTurnEvent_JSON(t *testing.T) {
	ev := NewTurnEvent("u1", "s1")
	require.NotEqual(t, uuid.Nil, ev.ID)
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Minute)

	ev.Intent = "device_alarms"
	ev.Usage = usage.FromTokens(12, 3, 0.5)
	ev.DurationMS = 1500

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "u1", raw["user_id"])
	assert.Equal(t, "device_alarms", raw["intent"])
	assert.Equal(t, false, raw["denied"])
	assert.NotContains(t, raw, "client_hash")
	assert.Equal(t, map[string]any{
		"tokens_prompt": 12.0, "tokens_completion": 3.0, "tokens_total": 15.0, "cost_usd": 0.5,
	}, raw["usage"])

	var back TurnEvent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev.ID, back.ID)
	assert.Equal(t, ev.Usage, back.Usage)
}

func TestConsumerConfig(t *testing.T) {
	cfg := ConsumerConfig("turn-ledger", SubjectTurnEvent)

	assert.Equal(t, "turn-ledger", cfg.Durable)
	assert.Equal(t, SubjectTurnEvent, cfg.FilterSubject)
	assert.Equal(t, MaxDeliver, cfg.MaxDeliver)
	assert.Equal(t, AckWait, cfg.AckWait)
}

func TestEventsStream(t *testing.T) {
	cfg := EventsStream()

	assert.Equal(t, StreamEvents, cfg.Name)
	assert.Equal(t, []string{SubjectEventsWildcard}, cfg.Subjects)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)
}
