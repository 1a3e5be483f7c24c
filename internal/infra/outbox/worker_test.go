package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerIDStableAcrossClaims(t *testing.T) {
	w := &Worker{}
	first := w.workerID()
	require.NotEmpty(t, first)
	assert.Equal(t, first, w.workerID(), "fallback identity must not change between claims")

	named := &Worker{ID: "worker-7"}
	assert.Equal(t, "worker-7", named.workerID())
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "booking.events.v1", w.topicFor("booking.cancelled"))
	assert.Equal(t, "availability.events.v1", w.topicFor("availability.range_blocked"))
	assert.Equal(t, "booking.events.v1", w.topicFor("booking"))

	prefixed := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.booking.events.v1", prefixed.topicFor("booking.cancelled"))
}

func TestNextRetryFollowsBackoffLadder(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second}}
	assert.WithinDuration(t, time.Now().Add(time.Second), w.nextRetry(0), 500*time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), w.nextRetry(1), 500*time.Millisecond)
	// Past the ladder the last step repeats.
	assert.WithinDuration(t, time.Now().Add(5*time.Second), w.nextRetry(7), 500*time.Millisecond)

	bare := &Worker{}
	assert.WithinDuration(t, time.Now().Add(5*time.Second), bare.nextRetry(0), 500*time.Millisecond)
}

func TestFormatPayloadEnvelope(t *testing.T) {
	w := &Worker{Source: "app://staybook-test"}
	occurred := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "evt-1",
		Name:       "booking.cancelled",
		Aggregate:  "bk-1",
		Payload:    []byte(`{"booking_id":"bk-1","refund":20000}`),
		OccurredAt: occurred,
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "booking.cancelled.v1", evt["type"])
	assert.Equal(t, "app://staybook-test", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	assert.NotEmpty(t, evt["id"])

	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bk-1", data["booking_id"])

	malformed := &EventDocument{ID: "evt-2", Name: "booking.cancelled", Payload: []byte("not json")}
	_, _, err = w.formatPayload(malformed)
	assert.Error(t, err)
}
