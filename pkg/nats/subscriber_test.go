package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank-admin/pkg/events"
)

func TestDecodeEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Envelope{Type: events.QuestionsImported, Data: map[string]interface{}{"success": 3}, OccurredAt: at})
	require.NoError(t, err)

	evt, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, events.QuestionsImported, evt.EventType())
	assert.EqualValues(t, 3, evt.Payload()["success"])
	assert.True(t, at.Equal(evt.Timestamp()))

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}
