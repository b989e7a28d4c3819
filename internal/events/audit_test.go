package events

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(nil)
	NewAuditLogger(&logger).Attach(bus)

	err := bus.PublishJSON(EventBookingCancelled, BookingEventPayload{
		BookingID:     12,
		UserID:        401,
		RoomID:        421,
		Date:          "2025-12-01",
		StartTime:     "10:00",
		EndTime:       "11:00",
		Status:        "cancelled",
		ChangedBy:     "riwa",
		ChangedByRole: "regular",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booking audit", line["message"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, EventBookingCancelled, line["event"])
	assert.Equal(t, float64(12), line["booking_id"])
	assert.Equal(t, "riwa", line["actor"])
	assert.Equal(t, "cancelled", line["status"])
}

func TestAuditLoggerBadPayload(t *testing.T) {
	a := NewAuditLogger(nil)
	err := a.Handle(&Event{Type: EventBookingCreated, Payload: []byte("{")})
	assert.Error(t, err)
}
