package events

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// AuditLogger writes one structured line per booking event.
type AuditLogger struct {
	logger zerolog.Logger
}

func NewAuditLogger(logger *zerolog.Logger) *AuditLogger {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "audit").Logger()
	}
	return &AuditLogger{logger: l}
}

// Attach subscribes the audit trail to every booking event on bus.
func (a *AuditLogger) Attach(bus *EventBus) {
	bus.Subscribe(a.Handle, BookingEventTypes...)
}

func (a *AuditLogger) Handle(event *Event) error {
	var payload BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	a.logger.Info().
		Str("event", event.Type).
		Int64("booking_id", payload.BookingID).
		Int64("user_id", payload.UserID).
		Int64("room_id", payload.RoomID).
		Str("date", payload.Date).
		Str("start_time", payload.StartTime).
		Str("end_time", payload.EndTime).
		Str("status", payload.Status).
		Str("actor", payload.ChangedBy).
		Str("actor_role", payload.ChangedByRole).
		Time("at", event.CreatedAt).
		Msg("booking audit")
	return nil
}
