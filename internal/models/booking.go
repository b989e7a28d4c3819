package models

import "time"

// Booking is a reservation of a room for a time window on a single date.
// Date is YYYY-MM-DD, StartTime and EndTime are zero-padded HH:MM.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RoomID    int64     `json:"room_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"` // active, cancelled, updated
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the booking counts toward availability conflicts.
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}

// Slot returns the booking's room and time window.
func (b *Booking) Slot() Slot {
	return Slot{RoomID: b.RoomID, Date: b.Date, StartTime: b.StartTime, EndTime: b.EndTime}
}

// Slot identifies a time window for a room on one calendar date.
type Slot struct {
	RoomID    int64
	Date      string
	StartTime string
	EndTime   string
}

// Overlaps uses half-open interval intersection on the same room and date.
// Zero-padded HH:MM strings compare correctly as text.
func (s Slot) Overlaps(other Slot) bool {
	if s.RoomID != other.RoomID || s.Date != other.Date {
		return false
	}
	return other.StartTime < s.EndTime && other.EndTime > s.StartTime
}
