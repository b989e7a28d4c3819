package domain

import (
	"context"
	"time"

	"roombook/internal/models"
)

// BookingStore is the persistence side of the booking lifecycle.
type BookingStore interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingNoOverlap(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListOverlapping(ctx context.Context, slot models.Slot, excludeID int64) ([]*models.Booking, error)
	UpdateSchedule(ctx context.Context, id int64, date, startTime, endTime string) (*models.Booking, error)
	UpdateScheduleNoOverlap(ctx context.Context, id int64, date, startTime, endTime string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id int64) (changed bool, err error)
}

type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type RoomCatalog interface {
	GetRoomByID(ctx context.Context, id int64) (*models.Room, error)
}

// IdentityResolver turns request credentials into a caller identity.
// Missing or unusable credentials resolve to models.Anonymous.
type IdentityResolver interface {
	Resolve(authorization string, header func(string) string) models.Identity
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CacheStore holds serialized directory entries.
// Get reports found=false for a missing key without an error.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
