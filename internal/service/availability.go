package service

import (
	"context"

	"roombook/internal/domain"
	"roombook/internal/models"
)

// AvailabilityChecker decides whether a room window is free of active bookings.
type AvailabilityChecker struct {
	store domain.BookingStore
}

func NewAvailabilityChecker(store domain.BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

func (c *AvailabilityChecker) IsAvailable(ctx context.Context, slot models.Slot) (bool, error) {
	return c.IsAvailableExcluding(ctx, slot, 0)
}

// IsAvailableExcluding ignores the booking with excludeID, so a booking never conflicts with itself.
func (c *AvailabilityChecker) IsAvailableExcluding(ctx context.Context, slot models.Slot, excludeID int64) (bool, error) {
	overlapping, err := c.store.ListOverlapping(ctx, slot, excludeID)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}
