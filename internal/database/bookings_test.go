package database

import (
	"context"
	"testing"

	"roombook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	b := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.InsertBooking(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusActive, b.Status)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, room.ID, got.RoomID)
	assert.Equal(t, "2025-03-20", got.Date)
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "11:00", got.EndTime)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = db.GetBooking(ctx, b.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBookingsOrdering(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	empty, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, w := range [][3]string{
		{"2025-03-21", "09:00", "10:00"},
		{"2025-03-20", "14:00", "15:00"},
		{"2025-03-20", "08:30", "09:00"},
	} {
		require.NoError(t, db.InsertBooking(ctx, &models.Booking{
			UserID: user.ID, RoomID: room.ID, Date: w[0], StartTime: w[1], EndTime: w[2],
		}))
	}

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "08:30", all[0].StartTime)
	assert.Equal(t, "14:00", all[1].StartTime)
	assert.Equal(t, "2025-03-21", all[2].Date)
}

func TestListUserBookingsIncludesCancelled(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	other := &models.User{Name: "Sam", Username: "sam", Email: "sam@example.com", Role: models.RoleRegular}
	require.NoError(t, db.CreateUser(ctx, other))

	mine := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.InsertBooking(ctx, mine))
	cancelled, err := db.CancelBooking(ctx, mine.ID)
	require.NoError(t, err)
	require.True(t, cancelled)
	require.NoError(t, db.InsertBooking(ctx, &models.Booking{
		UserID: other.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "12:00", EndTime: "13:00",
	}))

	list, err := db.ListUserBookings(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCancelled, list[0].Status)

	none, err := db.ListUserBookings(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListOverlapping(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	existing := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.InsertBooking(ctx, existing))

	tests := []struct {
		name  string
		slot  models.Slot
		count int
	}{
		{"same window", models.Slot{RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}, 1},
		{"partial overlap", models.Slot{RoomID: room.ID, Date: "2025-03-20", StartTime: "10:30", EndTime: "11:30"}, 1},
		{"contained", models.Slot{RoomID: room.ID, Date: "2025-03-20", StartTime: "10:15", EndTime: "10:45"}, 1},
		{"touching end", models.Slot{RoomID: room.ID, Date: "2025-03-20", StartTime: "11:00", EndTime: "12:00"}, 0},
		{"touching start", models.Slot{RoomID: room.ID, Date: "2025-03-20", StartTime: "09:00", EndTime: "10:00"}, 0},
		{"other date", models.Slot{RoomID: room.ID, Date: "2025-03-21", StartTime: "10:00", EndTime: "11:00"}, 0},
		{"other room", models.Slot{RoomID: room.ID + 1, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListOverlapping(ctx, tt.slot, 0)
			require.NoError(t, err)
			assert.Len(t, got, tt.count)
		})
	}

	t.Run("excluding own id", func(t *testing.T) {
		got, err := db.ListOverlapping(ctx, existing.Slot(), existing.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled bookings free the slot", func(t *testing.T) {
		_, err := db.CancelBooking(ctx, existing.ID)
		require.NoError(t, err)
		got, err := db.ListOverlapping(ctx, existing.Slot(), 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCreateBookingNoOverlap(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	first := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.CreateBookingNoOverlap(ctx, first))

	clash := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:30", EndTime: "11:30"}
	err := db.CreateBookingNoOverlap(ctx, clash)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Zero(t, clash.ID)

	adjacent := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "11:00", EndTime: "12:00"}
	require.NoError(t, db.CreateBookingNoOverlap(ctx, adjacent))

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateSchedule(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	b := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.InsertBooking(ctx, b))

	updated, err := db.UpdateSchedule(ctx, b.ID, "2025-03-22", "13:00", "14:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-22", updated.Date)
	assert.Equal(t, "13:00", updated.StartTime)
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Equal(t, room.ID, updated.RoomID)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = db.UpdateSchedule(ctx, 999, "2025-03-22", "13:00", "14:00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateScheduleNoOverlap(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	a := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	b := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "12:00", EndTime: "13:00"}
	require.NoError(t, db.InsertBooking(ctx, a))
	require.NoError(t, db.InsertBooking(ctx, b))

	t.Run("shifting within own window", func(t *testing.T) {
		got, err := db.UpdateScheduleNoOverlap(ctx, a.ID, "2025-03-20", "10:30", "11:30")
		require.NoError(t, err)
		assert.Equal(t, "10:30", got.StartTime)
	})

	t.Run("moving onto another booking", func(t *testing.T) {
		_, err := db.UpdateScheduleNoOverlap(ctx, a.ID, "2025-03-20", "12:30", "13:30")
		assert.ErrorIs(t, err, ErrOverlap)

		unchanged, err := db.GetBooking(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "10:30", unchanged.StartTime)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := db.UpdateScheduleNoOverlap(ctx, 999, "2025-03-20", "08:00", "09:00")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	user, room := seedUserAndRoom(t, db)
	ctx := context.Background()

	b := &models.Booking{UserID: user.ID, RoomID: room.ID, Date: "2025-03-20", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, db.InsertBooking(ctx, b))

	changed, err := db.CancelBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	first, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, first.Status)

	t.Run("second cancel leaves the row alone", func(t *testing.T) {
		changed, err := db.CancelBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		again, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, first.UpdatedAt, again.UpdatedAt)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := db.CancelBooking(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
