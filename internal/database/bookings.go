package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roombook/internal/models"
)

const bookingColumns = `id, user_id, room_id, date, start_time, end_time, status, created_at, updated_at`

// overlapQuery matches active bookings whose window intersects [start, end) on the same room and date.
const overlapQuery = `SELECT ` + bookingColumns + ` FROM bookings
              WHERE room_id = ? AND date = ? AND status = ?
                AND start_time < ? AND end_time > ?
                AND id != ?
              ORDER BY start_time`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func queryBookings(ctx context.Context, q queryer, query string, args ...any) ([]*models.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// InsertBooking stores a new active booking and fills in its id and timestamps.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	return insertBooking(ctx, db, booking)
}

func insertBooking(ctx context.Context, q queryer, booking *models.Booking) error {
	query := `INSERT INTO bookings (user_id, room_id, date, start_time, end_time, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		booking.UserID,
		booking.RoomID,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		models.StatusActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", translate(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Status = models.StatusActive
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// CreateBookingNoOverlap checks for overlapping active bookings and inserts
// inside one immediate transaction. Returns ErrOverlap when the window is taken.
func (db *DB) CreateBookingNoOverlap(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := queryBookings(ctx, tx, overlapQuery,
		booking.RoomID, booking.Date, models.StatusActive, booking.EndTime, booking.StartTime, 0)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if len(conflicts) > 0 {
		return ErrOverlap
	}

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	db.logger.Debug().Int64("booking_id", booking.ID).Int64("room_id", booking.RoomID).Str("date", booking.Date).Msg("booking inserted")
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return getBooking(ctx, db, id)
}

func getBooking(ctx context.Context, q queryer, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, translate(err))
	}
	return b, nil
}

// ListBookings returns every booking ordered by date and start time.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY date, start_time, id`
	bookings, err := queryBookings(ctx, db, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListUserBookings returns the user's bookings of every status.
func (db *DB) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY date, start_time, id`
	bookings, err := queryBookings(ctx, db, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// ListOverlapping returns active bookings intersecting the slot, skipping excludeID (0 skips nothing).
func (db *DB) ListOverlapping(ctx context.Context, slot models.Slot, excludeID int64) ([]*models.Booking, error) {
	bookings, err := queryBookings(ctx, db, overlapQuery,
		slot.RoomID, slot.Date, models.StatusActive, slot.EndTime, slot.StartTime, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping bookings: %w", err)
	}
	return bookings, nil
}

// UpdateSchedule rewrites date and times; status and room stay as they are.
func (db *DB) UpdateSchedule(ctx context.Context, id int64, date, startTime, endTime string) (*models.Booking, error) {
	if err := updateSchedule(ctx, db, id, date, startTime, endTime); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

func updateSchedule(ctx context.Context, q queryer, id int64, date, startTime, endTime string) error {
	query := `UPDATE bookings SET date = ?, start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`
	result, err := q.ExecContext(ctx, query, date, startTime, endTime, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking schedule: %w", translate(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update booking %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateScheduleNoOverlap moves a booking to a new window on its own room,
// checking for overlaps (excluding the booking itself) inside the same transaction.
func (db *DB) UpdateScheduleNoOverlap(ctx context.Context, id int64, date, startTime, endTime string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	conflicts, err := queryBookings(ctx, tx, overlapQuery,
		current.RoomID, date, models.StatusActive, endTime, startTime, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, ErrOverlap
	}

	if err := updateSchedule(ctx, tx, id, date, startTime, endTime); err != nil {
		return nil, err
	}

	updated, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule update: %w", err)
	}
	return updated, nil
}

// CancelBooking marks an active or updated booking cancelled. It reports
// changed=false without writing when the booking is already cancelled, so
// concurrent cancels change the row exactly once.
func (db *DB) CancelBooking(ctx context.Context, id int64) (changed bool, err error) {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status != ?`
	result, err := db.ExecContext(ctx, query, models.StatusCancelled, time.Now().UTC(), id, models.StatusCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", translate(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	if _, err := db.GetBooking(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
