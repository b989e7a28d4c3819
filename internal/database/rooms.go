package database

import (
	"context"
	"fmt"

	"roombook/internal/models"
)

const roomColumns = `id, name, capacity, equipment, location, status`

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.Status == "" {
		room.Status = models.RoomStatusAvailable
	}
	query := `INSERT INTO rooms (name, capacity, equipment, location, status) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, room.Name, room.Capacity, room.Equipment, room.Location, room.Status)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", translate(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = id
	return nil
}

// UpsertRoom creates the room or refreshes the row with the same name.
func (db *DB) UpsertRoom(ctx context.Context, room *models.Room) error {
	if room.Status == "" {
		room.Status = models.RoomStatusAvailable
	}
	query := `INSERT INTO rooms (name, capacity, equipment, location, status) VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(name) DO UPDATE SET
                capacity = excluded.capacity,
                equipment = excluded.equipment,
                location = excluded.location,
                status = excluded.status`
	if _, err := db.ExecContext(ctx, query, room.Name, room.Capacity, room.Equipment, room.Location, room.Status); err != nil {
		return fmt.Errorf("failed to upsert room %s: %w", room.Name, translate(err))
	}

	stored, err := db.GetRoomByName(ctx, room.Name)
	if err != nil {
		return err
	}
	*room = *stored
	return nil
}

func (db *DB) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	room, err := db.queryRoom(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

func (db *DB) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE name = ?`
	room, err := db.queryRoom(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %q: %w", name, err)
	}
	return room, nil
}

// ListRooms returns the catalog ordered by name.
func (db *DB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*models.Room, 0)
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.Equipment, &r.Location, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

func (db *DB) queryRoom(ctx context.Context, query string, args ...interface{}) (*models.Room, error) {
	var r models.Room
	err := db.QueryRowContext(ctx, query, args...).Scan(&r.ID, &r.Name, &r.Capacity, &r.Equipment, &r.Location, &r.Status)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}
