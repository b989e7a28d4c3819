package service

import (
	"context"
	"fmt"
	"time"

	"roombook/internal/cache"
	"roombook/internal/domain"
	"roombook/internal/metrics"
	"roombook/internal/models"

	"github.com/rs/zerolog"
)

// Directory is a read-through cache in front of the user directory and room catalog.
// Lookup failures, including not found, are never cached.
type Directory struct {
	users  domain.UserDirectory
	rooms  domain.RoomCatalog
	store  domain.CacheStore
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewDirectory(users domain.UserDirectory, rooms domain.RoomCatalog, store domain.CacheStore, ttl time.Duration, logger *zerolog.Logger) *Directory {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Directory{
		users:  users,
		rooms:  rooms,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func userIDKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

func usernameKey(username string) string {
	return "user:name:" + username
}

func roomKey(id int64) string {
	return fmt.Sprintf("room:%d", id)
}

func (d *Directory) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, hit, err := cache.GetOrLoad(ctx, d.store, userIDKey(id), d.ttl, func(ctx context.Context) (*models.User, error) {
		return d.users.GetUserByID(ctx, id)
	})
	metrics.IncCache("user", hit)
	return user, err
}

func (d *Directory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, hit, err := cache.GetOrLoad(ctx, d.store, usernameKey(username), d.ttl, func(ctx context.Context) (*models.User, error) {
		return d.users.GetUserByUsername(ctx, username)
	})
	metrics.IncCache("user", hit)
	return user, err
}

func (d *Directory) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	room, hit, err := cache.GetOrLoad(ctx, d.store, roomKey(id), d.ttl, func(ctx context.Context) (*models.Room, error) {
		return d.rooms.GetRoomByID(ctx, id)
	})
	metrics.IncCache("room", hit)
	return room, err
}

// InvalidateUser drops both cached views of the user. Call it after writing the user row.
func (d *Directory) InvalidateUser(ctx context.Context, user *models.User) error {
	keys := []string{usernameKey(user.Username)}
	if user.ID != 0 {
		keys = append(keys, userIDKey(user.ID))
	}
	if err := d.store.Delete(ctx, keys...); err != nil {
		d.logger.Warn().Err(err).Str("username", user.Username).Msg("failed to invalidate cached user")
		return err
	}
	return nil
}

// InvalidateRoom drops the cached room. Call it after writing the room row.
func (d *Directory) InvalidateRoom(ctx context.Context, id int64) error {
	if err := d.store.Delete(ctx, roomKey(id)); err != nil {
		d.logger.Warn().Err(err).Int64("room_id", id).Msg("failed to invalidate cached room")
		return err
	}
	return nil
}
