// Command seed upserts users and rooms from a YAML file.
//
// Every upsert also invalidates the matching user or room cache entries. That
// only reaches a running bookingd when both processes share the cache, which
// is the case for the redis and failover backends. With the memory backend
// bookingd keeps serving its own copies until the entries expire
// (cache.ttl_seconds) or the server restarts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"roombook/internal/auth"
	"roombook/internal/cache"
	"roombook/internal/config"
	"roombook/internal/database"
	"roombook/internal/models"
	"roombook/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// SeedFile lists users and rooms to load. Passwords are plain text and are
// hashed before storage; an empty password keeps the stored hash.
type SeedFile struct {
	Users []SeedUser     `yaml:"users"`
	Rooms []*models.Room `yaml:"rooms"`
}

type SeedUser struct {
	models.User `yaml:",inline"`
	Password    string `yaml:"password"`
}

type invalidator interface {
	InvalidateUser(ctx context.Context, user *models.User) error
	InvalidateRoom(ctx context.Context, id int64) error
}

type result struct {
	Users int
	Rooms int
}

var validRoles = map[string]bool{
	models.RoleAdmin:           true,
	models.RoleRegular:         true,
	models.RoleFacilityManager: true,
	models.RoleAuditor:         true,
	models.RoleModerator:       true,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "seed").Logger()

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	configPath := flagSet.String("config", "configs/config.yaml", "path to config.yaml; use bookingd's config so cache invalidation reaches its redis")
	seedPath := flagSet.String("file", "configs/seed.yaml", "path to seed.yaml")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	file, err := loadSeedFile(*seedPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path, database.Options{BusyTimeoutMS: cfg.Database.BusyTimeoutMS}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeCache, err := cache.New(ctx, cfg.Cache, cfg.Redis, &logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer func() { _ = closeCache() }()
	if !sharedCache(cfg.Cache) {
		logger.Warn().
			Str("backend", cfg.Cache.Backend).
			Int("ttl_seconds", cfg.Cache.TTLSeconds).
			Msg("cache is process-local, a running bookingd serves old users and rooms until the TTL passes or it restarts")
	}
	directory := service.NewDirectory(db, db, store, time.Duration(cfg.Cache.TTLSeconds)*time.Second, &logger)

	res, err := seed(ctx, db, directory, file)
	if err != nil {
		return err
	}

	logger.Info().Int("users", res.Users).Int("rooms", res.Rooms).Msg("seed done")
	return nil
}

// sharedCache reports whether invalidations made by this process reach other
// processes using the same config.
func sharedCache(cfg config.CacheConfig) bool {
	return cfg.Backend == config.CacheBackendRedis || cfg.Backend == config.CacheBackendFailover
}

func loadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Users) == 0 && len(file.Rooms) == 0 {
		return nil, errors.New("no users or rooms in seed file")
	}
	return &file, nil
}

func seed(ctx context.Context, db *database.DB, cached invalidator, file *SeedFile) (result, error) {
	var res result

	for i := range file.Users {
		u := file.Users[i]
		if u.Username == "" {
			continue
		}
		if !validRoles[u.Role] {
			return res, fmt.Errorf("user %s: unknown role %q", u.Username, u.Role)
		}
		user := u.User
		if u.Password != "" {
			hash, err := auth.HashPassword(u.Password)
			if err != nil {
				return res, fmt.Errorf("hash password for %s: %w", u.Username, err)
			}
			user.PasswordHash = hash
		}
		if err := db.UpsertUser(ctx, &user); err != nil {
			return res, fmt.Errorf("upsert user %s: %w", u.Username, err)
		}
		_ = cached.InvalidateUser(ctx, &user)
		res.Users++
	}

	for _, room := range file.Rooms {
		if room == nil || room.Name == "" {
			continue
		}
		if err := db.UpsertRoom(ctx, room); err != nil {
			return res, fmt.Errorf("upsert room %s: %w", room.Name, err)
		}
		_ = cached.InvalidateRoom(ctx, room.ID)
		res.Rooms++
	}

	return res, nil
}
