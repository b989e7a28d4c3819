package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roombook/internal/auth"
	"roombook/internal/config"
	"roombook/internal/domain"
	"roombook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// Deps are the collaborators behind the HTTP surface. Login and Health may be
// nil, in which case their routes are not registered.
type Deps struct {
	Bookings *service.BookingService
	Users    domain.UserDirectory
	Rooms    domain.RoomCatalog
	Identity domain.IdentityResolver
	Login    Authenticator
	Health   Pinger
}

// HTTPServer exposes the booking API over JSON.
type HTTPServer struct {
	deps   Deps
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{deps: deps, log: serverLogger}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		accessLogMiddleware(serverLogger),
		rateLimitMiddleware(newRateLimiter(cfg.RateLimit)),
		identityMiddleware(deps.Identity),
	)
	srv.routes(engine)
	srv.engine = engine

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(r *gin.Engine) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", s.listBookings)
		bookings.POST("", s.createBooking)
		bookings.GET("/export", s.exportBookings)
		bookings.GET("/user/:user_id", s.listUserBookings)
		bookings.PUT("/:booking_id", s.updateBooking)
		bookings.DELETE("/:booking_id", s.cancelBooking)
	}

	rooms := r.Group("/rooms")
	{
		rooms.GET("/:room_id", s.getRoom)
		rooms.GET("/:room_id/availability", s.checkAvailability)
		rooms.POST("/:room_id/availability", s.checkAvailability)
	}

	r.GET("/users/:username", s.getUser)

	if s.deps.Login != nil {
		r.POST("/auth/token", s.issueToken)
	}
	if s.deps.Health != nil {
		r.GET("/healthz", s.healthz)
	}
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
