package service

import (
	"context"
	"errors"

	"roombook/internal/database"
	"roombook/internal/domain"
	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/models"

	"github.com/rs/zerolog"
)

const (
	msgCreateConflict = "Unfortunately =(, the room is not available for this time slot. Either choose another room or another time."
	msgUpdateConflict = "room's not available for this updated time slot"
)

type CreateBookingRequest struct {
	UserID    int64  `json:"user_id"`
	RoomID    int64  `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// UpdateBookingRequest moves a booking to a new window. RoomID is optional
// and, when set, must name the booking's current room.
type UpdateBookingRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	RoomID    int64  `json:"room_id,omitempty"`
}

type AvailabilityRequest struct {
	RoomID    int64  `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CancelResult struct {
	Booking          *models.Booking
	AlreadyCancelled bool
}

// BookingService runs the booking lifecycle: validation, authorization,
// existence checks, conflict detection and the store writes.
type BookingService struct {
	store        domain.BookingStore
	users        domain.UserDirectory
	rooms        domain.RoomCatalog
	availability *AvailabilityChecker
	policy       Policy
	locks        *slotLocks
	eventBus     domain.EventPublisher
	logger       *zerolog.Logger
}

func NewBookingService(
	store domain.BookingStore,
	users domain.UserDirectory,
	rooms domain.RoomCatalog,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:        store,
		users:        users,
		rooms:        rooms,
		availability: NewAvailabilityChecker(store),
		policy:       DefaultPolicy,
		locks:        newSlotLocks(),
		eventBus:     eventBus,
		logger:       logger,
	}
}

func (s *BookingService) Create(ctx context.Context, caller models.Identity, req CreateBookingRequest) (booking *models.Booking, err error) {
	defer func() { s.record(OpCreate, err) }()

	if err := requireFields(
		field{"user_id", req.UserID != 0},
		field{"room_id", req.RoomID != 0},
		field{"date", req.Date != ""},
		field{"start_time", req.StartTime != ""},
		field{"end_time", req.EndTime != ""},
	); err != nil {
		return nil, err
	}
	if err := validateWindow(req.Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	rule := s.policy.Rule(OpCreate, caller.Role)
	if rule == Deny {
		return nil, s.policy.forbidden(OpCreate)
	}
	owner, err := s.lookupUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if rule == OwnerOnly && owner.Username != caller.Username {
		return nil, newError(KindAuthorization, "forbidden: you can only create bookings for yourself")
	}

	if err := s.requireRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	booking = &models.Booking{
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	release := s.locks.Lock(req.RoomID, req.Date)
	defer release()

	available, err := s.availability.IsAvailable(ctx, booking.Slot())
	if err != nil {
		return nil, internalError("could not check availability", err)
	}
	if !available {
		metrics.IncConflict()
		return nil, newError(KindConflict, msgCreateConflict)
	}

	if err := s.store.CreateBookingNoOverlap(ctx, booking); err != nil {
		if errors.Is(err, database.ErrOverlap) {
			metrics.IncConflict()
			return nil, newError(KindConflict, msgCreateConflict)
		}
		if errors.Is(err, database.ErrForeignKey) {
			return nil, newError(KindNotFound, "user or room not found")
		}
		return nil, internalError("could not create booking", err)
	}

	s.publish(events.EventBookingCreated, booking, caller)
	return booking, nil
}

func (s *BookingService) Update(ctx context.Context, caller models.Identity, bookingID int64, req UpdateBookingRequest) (booking *models.Booking, err error) {
	defer func() { s.record(OpUpdate, err) }()

	if !caller.Authenticated() {
		return nil, errAuthenticationRequired
	}

	current, err := s.authorizeBooking(ctx, OpUpdate, caller, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusCancelled {
		return nil, newError(KindConflict, "booking is cancelled and cannot be updated")
	}

	if err := requireFields(
		field{"date", req.Date != ""},
		field{"start_time", req.StartTime != ""},
		field{"end_time", req.EndTime != ""},
	); err != nil {
		return nil, err
	}
	if err := validateWindow(req.Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.RoomID != 0 && req.RoomID != current.RoomID {
		return nil, newError(KindValidation, "room_id cannot be changed")
	}

	if err := s.requireRoom(ctx, current.RoomID); err != nil {
		return nil, err
	}

	release := s.locks.Lock(current.RoomID, req.Date)
	defer release()

	slot := models.Slot{RoomID: current.RoomID, Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime}
	available, err := s.availability.IsAvailableExcluding(ctx, slot, current.ID)
	if err != nil {
		return nil, internalError("could not check availability", err)
	}
	if !available {
		metrics.IncConflict()
		return nil, newError(KindConflict, msgUpdateConflict)
	}

	booking, err = s.store.UpdateScheduleNoOverlap(ctx, current.ID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrOverlap):
			metrics.IncConflict()
			return nil, newError(KindConflict, msgUpdateConflict)
		case errors.Is(err, database.ErrNotFound):
			return nil, newError(KindNotFound, "booking not found")
		}
		return nil, internalError("could not update booking", err)
	}

	s.publish(events.EventBookingUpdated, booking, caller)
	return booking, nil
}

func (s *BookingService) Cancel(ctx context.Context, caller models.Identity, bookingID int64) (result CancelResult, err error) {
	defer func() { s.record(OpCancel, err) }()

	if !caller.Authenticated() {
		return CancelResult{}, errAuthenticationRequired
	}

	booking, err := s.authorizeBooking(ctx, OpCancel, caller, bookingID)
	if err != nil {
		return CancelResult{}, err
	}

	if booking.Status == models.StatusCancelled {
		return CancelResult{Booking: booking, AlreadyCancelled: true}, nil
	}

	changed, err := s.store.CancelBooking(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return CancelResult{}, newError(KindNotFound, "booking not found")
		}
		return CancelResult{}, internalError("could not cancel booking", err)
	}
	booking.Status = models.StatusCancelled
	if !changed {
		// another request cancelled it after we read it
		return CancelResult{Booking: booking, AlreadyCancelled: true}, nil
	}

	s.publish(events.EventBookingCancelled, booking, caller)
	return CancelResult{Booking: booking}, nil
}

// ListAll returns every booking, cancelled ones included, ordered by date and start time.
func (s *BookingService) ListAll(ctx context.Context, caller models.Identity) ([]*models.Booking, error) {
	return s.listAll(ctx, caller, OpListAll)
}

// ExportBookings returns the bookings for a spreadsheet export.
func (s *BookingService) ExportBookings(ctx context.Context, caller models.Identity) ([]*models.Booking, error) {
	return s.listAll(ctx, caller, OpExport)
}

func (s *BookingService) listAll(ctx context.Context, caller models.Identity, op Operation) (bookings []*models.Booking, err error) {
	defer func() { s.record(op, err) }()

	if !caller.Authenticated() {
		return nil, errAuthenticationRequired
	}
	if s.policy.Rule(op, caller.Role) != Allow {
		return nil, s.policy.forbidden(op)
	}

	bookings, err = s.store.ListBookings(ctx)
	if err != nil {
		return nil, internalError("could not list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) ListForUser(ctx context.Context, caller models.Identity, userID int64) (bookings []*models.Booking, err error) {
	defer func() { s.record(OpListForUser, err) }()

	if !caller.Authenticated() {
		return nil, errAuthenticationRequired
	}
	rule := s.policy.Rule(OpListForUser, caller.Role)
	if rule == Deny {
		return nil, s.policy.forbidden(OpListForUser)
	}

	target, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rule == OwnerOnly && target.Username != caller.Username {
		return nil, newError(KindAuthorization, "forbidden: you can only view your own bookings")
	}

	bookings, err = s.store.ListUserBookings(ctx, target.ID)
	if err != nil {
		return nil, internalError("could not list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) CheckAvailability(ctx context.Context, caller models.Identity, req AvailabilityRequest) (available bool, err error) {
	defer func() { s.record(OpCheckAvailability, err) }()

	if !caller.Authenticated() {
		return false, errAuthenticationRequired
	}
	if s.policy.Rule(OpCheckAvailability, caller.Role) == Deny {
		return false, s.policy.forbidden(OpCheckAvailability)
	}

	if req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return false, newError(KindValidation, "date, start_time, end_time are required")
	}
	if err := validateWindow(req.Date, req.StartTime, req.EndTime); err != nil {
		return false, err
	}
	if err := s.requireRoom(ctx, req.RoomID); err != nil {
		return false, err
	}

	available, err = s.availability.IsAvailable(ctx, models.Slot{
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return false, internalError("could not check availability", err)
	}
	return available, nil
}

// authorizeBooking loads the booking and applies the policy for op,
// resolving the owner when the caller's rule is OwnerOnly.
func (s *BookingService) authorizeBooking(ctx context.Context, op Operation, caller models.Identity, bookingID int64) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(KindNotFound, "booking not found")
		}
		return nil, internalError("could not load booking", err)
	}

	owner, err := s.lookupUser(ctx, booking.UserID)
	if err != nil {
		return nil, err
	}

	switch s.policy.Rule(op, caller.Role) {
	case Allow:
		return booking, nil
	case OwnerOnly:
		if owner.Username == caller.Username {
			return booking, nil
		}
		return nil, newError(KindAuthorization, "forbidden: you can only %s your own bookings", op)
	default:
		return nil, s.policy.forbidden(op)
	}
}

func (s *BookingService) lookupUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(KindNotFound, "user not found")
		}
		return nil, internalError("could not load user", err)
	}
	return user, nil
}

func (s *BookingService) requireRoom(ctx context.Context, roomID int64) error {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return newError(KindNotFound, "room not found")
		}
		return internalError("could not load room", err)
	}
	return nil
}

func (s *BookingService) record(op Operation, err error) {
	result := "ok"
	if err != nil {
		kind := KindOf(err)
		result = kind.String()
		if kind == KindInternal {
			s.logger.Error().Err(err).Str("op", string(op)).Msg("booking operation failed")
		}
	}
	metrics.IncBookingOp(string(op), result)
}

func (s *BookingService) publish(eventType string, booking *models.Booking, caller models.Identity) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		RoomID:        booking.RoomID,
		Date:          booking.Date,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		Status:        booking.Status,
		ChangedBy:     caller.Username,
		ChangedByRole: caller.Role,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
