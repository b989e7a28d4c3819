package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"roombook/internal/export"
	"roombook/internal/service"

	"github.com/gin-gonic/gin"
)

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GET /bookings
func (s *HTTPServer) listBookings(c *gin.Context) {
	bookings, err := s.deps.Bookings.ListAll(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /bookings/user/:user_id
func (s *HTTPServer) listUserBookings(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		writeError(c, http.StatusNotFound, "user not found")
		return
	}
	bookings, err := s.deps.Bookings.ListForUser(c.Request.Context(), caller, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// POST /bookings
func (s *HTTPServer) createBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := s.deps.Bookings.Create(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "booking created", "booking_id": booking.ID})
}

// PUT /bookings/:booking_id
func (s *HTTPServer) updateBooking(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		writeError(c, http.StatusNotFound, "booking not found")
		return
	}
	var req service.UpdateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := s.deps.Bookings.Update(c.Request.Context(), caller, bookingID, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking updated"})
}

// DELETE /bookings/:booking_id
func (s *HTTPServer) cancelBooking(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		writeError(c, http.StatusNotFound, "booking not found")
		return
	}
	result, err := s.deps.Bookings.Cancel(c.Request.Context(), caller, bookingID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	msg := "booking cancelled"
	if result.AlreadyCancelled {
		msg = "booking already cancelled"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// GET|POST /rooms/:room_id/availability
// GET reads the window from the query string, POST from the JSON body.
func (s *HTTPServer) checkAvailability(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	roomID, ok := paramID(c, "room_id")
	if !ok {
		writeError(c, http.StatusNotFound, "room not found")
		return
	}

	req := service.AvailabilityRequest{RoomID: roomID}
	if c.Request.Method == http.MethodGet {
		req.Date = c.Query("date")
		req.StartTime = c.Query("start_time")
		req.EndTime = c.Query("end_time")
	} else {
		if !bindJSON(c, &req) {
			return
		}
		req.RoomID = roomID
	}

	available, err := s.deps.Bookings.CheckAvailability(c.Request.Context(), caller, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "available": available})
}

// GET /bookings/export
func (s *HTTPServer) exportBookings(c *gin.Context) {
	bookings, err := s.deps.Bookings.ExportBookings(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings); err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "could not export bookings")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
