// README: Booking handlers: book a seat, confirm, cancel.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"unirides/internal/modules/ride"
	"unirides/internal/modules/user"
	"unirides/internal/types"
)

type Booker interface {
	Book(ctx context.Context, passengerID, rideID types.ID) (ride.Booking, error)
	Confirm(ctx context.Context, bookingID, driverID types.ID) (ride.Booking, error)
	Cancel(ctx context.Context, bookingID types.ID, actor user.Ref) (ride.Booking, error)
}

type BookingHandler struct {
	rides Booker
}

func NewBookingHandler(rides Booker) *BookingHandler {
	return &BookingHandler{rides: rides}
}

func (h *BookingHandler) Book(c *gin.Context) {
	ref, ok := caller(c, user.KindPassenger)
	if !ok {
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	b, err := h.rides.Book(c.Request.Context(), ref.ID, types.ID(id))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	ref, ok := caller(c, user.KindDriver)
	if !ok {
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return
	}
	b, err := h.rides.Confirm(c.Request.Context(), types.ID(id), ref.ID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	ref, ok := caller(c, user.KindPassenger, user.KindDriver)
	if !ok {
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return
	}
	b, err := h.rides.Cancel(c.Request.Context(), types.ID(id), ref)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}
