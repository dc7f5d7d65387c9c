// README: Base handler utilities (JSON helpers, caller resolution, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unirides/internal/http/middleware"
	"unirides/internal/modules/ride"
	"unirides/internal/modules/user"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts up to 32 alphanumerics (the ride and booking id format).
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// caller resolves the authenticated user and, when kinds are given, requires
// one of them. It writes the error response itself.
func caller(c *gin.Context, kinds ...user.Kind) (user.Ref, bool) {
	ref, err := middleware.CallerRef(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return user.Ref{}, false
	}
	if len(kinds) == 0 {
		return ref, true
	}
	for _, k := range kinds {
		if ref.Kind == k {
			return ref, true
		}
	}
	writeError(c, http.StatusForbidden, "not allowed for "+string(ref.Kind))
	return user.Ref{}, false
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrNotAuthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrNoSeats), errors.Is(err, ride.ErrAlreadyBooked),
		errors.Is(err, ride.ErrOwnRide), errors.Is(err, ride.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
