// README: Loyalty points handler for the signed-in user.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"unirides/internal/modules/points"
	"unirides/internal/modules/user"
)

type PointsReader interface {
	Balance(ctx context.Context, ref user.Ref) int
	History(ctx context.Context, ref user.Ref, limit int) ([]points.Activity, error)
}

type PointsHandler struct {
	points PointsReader
}

func NewPointsHandler(p PointsReader) *PointsHandler {
	return &PointsHandler{points: p}
}

func (h *PointsHandler) Me(c *gin.Context) {
	ref, ok := caller(c, user.KindPassenger, user.KindDriver)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	balance := h.points.Balance(c.Request.Context(), ref)
	history, err := h.points.History(c.Request.Context(), ref, limit)
	if err != nil && !errors.Is(err, points.ErrNoLedger) {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if history == nil {
		history = []points.Activity{}
	}
	writeJSON(c, http.StatusOK, gin.H{"points": balance, "activity": history})
}
