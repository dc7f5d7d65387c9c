// README: Advanced ride search handler.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unirides/internal/modules/matching"
	"unirides/internal/modules/user"
)

type Matcher interface {
	FindAdvancedMatches(ctx context.Context, c matching.SearchCriteria, prefs *matching.Preferences) (matching.Outcome, error)
}

type MatchHandler struct {
	matcher Matcher
	log     *slog.Logger
}

func NewMatchHandler(m Matcher, log *slog.Logger) *MatchHandler {
	return &MatchHandler{matcher: m, log: log}
}

type advancedSearchReq struct {
	Pickup        string                `json:"pickup_location" binding:"required"`
	Dropoff       string                `json:"dropoff_location" binding:"required"`
	DepartureTime time.Time             `json:"departure_time" binding:"required"`
	MaxPrice      *float64              `json:"max_price" binding:"omitempty,gte=0"`
	Preferences   *matching.Preferences `json:"preferences"`
}

// Search never answers 5xx: retrieval failures come back as an empty list.
func (h *MatchHandler) Search(c *gin.Context) {
	ref, ok := caller(c, user.KindPassenger)
	if !ok {
		return
	}
	var req advancedSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid search request")
		return
	}

	out, err := h.matcher.FindAdvancedMatches(c.Request.Context(), matching.SearchCriteria{
		PassengerID:   ref.ID,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		DepartureTime: req.DepartureTime,
		MaxPrice:      req.MaxPrice,
	}, req.Preferences)
	switch {
	case errors.Is(err, matching.ErrInvalidCriteria):
		writeError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.WarnContext(c.Request.Context(), "advanced search returned no candidates",
			"passenger_id", ref.ID, "error", err)
		out = matching.Outcome{Matches: []matching.MatchResult{}, Message: matching.NoMatchesMessage}
	}
	if out.Matches == nil {
		out.Matches = []matching.MatchResult{}
	}
	writeJSON(c, http.StatusOK, out)
}
