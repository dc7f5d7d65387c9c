// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unirides/internal/http/handlers"
	"unirides/internal/http/middleware"
	"unirides/internal/infra"
)

type RouterDeps struct {
	Verifier infra.TokenVerifier
	Matcher  handlers.Matcher
	Bookings handlers.Booker
	Points   handlers.PointsReader
	Log      *slog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(d.Log), middleware.Recovery(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(d.Verifier))

	matchHandler := handlers.NewMatchHandler(d.Matcher, d.Log)
	api.POST("/rides/search/advanced", matchHandler.Search)

	bookingHandler := handlers.NewBookingHandler(d.Bookings)
	api.POST("/rides/:id/book", bookingHandler.Book)
	api.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	pointsHandler := handlers.NewPointsHandler(d.Points)
	api.GET("/users/me/points", pointsHandler.Me)

	return r
}
