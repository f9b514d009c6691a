// README: HTTP router registration.
package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/httpapi/handlers"
	"dispatchsim/internal/httpapi/middleware"
	"dispatchsim/internal/observer"
	"dispatchsim/internal/sim"
)

func NewRouter(world *sim.World, hub *observer.Hub, logger *log.Logger) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(logger), middleware.Recovery(logger))

	driverHandler := handlers.NewDriverHandler(world)
	r.POST("/api/drivers", driverHandler.Create)
	r.DELETE("/api/drivers/:id", driverHandler.Remove)
	r.GET("/api/drivers/nearby", driverHandler.Nearby)

	riderHandler := handlers.NewRiderHandler(world)
	r.POST("/api/riders", riderHandler.Create)

	rideHandler := handlers.NewRideHandler(world)
	r.POST("/api/rides", rideHandler.Create)
	r.POST("/api/rides/:id/respond", rideHandler.Respond)

	simHandler := handlers.NewSimulationHandler(world, hub)
	r.POST("/api/simulation/tick", simHandler.Tick)
	r.GET("/api/simulation/state", simHandler.State)
	r.GET("/api/simulation/export", simHandler.Export)
	r.GET("/api/simulation/summary", simHandler.Summary)
	r.PUT("/api/simulation/config", simHandler.UpdateConfig)
	r.POST("/api/simulation/reset", simHandler.Reset)

	if hub != nil {
		r.GET("/ws/observer", func(c *gin.Context) {
			hub.HandleWS(c.Writer, c.Request)
		})
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
