// README: Ride handlers for requests and driver responses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/sim"
	"dispatchsim/internal/types"
)

type RideHandler struct {
	world *sim.World
}

func NewRideHandler(world *sim.World) *RideHandler {
	return &RideHandler{world: world}
}

type pointReq struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type createRideReq struct {
	RiderID string   `json:"rider_id"`
	Pickup  pointReq `json:"pickup"`
	Dropoff pointReq `json:"dropoff"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RiderID == "" {
		writeError(c, http.StatusBadRequest, "missing rider_id")
		return
	}
	ride, err := h.world.CreateRideRequest(
		types.ID(req.RiderID),
		types.Point{X: req.Pickup.X, Y: req.Pickup.Y},
		types.Point{X: req.Dropoff.X, Y: req.Dropoff.Y},
	)
	if err != nil {
		writeWorldError(c, err)
		return
	}

	// New requests are offered to a driver right away rather than waiting
	// for the next tick; rejections cascade through fallback dispatch.
	if ok, driverID := h.world.DispatchRide(ride.ID); ok {
		h.world.AutoProcessAcceptance(driverID, ride.ID)
	}
	if current, err := h.world.Ride(ride.ID); err == nil {
		ride = current
	}
	writeJSON(c, http.StatusCreated, ride)
}

type respondReq struct {
	DriverID string `json:"driver_id"`
	Accepted *bool  `json:"accepted"`
}

// Respond applies a driver's manual accept/reject for an assigned ride. A
// response that no longer matches the assignment (stale driver, ride already
// moved on) is a conflict, not an error.
func (h *RideHandler) Respond(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" || req.Accepted == nil {
		writeError(c, http.StatusBadRequest, "driver_id and accepted are required")
		return
	}

	if !h.world.ProcessResponse(types.ID(req.DriverID), types.ID(id), *req.Accepted) {
		writeError(c, http.StatusConflict, "response does not match the current assignment")
		return
	}
	ride, err := h.world.Ride(types.ID(id))
	if err != nil {
		writeWorldError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ride)
}
