// README: Driver handlers for create, remove, and nearby queries.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/sim"
	"dispatchsim/internal/types"
)

type DriverHandler struct {
	world *sim.World
}

func NewDriverHandler(world *sim.World) *DriverHandler {
	return &DriverHandler{world: world}
}

type createDriverReq struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

func (h *DriverHandler) Create(c *gin.Context) {
	var req createDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.world.AddDriver(types.ID(req.ID), types.Point{X: req.X, Y: req.Y})
	if err != nil {
		writeWorldError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

func (h *DriverHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing driver id")
		return
	}
	if err := h.world.RemoveDriver(types.ID(id)); err != nil {
		writeWorldError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"removed": id})
}

func (h *DriverHandler) Nearby(c *gin.Context) {
	x, errX := strconv.Atoi(c.Query("x"))
	y, errY := strconv.Atoi(c.Query("y"))
	radius, errR := strconv.Atoi(c.Query("radius"))
	if errX != nil || errY != nil || errR != nil || radius < 0 {
		writeError(c, http.StatusBadRequest, "x, y, and radius must be integers")
		return
	}
	drivers := h.world.NearbyDrivers(types.Point{X: x, Y: y}, radius)
	if drivers == nil {
		drivers = []sim.Driver{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": drivers})
}
