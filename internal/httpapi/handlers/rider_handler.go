// README: Rider handler for registration.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/sim"
	"dispatchsim/internal/types"
)

type RiderHandler struct {
	world *sim.World
}

func NewRiderHandler(world *sim.World) *RiderHandler {
	return &RiderHandler{world: world}
}

type createRiderReq struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

func (h *RiderHandler) Create(c *gin.Context) {
	var req createRiderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.world.AddRider(types.ID(req.ID), types.Point{X: req.X, Y: req.Y})
	if err != nil {
		writeWorldError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}
