// README: Simulation control handlers: tick, state, export, config, reset.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"

	"dispatchsim/internal/observer"
	"dispatchsim/internal/sim"
)

type SimulationHandler struct {
	world *sim.World
	hub   *observer.Hub
}

// NewSimulationHandler wires the simulation control surface. hub may be nil
// when no observer fan-out is wanted.
func NewSimulationHandler(world *sim.World, hub *observer.Hub) *SimulationHandler {
	return &SimulationHandler{world: world, hub: hub}
}

func (h *SimulationHandler) Tick(c *gin.Context) {
	res := h.world.AdvanceTick()
	if h.hub != nil {
		h.hub.Broadcast(res)
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *SimulationHandler) State(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.world.Snapshot())
}

func (h *SimulationHandler) Summary(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.world.Summary())
}

// Export streams the full snapshot as zstd-compressed JSON, suitable for
// archiving or offline replay.
func (h *SimulationHandler) Export(c *gin.Context) {
	snap := h.world.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if err := enc.Close(); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="snapshot-tick-%d.json.zst"`, snap.CurrentTick))
	c.Data(http.StatusOK, "application/zstd", buf.Bytes())
}

func (h *SimulationHandler) UpdateConfig(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cfg, err := h.world.UpdateConfig(updates)
	if err != nil {
		writeWorldError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cfg)
}

func (h *SimulationHandler) Reset(c *gin.Context) {
	h.world.Reset()
	writeJSON(c, http.StatusOK, map[string]any{"status": "reset"})
}
