// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatchsim/internal/sim"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeWorldError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sim.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, sim.ErrDuplicateID),
		errors.Is(err, sim.ErrBadCoordinate),
		errors.Is(err, sim.ErrBadRadius),
		errors.Is(err, sim.ErrUnknownRider),
		errors.Is(err, sim.ErrUnknownConfigKey),
		errors.Is(err, sim.ErrBadConfigValue):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrDriverBusy),
		errors.Is(err, sim.ErrInvalidTransition):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
