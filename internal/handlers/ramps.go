package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxRampBodyBytes = 64 << 10

// SaveRampRequest carries a ramp sequence in the "Step, Speed (rpm), Dwell Time (s)" text format.
type SaveRampRequest struct {
	Sequence string `json:"sequence" binding:"required" example:"Step, Speed (rpm), Dwell Time (s)\n1, 500, 30\n2, 1400, 40"`
}

// rampText reads the sequence either from a JSON body or as plain text.
func rampText(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "text/") {
		b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRampBodyBytes))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	var req SaveRampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", err
	}
	return req.Sequence, nil
}

// @Summary      Save ramp sequence
// @Description  Stores a ramp sequence under name, replacing any previous one. Accepts JSON or a text/plain body.
// @Tags         ramps
// @Accept       json,plain
// @Produce      json
// @Param        name  path      string           true  "Sequence name"
// @Param        body  body      SaveRampRequest  true  "Sequence"
// @Success      200   {object}  models.RampSequence
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      500   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/ramps/{name} [put]
// @Security     BearerAuth
func (h *Handler) saveRamp(c *gin.Context) {
	text, err := rampText(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	name := c.Param("name")
	seq, err := h.services.Ramps.SaveSequence(c.Request.Context(), name, text)
	if err != nil {
		h.respondServiceError(c, "ramp_save_failed", err, "ramp", name)
		return
	}
	c.JSON(http.StatusOK, seq)
}

// @Summary      Get ramp sequence
// @Tags         ramps
// @Produce      json
// @Param        name  path      string  true  "Sequence name"
// @Success      200   {object}  models.RampSequence
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/ramps/{name} [get]
// @Security     BearerAuth
func (h *Handler) getRamp(c *gin.Context) {
	name := c.Param("name")
	seq, err := h.services.Ramps.GetSequence(c.Request.Context(), name)
	if err != nil {
		h.respondServiceError(c, "ramp_get_failed", err, "ramp", name)
		return
	}
	c.JSON(http.StatusOK, seq)
}

// @Summary      List ramp sequences
// @Tags         ramps
// @Produce      json
// @Success      200  {array}   models.RampSequence
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      500  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/ramps [get]
// @Security     BearerAuth
func (h *Handler) listRamps(c *gin.Context) {
	list, err := h.services.Ramps.ListSequences(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "ramp_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
