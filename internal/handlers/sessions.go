package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"controlling_motor/internal/models"

	"github.com/gin-gonic/gin"
)

// Response statuses of the session commands.
const (
	statusOK          = "ok"
	statusOpened      = "opened"
	statusClosed      = "closed"
	statusModelSet    = "model_set"
	statusSpeedSet    = "speed_set"
	statusAccelSet    = "acceleration_set"
	statusStarted     = "started"
	statusStopped     = "stopped"
	statusRampStarted = "ramp_started"
)

var errValueType = errors.New("value must be a string or a number")

// ValueRequest carries free operator input. Value may be a JSON string or number;
// it is normalized by the service, never rejected.
type ValueRequest struct {
	Value json.RawMessage `json:"value" swaggertype:"string" example:"1500"`
}

// maxExactFloat bounds the integers a float64 holds exactly.
const maxExactFloat = 1 << 53

// text returns the raw input as the operator typed it. A JSON number with an
// integral value is passed in integer form, so 1500.0 and 1.5e3 read as 1500.
func (r ValueRequest) text() (string, error) {
	raw := bytes.TrimSpace(r.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return numberText(string(raw)), nil
	default:
		return "", errValueType
	}
}

func numberText(raw string) string {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return raw
	}
	return strconv.FormatInt(int64(f), 10)
}

// ModelRequest selects the controller model.
type ModelRequest struct {
	Model string `json:"model" binding:"required" example:"SCK-300P"`
}

// NudgeRequest adjusts the speed field by Delta RPM.
type NudgeRequest struct {
	Delta *int `json:"delta" binding:"required" example:"100"`
}

// RunRampRequest names a stored ramp sequence.
type RunRampRequest struct {
	Name string `json:"name" binding:"required" example:"warmup"`
}

func (h *Handler) respondPanel(c *gin.Context, code int, status string, p models.PanelState) {
	c.JSON(code, gin.H{"status": status, "panel": p})
}

// bindValue reads a ValueRequest body and returns its text.
func (h *Handler) bindValue(c *gin.Context) (string, bool) {
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return "", false
	}
	v, err := req.text()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return "", false
	}
	return v, true
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  controlling_motor.StatusResponse
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   statusOK,
		"sessions": h.sessionCount(),
	})
}

func (h *Handler) sessionCount() int {
	if h.services == nil || h.services.Sessions == nil {
		return 0
	}
	return h.services.Sessions.Count()
}

// @Summary      List models
// @Description  Known controller models with their speed envelopes. Other models use [0, 9000].
// @Tags         models
// @Produce      json
// @Success      200  {array}   models.Envelope
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/models [get]
// @Security     BearerAuth
func (h *Handler) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Models())
}

// @Summary      Open session
// @Description  Creates a control session on the default model and announces that model to the device.
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  controlling_motor.CommandResponse
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      500  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions [post]
// @Security     BearerAuth
func (h *Handler) openSession(c *gin.Context) {
	p, err := h.services.Control.OpenSession(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "session_open_failed", err)
		return
	}
	h.respondPanel(c, http.StatusCreated, statusOpened, p)
}

// @Summary      Get panel
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  models.PanelState
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      404  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSession(c *gin.Context) {
	id := c.Param("id")
	p, err := h.services.Monitoring.GetPanel(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, "session_get_failed", err, "session", id)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Close session
// @Description  Cancels the session's periodic tasks and ramp. No stop command is sent.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  controlling_motor.StatusResponse
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      404  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id} [delete]
// @Security     BearerAuth
func (h *Handler) closeSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Control.CloseSession(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, "session_close_failed", err, "session", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusClosed})
}

// @Summary      Set model
// @Description  Switches the speed envelope locally, then notifies the device.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Session ID"
// @Param        body  body      ModelRequest  true  "Model payload"
// @Success      200   {object}  controlling_motor.CommandResponse
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/model [post]
// @Security     BearerAuth
func (h *Handler) setModel(c *gin.Context) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + "model is blank"})
		return
	}
	id := c.Param("id")
	p, err := h.services.Control.SetModel(c.Request.Context(), id, req.Model)
	if err != nil {
		h.respondServiceError(c, "session_set_model_failed", err, "session", id, "model", req.Model)
		return
	}
	h.respondPanel(c, http.StatusOK, statusModelSet, p)
}

// @Summary      Set speed
// @Description  Free-form input is clamped into the model envelope (non-numbers count as 0). The corrected value is echoed in panel.speed_input.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Session ID"
// @Param        body  body      ValueRequest  true  "Speed in RPM"
// @Success      200   {object}  controlling_motor.CommandResponse
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/speed [post]
// @Security     BearerAuth
func (h *Handler) setSpeed(c *gin.Context) {
	raw, ok := h.bindValue(c)
	if !ok {
		return
	}
	id := c.Param("id")
	p, err := h.services.Control.SetSpeed(c.Request.Context(), id, raw)
	if err != nil {
		h.respondServiceError(c, "session_set_speed_failed", err, "session", id)
		return
	}
	h.respondPanel(c, http.StatusOK, statusSpeedSet, p)
}

// @Summary      Set acceleration
// @Description  Integer input (RPM/s) is forwarded; anything else resets the field to 0 without contacting the device.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Session ID"
// @Param        body  body      ValueRequest  true  "Acceleration in RPM/s"
// @Success      200   {object}  controlling_motor.CommandResponse
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/acceleration [post]
// @Security     BearerAuth
func (h *Handler) setAcceleration(c *gin.Context) {
	raw, ok := h.bindValue(c)
	if !ok {
		return
	}
	id := c.Param("id")
	p, err := h.services.Control.SetAcceleration(c.Request.Context(), id, raw)
	if err != nil {
		h.respondServiceError(c, "session_set_acceleration_failed", err, "session", id)
		return
	}
	h.respondPanel(c, http.StatusOK, statusAccelSet, p)
}

// @Summary      Nudge speed
// @Description  Adds delta to the speed field and sends the clamped result.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Session ID"
// @Param        body  body      NudgeRequest  true  "Delta in RPM"
// @Success      200   {object}  controlling_motor.CommandResponse
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/nudge [post]
// @Security     BearerAuth
func (h *Handler) nudgeSpeed(c *gin.Context) {
	var req NudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	id := c.Param("id")
	p, err := h.services.Control.NudgeSpeed(c.Request.Context(), id, *req.Delta)
	if err != nil {
		h.respondServiceError(c, "session_nudge_failed", err, "session", id)
		return
	}
	h.respondPanel(c, http.StatusOK, statusSpeedSet, p)
}

// @Summary      Start motor
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  controlling_motor.CommandResponse
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      404  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/start [post]
// @Security     BearerAuth
func (h *Handler) start(c *gin.Context) {
	id := c.Param("id")
	p, err := h.services.Control.Start(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, "session_start_failed", err, "session", id)
		return
	}
	h.respondPanel(c, http.StatusOK, statusStarted, p)
}

// @Summary      Stop motor
// @Description  Stops the motor, cancels telemetry, the run timer and any ramp.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  controlling_motor.CommandResponse
// @Failure      401  {object}  controlling_motor.ErrorResponse
// @Failure      404  {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/stop [post]
// @Security     BearerAuth
func (h *Handler) stop(c *gin.Context) {
	id := c.Param("id")
	p, err := h.services.Control.Stop(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, "session_stop_failed", err, "session", id)
		return
	}
	h.respondPanel(c, http.StatusOK, statusStopped, p)
}

// @Summary      Run ramp
// @Description  Runs a stored ramp sequence: starts the motor if needed, applies each step, stops at the end.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Session ID"
// @Param        body  body      RunRampRequest  true  "Ramp name"
// @Success      202   {object}  controlling_motor.CommandResponse
// @Failure      400   {object}  controlling_motor.ErrorResponse
// @Failure      401   {object}  controlling_motor.ErrorResponse
// @Failure      404   {object}  controlling_motor.ErrorResponse
// @Failure      409   {object}  controlling_motor.ErrorResponse
// @Router       /api/v1/sessions/{id}/ramp [post]
// @Security     BearerAuth
func (h *Handler) runRamp(c *gin.Context) {
	var req RunRampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	id := c.Param("id")
	p, err := h.services.Ramps.RunSequence(c.Request.Context(), id, req.Name)
	if err != nil {
		h.respondServiceError(c, "ramp_run_failed", err, "session", id, "ramp", req.Name)
		return
	}
	h.respondPanel(c, http.StatusAccepted, statusRampStarted, p)
}
