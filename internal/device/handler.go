package device

import (
	"net/http"
	"strconv"
	"strings"

	"controlling_motor/internal/logger"

	"github.com/gin-gonic/gin"
)

// Handler serves a Simulator over the controller's plain-text endpoints.
type Handler struct {
	sim *Simulator
	log *logger.Logger
}

func NewHandler(sim *Simulator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sim: sim, log: log}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(PathSetModel, h.setModel)
	router.GET(PathSetSpeed, h.intValue(h.sim.SetSpeed))
	router.GET(PathSetAcceleration, h.intValue(h.sim.SetAcceleration))
	router.GET(PathStart, func(c *gin.Context) {
		h.sim.Start()
		h.ok(c, "start", "")
	})
	router.GET(PathStop, func(c *gin.Context) {
		h.sim.Stop()
		h.ok(c, "stop", "")
	})
	router.GET(PathGetSpeed, func(c *gin.Context) {
		c.String(http.StatusOK, "%d\n", h.sim.Speed())
	})
	router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.sim.State())
	})
	return router
}

func (h *Handler) setModel(c *gin.Context) {
	v := strings.TrimSpace(c.Query("value"))
	if v == "" {
		c.String(http.StatusBadRequest, "missing value\n")
		return
	}
	h.sim.SetModel(v)
	h.ok(c, "setModel", v)
}

func (h *Handler) intValue(set func(int)) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("value")
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			c.String(http.StatusBadRequest, "invalid value %q\n", raw)
			return
		}
		set(v)
		h.ok(c, strings.TrimPrefix(c.FullPath(), "/"), raw)
	}
}

func (h *Handler) ok(c *gin.Context, cmd, value string) {
	h.log.Infow("sim_command", "command", cmd, "value", value)
	c.String(http.StatusOK, "OK\n")
}
