package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avionix/bite-engine/internal/engine"
	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

// Service is the command and query surface the handlers expose over HTTP.
// Implemented by services.BITEService.
type Service interface {
	ApplyFault(ctx context.Context, sensorID string, mode models.FaultMode) error
	ClearAllFaults(ctx context.Context) error
	RunBITE(ctx context.Context, sensor string) ([]models.BITEResult, error)
	SetInterval(ctx context.Context, ms int) (time.Duration, error)
	Interval(ctx context.Context) (time.Duration, error)
	Sensors(ctx context.Context) ([]models.SensorStatus, error)
	Samples(ctx context.Context, sensorID string) ([]models.Sample, error)
	Faults(ctx context.Context, q models.FaultQuery) ([]models.FaultEvent, error)
	Summary(ctx context.Context) (models.FaultSummary, error)
	Recommendation(ctx context.Context) (string, error)
}

// Handlers binds the service to gin routes.
type Handlers struct {
	svc    Service
	logger *slog.Logger
}

// NewHandlers constructs the route handlers.
func NewHandlers(svc Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// Register attaches all routes to the router.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/healthz", h.healthz)

	v1 := router.Group("/api/v1")
	v1.GET("/sensors", h.listSensors)
	v1.GET("/sensors/:id/samples", h.sensorSamples)
	v1.POST("/sensors/:id/fault", h.applyFault)
	v1.POST("/faults/clear", h.clearFaults)
	v1.GET("/faults", h.listFaults)
	v1.GET("/faults/summary", h.faultSummary)
	v1.POST("/bite/run", h.runBITE)
	v1.GET("/interval", h.getInterval)
	v1.PUT("/interval", h.setInterval)
	v1.GET("/recommendation", h.recommendation)
}

func (h *Handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) listSensors(c *gin.Context) {
	sensors, err := h.svc.Sensors(c.Request.Context())
	if err != nil {
		h.fail(c, "list sensors", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensors": sensors})
}

func (h *Handlers) sensorSamples(c *gin.Context) {
	samples, err := h.svc.Samples(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "sensor samples", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensor_id": c.Param("id"), "samples": samples})
}

func (h *Handlers) applyFault(c *gin.Context) {
	var req models.ApplyFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	sensorID := c.Param("id")
	if err := h.svc.ApplyFault(c.Request.Context(), sensorID, req.Mode); err != nil {
		h.fail(c, "apply fault", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensor_id": sensorID, "mode": req.Mode})
}

func (h *Handlers) clearFaults(c *gin.Context) {
	if err := h.svc.ClearAllFaults(c.Request.Context()); err != nil {
		h.fail(c, "clear faults", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *Handlers) listFaults(c *gin.Context) {
	q := models.FaultQuery{SensorID: c.Query("sensor")}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		q.Limit = limit
	}
	if v := c.Query("since"); v != "" {
		since, err := utils.ParseRFC3339(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since: " + err.Error()})
			return
		}
		q.Since = since
	}

	events, err := h.svc.Faults(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "list faults", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faults": events})
}

func (h *Handlers) faultSummary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "fault summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) runBITE(c *gin.Context) {
	var req models.RunBITERequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	results, err := h.svc.RunBITE(c.Request.Context(), req.Sensor)
	if err != nil {
		h.fail(c, "run BITE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handlers) getInterval(c *gin.Context) {
	interval, err := h.svc.Interval(c.Request.Context())
	if err != nil {
		h.fail(c, "get interval", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ms": interval.Milliseconds()})
}

func (h *Handlers) setInterval(c *gin.Context) {
	var req models.SetIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	effective, err := h.svc.SetInterval(c.Request.Context(), req.Ms)
	if err != nil {
		h.fail(c, "set interval", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ms": effective.Milliseconds()})
}

func (h *Handlers) recommendation(c *gin.Context) {
	rec, err := h.svc.Recommendation(c.Request.Context())
	if err != nil {
		h.fail(c, "recommendation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendation": rec})
}

// fail maps service errors onto HTTP statuses: unknown sensors are 404,
// validation failures are 400, everything else is 500.
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	var appErr *utils.AppError
	switch {
	case errors.Is(err, engine.ErrUnknownSensor):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidFaultMode), errors.As(err, &appErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
