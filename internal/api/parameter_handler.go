package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParameterHandler exposes the resolver's setters (spec §3's
// samplerate/trigger-position/trigger-level/offset/gain operations)
// over HTTP. Grounded in pattern on
// device-service/internal/handler/device_handler.go's UpdateDeviceConfig
// endpoint, generalized from one freeform config blob to one endpoint
// per resolver method since each has its own argument shape and
// clamped-value return.
type ParameterHandler struct {
	manager *Manager
	logger  *zap.Logger
}

func NewParameterHandler(manager *Manager, logger *zap.Logger) *ParameterHandler {
	return &ParameterHandler{manager: manager, logger: logger}
}

func (h *ParameterHandler) RegisterRoutes(router *gin.RouterGroup) {
	params := router.Group("/device/parameters")
	{
		params.PUT("/samplerate", h.SetSamplerate)
		params.PUT("/trigger-position", h.SetTriggerPosition)
		params.PUT("/trigger-level", h.SetTriggerLevel)
		params.PUT("/offset", h.SetOffset)
		params.PUT("/gain", h.SetGain)
	}
}

type samplerateRequest struct {
	RequestedHz float64 `json:"requested_hz" binding:"required"`
	FastRate    bool    `json:"fast_rate"`
	Maximum     bool    `json:"maximum"`
}

func (h *ParameterHandler) SetSamplerate(c *gin.Context) {
	var req samplerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}

	downsampler, achievedHz := dev.Resolver.BestSamplerate(req.RequestedHz, req.FastRate, req.Maximum)
	applied, err := dev.Resolver.ApplySamplerate(downsampler, req.FastRate)
	if err != nil {
		Fail(c, statusFor(err), "set samplerate failed", err)
		return
	}

	Success(c, http.StatusOK, "samplerate applied", gin.H{
		"downsampler": downsampler,
		"achieved_hz": achievedHz,
		"changed":     applied,
	})
}

type triggerPositionRequest struct {
	Seconds float64 `json:"seconds"`
}

func (h *ParameterHandler) SetTriggerPosition(c *gin.Context) {
	var req triggerPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}
	if err := dev.Resolver.ApplyTriggerPosition(req.Seconds); err != nil {
		Fail(c, statusFor(err), "set trigger position failed", err)
		return
	}
	Success(c, http.StatusOK, "trigger position applied", nil)
}

type triggerLevelRequest struct {
	Channel int     `json:"channel"`
	Volts   float64 `json:"volts"`
}

func (h *ParameterHandler) SetTriggerLevel(c *gin.Context) {
	var req triggerLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}
	clamped, err := dev.Resolver.ApplyTriggerLevel(req.Channel, req.Volts)
	if err != nil {
		Fail(c, statusFor(err), "set trigger level failed", err)
		return
	}
	Success(c, http.StatusOK, "trigger level applied", gin.H{"applied_volts": clamped})
}

type offsetRequest struct {
	Channel  int     `json:"channel"`
	Fraction float64 `json:"fraction"`
}

func (h *ParameterHandler) SetOffset(c *gin.Context) {
	var req offsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}
	if err := dev.Resolver.ApplyOffset(req.Channel, req.Fraction); err != nil {
		Fail(c, statusFor(err), "set offset failed", err)
		return
	}
	Success(c, http.StatusOK, "offset applied", nil)
}

type gainRequest struct {
	Channel     int     `json:"channel"`
	RequestedVD float64 `json:"requested_volts_per_div"`
}

func (h *ParameterHandler) SetGain(c *gin.Context) {
	var req gainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}
	achieved, err := dev.Resolver.SetGain(req.Channel, req.RequestedVD)
	if err != nil {
		Fail(c, statusFor(err), "set gain failed", err)
		return
	}
	Success(c, http.StatusOK, "gain applied", gin.H{"achieved_volts_per_div": achieved})
}
