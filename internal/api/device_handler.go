package api

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scope-service/internal/model"
)

// DeviceHandler exposes the connected device's lifecycle: connect,
// disconnect, status and sampling control.
//
// Grounded in pattern on device-service/internal/handler/device_handler.go's
// RegisterRoutes/ConnectDevice/DisconnectDevice shape, trimmed of the
// multi-device CRUD (RegisterDevice/ListDevices/UpdateDevice/
// DeleteDevice) that database-backed fleet has and this single-USB-bus
// driver does not.
type DeviceHandler struct {
	manager *Manager
	logger  *zap.Logger
}

func NewDeviceHandler(manager *Manager, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{manager: manager, logger: logger}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	device := router.Group("/device")
	{
		device.POST("/connect", h.Connect)
		device.POST("/disconnect", h.Disconnect)
		device.GET("/status", h.Status)
		device.POST("/sampling/start", h.StartSampling)
	}
}

// connectRequest identifies the USB device to open. VendorID/ProductID
// accept either decimal or "0x"-prefixed hex. FirmwareBase64 is only
// consulted for the 6022 family's two-step load-then-reconnect flow.
type connectRequest struct {
	VendorID       string `json:"vendor_id" binding:"required"`
	ProductID      string `json:"product_id" binding:"required"`
	FirmwareBase64 string `json:"firmware_base64,omitempty"`
}

func (h *DeviceHandler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	vendorID, err := parseID(req.VendorID, "vendor_id")
	if err != nil {
		Fail(c, http.StatusBadRequest, "invalid vendor_id", err)
		return
	}
	productID, err := parseID(req.ProductID, "product_id")
	if err != nil {
		Fail(c, http.StatusBadRequest, "invalid product_id", err)
		return
	}

	var firmware []byte
	if req.FirmwareBase64 != "" {
		firmware, err = base64.StdEncoding.DecodeString(req.FirmwareBase64)
		if err != nil {
			Fail(c, http.StatusBadRequest, "invalid firmware_base64", err)
			return
		}
	}

	dev, err := h.manager.Connect(c.Request.Context(), vendorID, productID, firmware)
	if err != nil {
		h.logger.Warn("device connect failed", zap.Error(err))
		Fail(c, statusFor(err), "device connect failed", err)
		return
	}

	Success(c, http.StatusOK, "device connected", gin.H{
		"model":    dev.Record.DisplayName,
		"channels": dev.Spec.Channels,
	})
}

func (h *DeviceHandler) Disconnect(c *gin.Context) {
	h.manager.Disconnect()
	Success(c, http.StatusOK, "device disconnected", nil)
}

func (h *DeviceHandler) Status(c *gin.Context) {
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}

	Success(c, http.StatusOK, "device status", gin.H{
		"model":            dev.Record.DisplayName,
		"channels":         dev.Spec.Channels,
		"samplerate_hz":    dev.Settings.Samplerate.CurrentHz,
		"fast_rate":        dev.Settings.Samplerate.FastRate,
		"record_length_id": dev.Settings.RecordLengthID,
		"used_channels":    dev.Settings.UsedChannels,
		"session_id":       dev.Settings.SessionID,
	})
}

func (h *DeviceHandler) StartSampling(c *gin.Context) {
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusNotFound, "no device connected", err)
		return
	}
	dev.StartSampling()
	Success(c, http.StatusOK, "sampling started", nil)
}

// statusFor maps a model.Error's taxonomy onto an HTTP status; any
// other error (an unclassified transport failure) falls back to 500.
func statusFor(err error) int {
	switch model.CodeOf(err) {
	case model.ErrParameter:
		return http.StatusBadRequest
	case model.ErrUnsupported:
		return http.StatusNotImplemented
	case model.ErrAccess:
		return http.StatusForbidden
	case model.ErrConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
