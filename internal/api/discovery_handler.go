package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/gousb"
	"go.uber.org/zap"

	"scope-service/internal/registry"
)

// DiscoveryHandler enumerates attached USB devices and reports which
// ones the registry recognizes (spec §3 "connect populates spec" has
// to start from somewhere — a caller needs to know which bus addresses
// are worth a connect attempt).
//
// Grounded in pattern on
// device-service/internal/discovery/usb/scanner.go's enumerate-then-
// classify shape, generalized from that scanner's continuous polling
// loop (which feeds a discovery-event channel) to a one-shot scan this
// package serves on demand, since this driver has one client at a time
// rather than a hot-plug fleet to track.
type DiscoveryHandler struct {
	logger *zap.Logger
}

func NewDiscoveryHandler(logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{logger: logger}
}

func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/discovery/scan", h.Scan)
}

type discoveredDevice struct {
	VendorID    string `json:"vendor_id"`
	ProductID   string `json:"product_id"`
	DisplayName string `json:"display_name,omitempty"`
	Recognized  bool   `json:"recognized"`
	Unofficial  bool   `json:"unofficial,omitempty"`
	Note        string `json:"note,omitempty"`
}

func (h *DiscoveryHandler) Scan(c *gin.Context) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	db := registry.NewDatabase()
	var found []discoveredDevice

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil {
		Fail(c, http.StatusInternalServerError, "USB enumeration failed", err)
		return
	}
	for _, d := range devices {
		desc := d.Desc
		entry := discoveredDevice{
			VendorID:  fmt.Sprintf("0x%04X", uint16(desc.Vendor)),
			ProductID: fmt.Sprintf("0x%04X", uint16(desc.Product)),
		}
		if rec, err := db.Lookup(desc.Vendor, desc.Product); err == nil {
			entry.Recognized = true
			entry.DisplayName = rec.DisplayName
			entry.Unofficial = rec.Unofficial
		} else if rec.FirmwareRequired {
			entry.Recognized = true
			entry.DisplayName = rec.DisplayName
			entry.Note = "firmware upload required before this device presents the DSO protocol"
		}
		found = append(found, entry)
		d.Close()
	}

	Success(c, http.StatusOK, "USB scan complete", gin.H{"devices": found})
}
