package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"scope-service/internal/config"
	"scope-service/internal/device"
	"scope-service/internal/model"
)

// Manager owns the single connected device this process drives.
// device-service's DeviceService manages a fleet of database-backed
// devices; this driver talks to one USB bus at a time, so Manager
// trims that down to a mutex-guarded optional *device.Device (pattern
// grounded on device-service/internal/service/device_service.go's
// connect-if-absent / reject-if-already-connected guard).
type Manager struct {
	mu     sync.RWMutex
	dev    *device.Device
	cfg    *config.DeviceConfig
	logger *zap.Logger
}

// NewManager builds an empty Manager; Connect populates it.
func NewManager(cfg *config.DeviceConfig, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Connect opens vendorID/productID, replacing any previously connected
// device. Passing a non-empty firmwareBlob lets the 6022 family's
// two-step load-then-reconnect flow run through the same endpoint.
func (m *Manager) Connect(ctx context.Context, vendorID, productID gousb.ID, firmwareBlob []byte) (*device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev != nil {
		m.dev.Disconnect()
		m.dev = nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
	defer cancel()

	dev, err := device.Connect(ctx, vendorID, productID, firmwareBlob, m.logger)
	if err != nil {
		return nil, err
	}
	m.dev = dev
	return dev, nil
}

// Disconnect tears down the current device, if any.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev != nil {
		m.dev.Disconnect()
		m.dev = nil
	}
}

// Current returns the connected device, or an ErrConnection error if
// none is connected.
func (m *Manager) Current() (*device.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dev == nil {
		return nil, model.NewError(model.ErrConnection, "no device connected")
	}
	return m.dev, nil
}

func parseID(s, field string) (gousb.ID, error) {
	var v uint16
	if _, err := fmt.Sscanf(s, "0x%x", &v); err != nil {
		if _, err2 := fmt.Sscanf(s, "%d", &v); err2 != nil {
			return 0, fmt.Errorf("invalid %s %q", field, s)
		}
	}
	return gousb.ID(v), nil
}
