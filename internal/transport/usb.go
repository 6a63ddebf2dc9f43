package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// USBTransport implements Transport over a real USB device via gousb.
// Grounded on device-service/internal/protocol/usb_connection.go:
// same Open/Close/endpoint-claim shape, generalized from one
// bulk-or-nothing endpoint pair to the DSO's always-present bulk
// IN+OUT pair and an additional control endpoint 0 (gousb exposes
// control transfers directly on *gousb.Device, no claim needed).
type USBTransport struct {
	vendorID  gousb.ID
	productID gousb.ID
	bulkOut   uint8
	bulkIn    uint8

	logger *zap.Logger

	mutex      sync.Mutex
	ctx        *gousb.Context
	device     *gousb.Device
	intf       *gousb.Interface
	closeIntf  func()
	outEndpt   *gousb.OutEndpoint
	inEndpt    *gousb.InEndpoint
	disconnect func()
	closed     bool
}

// NewUSBTransport opens a connection to a specific VID/PID, claiming
// the default interface and the bulk endpoints named by bulkOut/bulkIn
// (model-specific, spec §6). Mirrors
// USBConnection.Open/findAndOpenDevice.
func NewUSBTransport(vendorID, productID gousb.ID, bulkOut, bulkIn uint8, logger *zap.Logger) (*USBTransport, error) {
	t := &USBTransport{
		vendorID:  vendorID,
		productID: productID,
		bulkOut:   bulkOut,
		bulkIn:    bulkIn,
		logger: logger.With(
			zap.String("component", "usb_transport"),
			zap.String("vendor_id", fmt.Sprintf("0x%04X", uint16(vendorID))),
			zap.String("product_id", fmt.Sprintf("0x%04X", uint16(productID))),
		),
	}

	t.ctx = gousb.NewContext()

	device, err := t.findAndOpenDevice()
	if err != nil {
		t.ctx.Close()
		return nil, fmt.Errorf("find USB device: %w", err)
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		t.ctx.Close()
		return nil, fmt.Errorf("claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(int(bulkOut))
	if err != nil {
		done()
		device.Close()
		t.ctx.Close()
		return nil, fmt.Errorf("get bulk out endpoint: %w", err)
	}

	inEndpt, err := intf.InEndpoint(int(bulkIn))
	if err != nil {
		done()
		device.Close()
		t.ctx.Close()
		return nil, fmt.Errorf("get bulk in endpoint: %w", err)
	}

	t.device = device
	t.intf = intf
	t.closeIntf = done
	t.outEndpt = outEndpt
	t.inEndpt = inEndpt

	t.logger.Info("USB transport opened")
	return t, nil
}

func (t *USBTransport) findAndOpenDevice() (*gousb.Device, error) {
	devices, err := t.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == t.vendorID && desc.Product == t.productID
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate USB devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", t.vendorID, t.productID)
	}
	for i := 1; i < len(devices); i++ {
		devices[i].Close()
	}
	return devices[0], nil
}

func (t *USBTransport) BulkWrite(ctx context.Context, data []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrNoDevice
	}

	n, err := t.outEndpt.WriteContext(ctx, data)
	if err != nil {
		return t.classify(err)
	}
	if n != len(data) {
		return fmt.Errorf("incomplete bulk write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

func (t *USBTransport) BulkRead(ctx context.Context, buf []byte) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return 0, ErrNoDevice
	}

	n, err := t.inEndpt.ReadContext(ctx, buf)
	if err != nil && n == 0 {
		return 0, t.classify(err)
	}
	return n, nil
}

func (t *USBTransport) ControlWrite(ctx context.Context, request uint8, value, index uint16, data []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrNoDevice
	}

	_, err := t.device.Control(
		gousb.ControlOut|gousb.ControlVendor|gousb.ControlDevice,
		request, value, index, data,
	)
	if err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *USBTransport) ControlRead(ctx context.Context, request uint8, value, index uint16, length int) ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return nil, ErrNoDevice
	}

	buf := make([]byte, length)
	n, err := t.device.Control(
		gousb.ControlIn|gousb.ControlVendor|gousb.ControlDevice,
		request, value, index, buf,
	)
	if err != nil {
		return nil, t.classify(err)
	}
	return buf[:n], nil
}

func (t *USBTransport) MaxPacketSize() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.inEndpt == nil {
		return 64
	}
	return t.inEndpt.Desc.MaxPacketSize
}

func (t *USBTransport) SetDisconnectCallback(fn func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.disconnect = fn
}

func (t *USBTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.closeIntf != nil {
		t.closeIntf()
	}
	if t.device != nil {
		t.device.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	t.logger.Info("USB transport closed")
	return nil
}

// classify maps a gousb error onto ErrNoDevice once the transport has
// been closed; otherwise the error is returned as-is and the caller
// (CommandQueues.Flush or the acquisition loop) logs it and retries on
// the next iteration (spec §4.7, §7). gousb reports a physically
// unplugged device as a LIBUSB_ERROR_NO_DEVICE transfer status rather
// than a typed Go error we can match here, so callers that see
// repeated failures are expected to call Close, which makes every
// subsequent call return ErrNoDevice and fires the disconnect
// callback.
func (t *USBTransport) classify(err error) error {
	if err == nil {
		return nil
	}
	if t.closed {
		return ErrNoDevice
	}
	return fmt.Errorf("usb transfer error: %w", err)
}
