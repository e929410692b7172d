package dispatcher

import (
	"fmt"

	"gimbal-control/internal/device"
	"gimbal-control/internal/device/crane"
	"gimbal-control/internal/device/dummy"
	"gimbal-control/internal/device/lanc"
	"gimbal-control/internal/device/lumix"
	"gimbal-control/internal/device/ronin"
)

// BuildDriver constructs the concrete driver for one configured device,
// switching on the "type" discriminator the same way the original config
// distinguished its device variants.
func BuildDriver(id string, cfg device.DeviceConfig) (device.Device, error) {
	switch cfg.Type {
	case device.DeviceTypeDummy:
		return dummy.New(id, cfg), nil
	case device.DeviceTypeRonin:
		return ronin.New(id, cfg), nil
	case device.DeviceTypeCrane:
		return crane.New(id, cfg), nil
	case device.DeviceTypeLumix:
		return lumix.New(id, cfg), nil
	case device.DeviceTypeLanc:
		return lanc.New(id, cfg), nil
	default:
		return nil, fmt.Errorf("device %q: unknown device type %q", id, cfg.Type)
	}
}
