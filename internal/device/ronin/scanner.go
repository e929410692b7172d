package ronin

import (
	"context"
	"time"

	"tinygo.org/x/bluetooth"

	"gimbal-control/internal/device"
)

var defaultAdapter = bluetooth.DefaultAdapter

// findPeripheral scans with no filter for up to ten 500ms windows, matching
// on the exact local name, the way the teacher's Scanner.scanBLE /
// processDiscoveredDevice pair does but generalized from "DJI-ish name
// contains" matching to an exact-name match per spec §4.2.
func findPeripheral(ctx context.Context, adapter *bluetooth.Adapter, name string) (bluetooth.Address, error) {
	if err := adapter.Enable(); err != nil {
		return bluetooth.Address{}, err
	}

	found := make(chan bluetooth.Address, 1)
	scanErr := make(chan error, 1)

	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() == name {
				select {
				case found <- result.Address:
				default:
				}
			}
		})
		if err != nil {
			select {
			case scanErr <- err:
			default:
			}
		}
	}()
	defer adapter.StopScan()

	timer := time.NewTimer(10 * 500 * time.Millisecond)
	defer timer.Stop()

	select {
	case addr := <-found:
		return addr, nil
	case err := <-scanErr:
		return bluetooth.Address{}, err
	case <-timer.C:
		return bluetooth.Address{}, &device.ErrDeviceNotFound{Name: name}
	case <-ctx.Done():
		return bluetooth.Address{}, ctx.Err()
	}
}

// shortUUID expands a 16-bit Bluetooth SIG UUID into its 128-bit Base UUID
// form the way the teacher's DJI_FFF4_UUID/DJI_FFF5_UUID literals do: the
// byte-reversed form of 0000XXXX-0000-1000-8000-00805F9B34FB.
func shortUUID(short uint16) bluetooth.UUID {
	std := [16]byte{
		0x00, 0x00, byte(short >> 8), byte(short),
		0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0x80,
		0x5f, 0x9b, 0x34, 0xfb,
	}
	var rev [16]byte
	for i := 0; i < 16; i++ {
		rev[i] = std[15-i]
	}
	return bluetooth.NewUUID(rev)
}
