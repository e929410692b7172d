package crane

import (
	"context"
	"time"

	"tinygo.org/x/bluetooth"

	"gimbal-control/internal/device"
)

var defaultAdapter = bluetooth.DefaultAdapter

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
