// Package dummy implements a no-op device.Device used for testing the
// dispatcher and transport layers without real hardware attached.
// Grounded on original_source's trivial Dummy driver, which simply accepts
// every command and reports itself connected.
package dummy

import (
	"context"
	"sync"

	"gimbal-control/internal/device"
)

// Driver accepts every operation and never fails; IsConnected reports
// whatever Connect/Disconnect last left it as.
type Driver struct {
	id        string
	name      string
	mu        sync.Mutex
	connected bool
}

func New(id string, cfg device.DeviceConfig) *Driver {
	name := cfg.Name
	if name == "" {
		name = id
	}
	return &Driver{id: id, name: name}
}

func (d *Driver) ID() string   { return d.id }
func (d *Driver) Name() string { return d.name }

func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return nil
}

func (d *Driver) Reconnect(ctx context.Context) error {
	return d.Connect(ctx)
}

func (d *Driver) SendCommand(ctx context.Context, cmd device.Command) error {
	return nil
}

func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}
