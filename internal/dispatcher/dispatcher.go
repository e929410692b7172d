// Package dispatcher owns the fleet of configured devices and is the single
// consumer of inbound Operations: it fans Command out in parallel across
// targeted devices, serializes Disconnect/Reconnect, persists
// SaveDefaultControls, and republishes a state Snapshot after anything that
// changes connectivity or config.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gimbal-control/internal/config"
	"gimbal-control/internal/device"
	"gimbal-control/internal/logger"
	"gimbal-control/internal/snapshot"
)

type deviceEntry struct {
	id     string
	driver device.Device
}

// Dispatcher holds the ordered device list and the config handle needed to
// persist SaveDefaultControls, and publishes Snapshots to a single consumer.
type Dispatcher struct {
	instance string
	cfgMgr   *config.Manager

	devices []*deviceEntry
	byID    map[string]*deviceEntry

	groups          []device.Group
	defaultControls []device.Mappings

	inbound  chan Operation
	outbound chan<- snapshot.Snapshot
}

// NewDispatcher builds a driver for every configured device, in config
// order, but does not connect any of them; call Start for that.
func NewDispatcher(cfgMgr *config.Manager, outbound chan<- snapshot.Snapshot) (*Dispatcher, error) {
	cfg := cfgMgr.Get()

	d := &Dispatcher{
		instance:        uuid.NewString(),
		cfgMgr:          cfgMgr,
		byID:            make(map[string]*deviceEntry, len(cfg.Devices)),
		groups:          cfg.Groups,
		defaultControls: cfg.DefaultControls,
		inbound:         make(chan Operation, 16),
		outbound:        outbound,
	}

	for _, e := range cfg.Devices {
		drv, err := BuildDriver(e.ID, e.Config)
		if err != nil {
			return nil, err
		}
		entry := &deviceEntry{id: e.ID, driver: drv}
		d.devices = append(d.devices, entry)
		d.byID[e.ID] = entry
	}
	return d, nil
}

// Submit enqueues an Operation for the dispatcher's consumer loop.
func (d *Dispatcher) Submit(op Operation) {
	d.inbound <- op
}

// Start connects every device in id order. If any connect fails, every
// device that had already succeeded is disconnected again and the original
// error is returned (spec §4.5).
func (d *Dispatcher) Start(ctx context.Context) error {
	for i, e := range d.devices {
		if err := e.driver.Connect(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if uerr := d.devices[j].driver.Disconnect(ctx); uerr != nil {
					logger.Warn("dispatcher: unwind disconnect %s: %v", d.devices[j].id, uerr)
				}
			}
			return fmt.Errorf("connect %s: %w", e.id, err)
		}
	}
	d.publishSnapshot()
	return nil
}

// Run is the dispatcher's single-consumer loop. It returns when the context
// is canceled, a Shutdown operation is processed, or a SaveDefaultControls
// persist fails (that error propagates per spec §7).
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op := <-d.inbound:
			done, err := d.handle(ctx, op)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, op Operation) (shutdown bool, err error) {
	switch op.Type {
	case OpCommand:
		d.fanOutParallel(ctx, op.Devices, func(drv device.Device) error {
			return drv.SendCommand(ctx, op.Command)
		})
		return false, nil

	case OpDisconnect:
		d.fanOutSequential(ctx, op.Devices, func(drv device.Device) error {
			return drv.Disconnect(ctx)
		})
		d.publishSnapshot()
		return false, nil

	case OpReconnect:
		d.fanOutSequential(ctx, op.Devices, func(drv device.Device) error {
			return drv.Reconnect(ctx)
		})
		d.publishSnapshot()
		return false, nil

	case OpSaveDefaultControls:
		cfg := d.cfgMgr.Get()
		cfg.DefaultControls = device.TrimTrailingEmpty(op.Mappings)
		if err := d.cfgMgr.Update(cfg); err != nil {
			return false, fmt.Errorf("save default controls: %w", err)
		}
		d.defaultControls = cfg.DefaultControls
		d.publishSnapshot()
		return false, nil

	case OpShutdown:
		d.publishEmptySnapshot()
		for _, e := range d.devices {
			if err := e.driver.Disconnect(ctx); err != nil {
				logger.Warn("dispatcher: shutdown disconnect %s: %v", e.id, err)
			}
		}
		return true, nil

	default:
		logger.Warn("dispatcher: ignoring unknown operation %q", op.Type)
		return false, nil
	}
}

// fanOutParallel runs fn against every targeted device concurrently,
// logging and swallowing each individual failure (spec §7: Command errors
// never propagate).
func (d *Dispatcher) fanOutParallel(ctx context.Context, ids []string, fn func(device.Device) error) {
	targets := d.resolve(ids)
	var wg sync.WaitGroup
	for _, e := range targets {
		wg.Add(1)
		go func(e *deviceEntry) {
			defer wg.Done()
			if err := fn(e.driver); err != nil {
				logger.Warn("dispatcher: %s: %v", e.id, err)
			}
		}(e)
	}
	wg.Wait()
}

// fanOutSequential runs fn against every targeted device one at a time,
// since Disconnect/Reconnect share the BLE adapter and notify-bypass state
// that parallel connects would race on (spec §5).
func (d *Dispatcher) fanOutSequential(ctx context.Context, ids []string, fn func(device.Device) error) {
	for _, e := range d.resolve(ids) {
		if err := fn(e.driver); err != nil {
			logger.Warn("dispatcher: %s: %v", e.id, err)
		}
	}
}

// resolve maps a requested id list to device entries; an empty list targets
// every configured device, and unknown ids are logged and skipped.
func (d *Dispatcher) resolve(ids []string) []*deviceEntry {
	if len(ids) == 0 {
		return d.devices
	}
	out := make([]*deviceEntry, 0, len(ids))
	for _, id := range ids {
		e, ok := d.byID[id]
		if !ok {
			logger.Warn("dispatcher: unknown device id %q", id)
			continue
		}
		out = append(out, e)
	}
	return out
}

func (d *Dispatcher) publishSnapshot() {
	devices := make(map[string]snapshot.DeviceStatus, len(d.devices))
	for _, e := range d.devices {
		devices[e.id] = snapshot.DeviceStatus{
			ID:        e.id,
			Name:      e.driver.Name(),
			Connected: e.driver.IsConnected(),
		}
	}
	d.outbound <- snapshot.Snapshot{
		Instance:        d.instance,
		Groups:          d.groups,
		Devices:         devices,
		DefaultControls: d.defaultControls,
	}
}

func (d *Dispatcher) publishEmptySnapshot() {
	d.outbound <- snapshot.Snapshot{
		Instance: d.instance,
		Devices:  map[string]snapshot.DeviceStatus{},
	}
}
