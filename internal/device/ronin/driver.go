// Package ronin drives DJI Ronin-style gimbals over BLE: pan/tilt/roll is
// pushed as a single checksummed packet per command, zoom is a continuous
// target walked by a background task, and focus/autofocus are unsupported.
// Grounded on the teacher's internal/dji Controller for the connect/
// reconnect/send shape, generalized from its fixed DJI protocol to the
// framing in protocol.go.
package ronin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"

	"gimbal-control/internal/device"
	"gimbal-control/internal/device/codec"
	"gimbal-control/internal/logger"
)

// Driver implements device.Device for one Ronin-protocol gimbal.
type Driver struct {
	id          string
	name        string
	caps        map[device.Capability]struct{}
	reversePan  bool
	reverseTilt bool
	reverseRoll bool
	adapter     *bluetooth.Adapter

	mu       sync.Mutex
	conn     *connection
	seq      uint32
	lastZoom float64
}

// connection holds the live BLE session state; it is replaced wholesale on
// every (re)connect rather than mutated in place.
type connection struct {
	bleDevice bluetooth.Device
	cmdChar   bluetooth.DeviceCharacteristic

	cmdMu sync.Mutex

	notify    *notifyBypass
	zoomSpeed *zoomSignal
	zoomState zoomState
	cancel    context.CancelFunc
}

// New builds a Ronin driver from its config entry. name is the exact BLE
// local name to scan for.
func New(id string, cfg device.DeviceConfig) *Driver {
	return &Driver{
		id:          id,
		name:        cfg.Name,
		caps:        device.CapabilitySet(cfg.Capabilities),
		reversePan:  cfg.HasOption(device.OptionReversePan),
		reverseTilt: cfg.HasOption(device.OptionReverseTilt),
		reverseRoll: cfg.HasOption(device.OptionReverseRoll),
		adapter:     defaultAdapter,
	}
}

func (d *Driver) ID() string   { return d.id }
func (d *Driver) Name() string { return d.name }

func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return nil
	}
	conn, err := d.dial(ctx)
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardownLocked()
	return nil
}

func (d *Driver) Reconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardownLocked()
	conn, err := d.dial(ctx)
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

func (d *Driver) teardownLocked() {
	if d.conn == nil {
		return
	}
	d.conn.cancel()
	d.conn.notify.stop()
	d.conn.bleDevice.Disconnect()
	d.conn = nil
}

// SendCommand writes a PTR packet and republishes the zoom rate for the
// background zoom task. Commands never auto-connect: a disconnected
// device logs and returns success. A connected device whose write fails
// gets one bounded resume attempt (try_resume_connection) before the send
// is reported as failed.
func (d *Driver) SendCommand(ctx context.Context, cmd device.Command) error {
	d.mu.Lock()
	if cmd.IsZeroPTRZ() && d.lastZoom == 0 {
		d.mu.Unlock()
		return nil
	}
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		logger.Warn("ronin %s: send_command on disconnected device, dropping", d.name)
		return nil
	}

	pan, tilt, roll := cmd.Pan, cmd.Tilt, cmd.Roll
	if d.reversePan {
		pan = -pan
	}
	if d.reverseTilt {
		tilt = -tilt
	}
	if d.reverseRoll {
		roll = -roll
	}

	_, ptrCap := d.caps[device.CapabilityPtr]
	if ptrCap && (pan != 0 || tilt != 0 || roll != 0) {
		frame := buildPTRPacket(d.nextSeq(),
			codec.ScaleAxisRonin(pan), codec.ScaleAxisRonin(tilt), codec.ScaleAxisRonin(roll))
		if err := conn.writeCommand(frame); err != nil {
			resumed, rerr := d.tryResumeConnection(ctx, conn)
			if rerr != nil {
				return fmt.Errorf("ronin %s: %w", d.name, rerr)
			}
			if err := resumed.writeCommand(frame); err != nil {
				return fmt.Errorf("ronin %s: %w", d.name, err)
			}
			conn = resumed
		}
	}

	if _, ok := d.caps[device.CapabilityZoom]; ok && cmd.Zoom != d.lastZoom {
		conn.zoomSpeed.Set(cmd.Zoom)
		d.mu.Lock()
		d.lastZoom = cmd.Zoom
		d.mu.Unlock()
	}
	return nil
}

// tryResumeConnection force-disconnects the stale handle and reconnects
// with a 200ms timeout, the way the original's
// Connection::try_resume_connection did for the alternate gimbal variant.
func (d *Driver) tryResumeConnection(ctx context.Context, stale *connection) (*connection, error) {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == stale {
		d.teardownLocked()
	}
	resumeCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	conn, err := d.dial(resumeCtx)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	logger.Info("ronin %s: resumed connection in %s", d.name, time.Since(start))
	return conn, nil
}

func (d *Driver) nextSeq() uint16 {
	return uint16(atomic.AddUint32(&d.seq, 1))
}

// dial scans for, connects to, and sets up one Ronin peripheral: BLE
// connect, service/characteristic discovery, the D-Bus notify bypass for
// the status characteristic, and the background zoom task. Callers hold
// d.mu.
func (d *Driver) dial(ctx context.Context) (*connection, error) {
	addr, err := findPeripheral(ctx, d.adapter, d.name)
	if err != nil {
		return nil, err
	}

	bleDevice, err := d.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("ronin %s: connect: %w", d.name, err)
	}

	services, err := bleDevice.DiscoverServices([]bluetooth.UUID{shortUUID(serviceShort)})
	if err != nil {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("ronin %s: discover services: %w", d.name, err)
	}

	var cmdChar bluetooth.DeviceCharacteristic
	var cmdFound, notifyFound bool
	cmdHex := fmt.Sprintf("%04x", commandShort)
	notifyHex := fmt.Sprintf("%04x", notifyShort)

	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, char := range chars {
			uuid := strings.ToLower(char.UUID().String())
			if strings.Contains(uuid, cmdHex) {
				cmdChar = char
				cmdFound = true
			} else if strings.Contains(uuid, notifyHex) {
				notifyFound = true
			}
		}
	}
	if !cmdFound || !notifyFound {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("ronin %s: command/notify characteristics not found", d.name)
	}

	conn := &connection{
		bleDevice: bleDevice,
		cmdChar:   cmdChar,
		zoomSpeed: newZoomSignal(),
	}

	notify, err := newNotifyBypass(conn.handleNotify)
	if err != nil {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("ronin %s: dbus: %w", d.name, err)
	}
	path, err := notify.findCharacteristicPath(addr.String(), notifyHex)
	if err != nil {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("ronin %s: %w", d.name, err)
	}
	if err := notify.start(path); err != nil {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("ronin %s: notify start: %w", d.name, err)
	}
	conn.notify = notify

	taskCtx, cancel := context.WithCancel(context.Background())
	conn.cancel = cancel
	go conn.runZoomTask(taskCtx, d.nextSeq)

	return conn, nil
}

func (c *connection) handleNotify(data []byte) {
	if isStatusFrame(data) {
		c.zoomState.observe(statusFrameZoom(data))
	}
}

func (c *connection) writeCommand(frame []byte) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	_, err := c.cmdChar.WriteWithoutResponse(frame)
	return err
}
