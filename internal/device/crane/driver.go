package crane

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"gimbal-control/internal/device"
	"gimbal-control/internal/device/codec"
	"gimbal-control/internal/logger"
)

// Driver implements device.Device for the alternate (cubic-scaling,
// non-reflected-CRC) gimbal variant. It has no zoom or focus capability.
type Driver struct {
	id          string
	name        string
	caps        map[device.Capability]struct{}
	reversePan  bool
	reverseTilt bool
	reverseRoll bool
	adapter     *bluetooth.Adapter

	mu   sync.Mutex
	conn *connection

	// seqMu/seq model the original's tokio::sync::watch::Sender<u8>
	// fetch-then-increment sequence counter: a single writer, read just
	// before each packet is built. A single byte, wrapping at 256, per
	// the original's u8 counter (unlike Ronin's 16-bit seq).
	seqMu sync.Mutex
	seq   byte
}

type connection struct {
	bleDevice bluetooth.Device
	cmdChar   bluetooth.DeviceCharacteristic
	cmdMu     sync.Mutex
}

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
	d.conn.bleDevice.Disconnect()
	d.conn = nil
}

func (d *Driver) nextSeq() byte {
	d.seqMu.Lock()
	defer d.seqMu.Unlock()
	s := d.seq
	d.seq++
	return s
}

// SendCommand pushes tilt, roll and pan as three independent single-axis
// packets. Commands never auto-connect: a disconnected device logs and
// returns success. A write failure on a connected device gets one bounded
// resume attempt before the send is reported as failed, grounded on the
// original's Connection::try_resume_connection.
func (d *Driver) SendCommand(ctx context.Context, cmd device.Command) error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		logger.Warn("crane %s: send_command on disconnected device, dropping", d.name)
		return nil
	}

	_, ptrCap := d.caps[device.CapabilityPtr]
	if !ptrCap || (cmd.Pan == 0 && cmd.Tilt == 0 && cmd.Roll == 0) {
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

	packets := [][]byte{
		buildTiltPacket(d.nextSeq(), codec.ScaleAxisCrane(tilt)),
		buildRollPacket(d.nextSeq(), codec.ScaleAxisCrane(roll)),
		buildPanPacket(d.nextSeq(), codec.ScaleAxisCrane(pan)),
	}
	for i, frame := range packets {
		if err := conn.writeCommand(frame); err != nil {
			resumed, rerr := d.tryResumeConnection(ctx, conn)
			if rerr != nil {
				return fmt.Errorf("crane %s: %w", d.name, rerr)
			}
			conn = resumed
			if err := conn.writeCommand(packets[i]); err != nil {
				return fmt.Errorf("crane %s: %w", d.name, err)
			}
		}
	}
	return nil
}

// tryResumeConnection force-disconnects the stale handle and reconnects
// with a 200ms timeout.
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
	logger.Info("crane %s: resumed connection in %s", d.name, time.Since(start))
	return conn, nil
}

func (d *Driver) dial(ctx context.Context) (*connection, error) {
	addr, err := findPeripheral(ctx, d.adapter, d.name)
	if err != nil {
		return nil, err
	}

	bleDevice, err := d.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("crane %s: connect: %w", d.name, err)
	}

	// No service filter: the crane's command characteristic sits under a
	// custom 128-bit UUID the Bluetooth SIG short-UUID scheme doesn't
	// cover, so every service is enumerated and the characteristic is
	// matched by its full UUID instead.
	services, err := bleDevice.DiscoverServices(nil)
	if err != nil {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("crane %s: discover services: %w", d.name, err)
	}

	var cmdChar bluetooth.DeviceCharacteristic
	var found bool
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, char := range chars {
			if char.UUID() == commandUUID {
				cmdChar = char
				found = true
			}
		}
	}
	if !found {
		bleDevice.Disconnect()
		return nil, fmt.Errorf("crane %s: command characteristic not found", d.name)
	}

	return &connection{bleDevice: bleDevice, cmdChar: cmdChar}, nil
}

func (c *connection) writeCommand(frame []byte) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	_, err := c.cmdChar.WriteWithoutResponse(frame)
	return err
}
