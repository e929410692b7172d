package lanc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"

	"gimbal-control/internal/device"
	"gimbal-control/internal/logger"
)

const burstWindow = 200 * time.Millisecond

// Driver implements device.Device for a LANC camera reached through a
// serial Arduino bridge.
type Driver struct {
	id   string
	port string
	caps map[device.Capability]struct{}

	mu   sync.Mutex
	conn *connection
}

type connection struct {
	stream *serial.Port
	cmdCh  chan [2]string
	cancel context.CancelFunc
	done   chan struct{}
}

func New(id string, cfg device.DeviceConfig) *Driver {
	return &Driver{
		id:   id,
		port: cfg.Port,
		caps: device.CapabilitySet(cfg.Capabilities),
	}
}

func (d *Driver) ID() string   { return d.id }
func (d *Driver) Name() string { return d.port }

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
	conn, err := d.dial()
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
	conn, err := d.dial()
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
	<-d.conn.done
	d.conn.stream.Close()
	d.conn = nil
}

func (d *Driver) dial() (*connection, error) {
	cfg := &serial.Config{Name: d.port, Baud: 115200}
	stream, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("lanc %s: open: %w", d.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		stream: stream,
		cmdCh:  make(chan [2]string, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go conn.sender(ctx)
	return conn, nil
}

// SendCommand derives the code pair for this command and hands it to the
// sender task, which drains it against the bridge's handshake timing. A
// zero command (no codes selected) is dropped without touching the
// channel, matching spec §4.4.
func (d *Driver) SendCommand(ctx context.Context, cmd device.Command) error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		logger.Warn("lanc %s: send_command on disconnected device, dropping", d.port)
		return nil
	}

	var in commandInput
	if _, ok := d.caps[device.CapabilityZoom]; ok {
		in.zoom = cmd.Zoom
	}
	if _, ok := d.caps[device.CapabilityFocus]; ok {
		in.focus = cmd.Focus
	}
	if _, ok := d.caps[device.CapabilityAutofocus]; ok {
		in.autofocus = cmd.Autofocus
	}
	pair, ok := commandPair(in)
	if !ok {
		return nil
	}

	select {
	case conn.cmdCh <- pair:
	case <-conn.cmdCh:
		conn.cmdCh <- pair
	}
	return nil
}

// sender owns the serial stream. On each pair arrival it runs for 9/10 of
// a 200ms window: read until the bridge signals frame-complete (byte
// 0x0A), then write one of the two codes, alternating by a cycle counter.
func (c *connection) sender(ctx context.Context) {
	defer close(c.done)
	counter := 0
	for {
		select {
		case <-ctx.Done():
			return
		case pair := <-c.cmdCh:
			c.runBurst(ctx, pair, &counter)
		}
	}
}

func (c *connection) runBurst(ctx context.Context, pair [2]string, counter *int) {
	deadline := time.Now().Add(burstWindow * 9 / 10)
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !c.readUntilFrameComplete(buf, deadline) {
			return
		}

		code := pair[*counter%2]
		c.stream.Write([]byte(code))
		*counter++
	}
}

func (c *connection) readUntilFrameComplete(buf []byte, deadline time.Time) bool {
	for time.Now().Before(deadline) {
		n, err := c.stream.Read(buf)
		if err != nil {
			return false
		}
		if n > 0 && buf[0] == 0x0A {
			return true
		}
	}
	return false
}
