package ronin

import (
	"context"
	"math"
	"sync"
	"time"
)

// zoomSignal is a single-writer/multi-reader watched value with replace
// semantics: Set never blocks and only the latest value survives, the way
// the original driver modeled zoom speed on a tokio::sync::watch channel
// (see spec §9 design notes). Get returns the current value plus a channel
// that closes the instant a newer value is set.
type zoomSignal struct {
	mu      sync.Mutex
	value   float64
	changed chan struct{}
}

func newZoomSignal() *zoomSignal {
	return &zoomSignal{changed: make(chan struct{})}
}

func (z *zoomSignal) Set(v float64) {
	z.mu.Lock()
	z.value = v
	old := z.changed
	z.changed = make(chan struct{})
	z.mu.Unlock()
	close(old)
}

func (z *zoomSignal) Get() (float64, <-chan struct{}) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.value, z.changed
}

const (
	zoomTargetMin  = 0
	zoomTargetMax  = 4095
	zoomEdgeGuard  = 20
	zoomTickPeriod = 50 * time.Millisecond
	zoomBurstReset = 200 * time.Millisecond
)

// zoomIncrement maps a [-1,1] speed into a signed step against the current
// zoom target: sign(v) * clamp(1000*|v|^2.5, 3, 1000), rounded to the
// nearest integer. Small speeds still move the target, large speeds move it
// in bigger strides per tick.
func zoomIncrement(speed float64) int32 {
	if speed == 0 {
		return 0
	}
	mag := 1000 * math.Pow(math.Abs(speed), 2.5)
	if mag < 3 {
		mag = 3
	}
	if mag > 1000 {
		mag = 1000
	}
	step := int32(math.Round(mag))
	if speed < 0 {
		return -step
	}
	return step
}

func clampTarget(v int32) int32 {
	if v < zoomTargetMin {
		return zoomTargetMin
	}
	if v > zoomTargetMax {
		return zoomTargetMax
	}
	return v
}

// runZoomTask is the per-connection zoom feedback loop: it watches
// zoomSpeed for the commanded zoom rate and, while non-zero, emits a
// zoom-target frame every 50ms, walking the target toward the edge at a
// rate derived from the commanded speed and the gimbal's last reported
// zoom position (read from status frames decoded by the event task).
// Frames are suppressed once the target would overrun the direction of
// travel's endpoint, matching the edge-guard behavior in spec §4.2.
func (c *connection) runZoomTask(ctx context.Context, nextSeq func() uint16) {
	var prevSpeed float64
	var target int32

	speed, changed := c.zoomSpeed.Get()
	for {
		if speed == 0 {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				speed, changed = c.zoomSpeed.Get()
			}
			continue
		}

		dir := 1
		if speed < 0 {
			dir = -1
		}
		startOfBurst := prevSpeed == 0 || (prevSpeed < 0) != (speed < 0)
		currentZoom, lastMovement := c.zoomState.snapshot()
		switch {
		case startOfBurst:
			target = clampTarget(int32(currentZoom) + zoomIncrement(speed))
		case time.Since(lastMovement) <= zoomBurstReset:
			target = clampTarget(target + zoomIncrement(speed))
		default:
			// gimbal stalled: leave target as-is rather than piling up
			// increments it can't act on.
		}

		suppress := (dir > 0 && target > zoomTargetMax-zoomEdgeGuard) ||
			(dir < 0 && target < zoomTargetMin+zoomEdgeGuard)
		if !suppress {
			frame := buildZoomTargetPacket(nextSeq(), target)
			c.writeCommand(frame)
		}

		prevSpeed = speed
		select {
		case <-ctx.Done():
			return
		case <-changed:
			speed, changed = c.zoomSpeed.Get()
		case <-time.After(zoomTickPeriod):
		}
	}
}

// zoomState tracks the gimbal's last-reported zoom position and the time it
// last changed, as decoded from status frames by the event task.
type zoomState struct {
	mu       sync.Mutex
	current  uint16
	lastMove time.Time
}

func (z *zoomState) observe(level uint16) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if level != z.current {
		z.lastMove = time.Now()
	}
	z.current = level
}

func (z *zoomState) snapshot() (uint16, time.Time) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.current, z.lastMove
}
