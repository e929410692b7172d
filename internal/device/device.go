// Package device defines the uniform contract every driver implements,
// independent of the wire protocol it speaks underneath.
package device

import (
	"context"
	"fmt"
)

// Command is a complete per-tick snapshot of control intent, not a delta.
// Zero on an axis means "no motion on this axis". A driver honors only the
// axes its capability set permits.
type Command struct {
	Pan       float64 `json:"pan"`
	Tilt      float64 `json:"tilt"`
	Roll      float64 `json:"roll"`
	Zoom      float64 `json:"zoom"`
	Focus     float64 `json:"focus"`
	Autofocus bool    `json:"autofocus"`
}

// IsZeroPTRZ reports whether pan, tilt, roll and zoom are all zero.
func (c Command) IsZeroPTRZ() bool {
	return c.Pan == 0 && c.Tilt == 0 && c.Roll == 0 && c.Zoom == 0
}

// Capability names one axis or feature a driver may or may not support.
type Capability string

const (
	CapabilityPtr       Capability = "ptr"
	CapabilityZoom      Capability = "zoom"
	CapabilityFocus     Capability = "focus"
	CapabilityAutofocus Capability = "autofocus"
)

// AllCapabilities is the default capability set assumed when config omits one.
func AllCapabilities() map[Capability]struct{} {
	return map[Capability]struct{}{
		CapabilityPtr:       {},
		CapabilityZoom:      {},
		CapabilityFocus:     {},
		CapabilityAutofocus: {},
	}
}

// CapabilitySet returns a lookup set built from a config-supplied list,
// falling back to AllCapabilities when the list is nil.
func CapabilitySet(caps []Capability) map[Capability]struct{} {
	if caps == nil {
		return AllCapabilities()
	}
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Device is the uniform operation set every driver exposes. All operations
// are failable and may suspend; implementations must not block the calling
// goroutine on synchronous, non-cooperative I/O.
type Device interface {
	// Connect transitions the driver from disconnected to connected. Calling
	// it on an already-connected device is a programming error the driver
	// may treat as a success or a no-op.
	Connect(ctx context.Context) error

	// Disconnect transitions to disconnected. No-op if already disconnected.
	Disconnect(ctx context.Context) error

	// Reconnect disconnects then connects.
	Reconnect(ctx context.Context) error

	// SendCommand honors the axes permitted by the device's capability set.
	// If the device is disconnected, it logs and returns nil: commands never
	// auto-connect.
	SendCommand(ctx context.Context, cmd Command) error

	// IsConnected reflects whether the driver holds an open connection
	// handle; it is not a live probe.
	IsConnected() bool

	// ID is the stable config-key identifier for this device.
	ID() string

	// Name is the human-readable name (advertised BLE name, config name, …).
	Name() string
}

// ErrDeviceNotFound is returned by a driver's Connect when discovery (BLE
// scan, etc.) is exhausted without a match.
type ErrDeviceNotFound struct {
	Name string
}

func (e *ErrDeviceNotFound) Error() string {
	return fmt.Sprintf("unable to find peripheral %s", e.Name)
}
