// Package snapshot defines the serialisable state the dispatcher publishes
// to the external transport after every mutating Operation.
package snapshot

import "gimbal-control/internal/device"

// DeviceStatus is the per-device slice of the snapshot.
type DeviceStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Snapshot is the full outbound state per spec §3/§6.
type Snapshot struct {
	Instance        string                  `json:"instance"`
	Groups          []device.Group          `json:"groups"`
	Devices         map[string]DeviceStatus `json:"devices"`
	DefaultControls []device.Mappings       `json:"defaultControls,omitempty"`
}
