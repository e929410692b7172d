package dispatcher

import "gimbal-control/internal/device"

// Operation kinds, matching the tagged "type" discriminator the external
// transport decodes client messages into (spec §6).
const (
	OpCommand             = "command"
	OpDisconnect          = "disconnect"
	OpReconnect           = "reconnect"
	OpSaveDefaultControls = "save_default_controls"
	OpShutdown            = "shutdown"
)

// Operation is the single inbound message shape the dispatcher consumes.
// Devices names the target subset for Command/Disconnect/Reconnect;
// Command/Mappings carry the payload for their respective op types.
type Operation struct {
	Type     string            `json:"type"`
	Devices  []string          `json:"devices,omitempty"`
	Command  device.Command    `json:"command,omitempty"`
	Mappings []device.Mappings `json:"mappings,omitempty"`
}
