package device

import (
	"fmt"
)

// GimbalOption is a gimbal-only axis inversion flag.
type GimbalOption string

const (
	OptionReversePan  GimbalOption = "reversePan"
	OptionReverseTilt GimbalOption = "reverseTilt"
	OptionReverseRoll GimbalOption = "reverseRoll"
)

// DeviceConfig is the tagged-variant config for one device, decoded from the
// "type" discriminator field the way the original config distinguished
// DeviceConfig::Ronin/Lumix/Lanc variants.
type DeviceConfig struct {
	Type string `json:"type"`

	// Dummy, Ronin, Crane
	Name string `json:"name,omitempty"`

	// Lumix
	Address  string `json:"address,omitempty"`
	Password string `json:"password,omitempty"`

	// Lanc
	Port string `json:"port,omitempty"`

	Capabilities []Capability   `json:"capabilities,omitempty"`
	Options      []GimbalOption `json:"options,omitempty"`
}

const (
	DeviceTypeDummy = "dummy"
	DeviceTypeRonin = "ronin"
	DeviceTypeLumix = "lumix"
	DeviceTypeLanc  = "lanc"
	DeviceTypeCrane = "crane"
)

// Validate checks that the variant carries the fields it requires.
func (c DeviceConfig) Validate(id string) error {
	switch c.Type {
	case DeviceTypeDummy:
		return nil
	case DeviceTypeRonin, DeviceTypeCrane:
		if c.Name == "" {
			return fmt.Errorf("device %q: %s requires a name", id, c.Type)
		}
	case DeviceTypeLumix:
		if c.Address == "" {
			return fmt.Errorf("device %q: lumix requires an address", id)
		}
	case DeviceTypeLanc:
		if c.Port == "" {
			return fmt.Errorf("device %q: lanc requires a port", id)
		}
	default:
		return fmt.Errorf("device %q: unknown device type %q", id, c.Type)
	}
	return nil
}

// HasOption reports whether the given reversal option is set.
func (c DeviceConfig) HasOption(opt GimbalOption) bool {
	for _, o := range c.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Group is a named ordered set of device ids; it partitions operator UI and
// does not constrain dispatch.
type Group struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// PadInput names one physical control input mapped to a logical axis.
type PadInput struct {
	PadIndex   int     `json:"pad_index"`
	InputType  string  `json:"input_type"`
	InputIndex int     `json:"input_index"`
	Multiplier float64 `json:"multiplier"`
}

// Mappings bundles the optional per-axis input lists a client persists.
// The core treats it as opaque except for trimming trailing empty entries.
type Mappings struct {
	PanL   []PadInput `json:"pan_l,omitempty"`
	PanR   []PadInput `json:"pan_r,omitempty"`
	TiltU  []PadInput `json:"tilt_u,omitempty"`
	TiltD  []PadInput `json:"tilt_d,omitempty"`
	RollL  []PadInput `json:"roll_l,omitempty"`
	RollR  []PadInput `json:"roll_r,omitempty"`
	ZoomI  []PadInput `json:"zoom_i,omitempty"`
	ZoomO  []PadInput `json:"zoom_o,omitempty"`
	FocusF []PadInput `json:"focus_f,omitempty"`
	FocusN []PadInput `json:"focus_n,omitempty"`
	FocusA []PadInput `json:"focus_a,omitempty"`
}

// IsEmpty reports whether every sub-list is absent or empty.
func (m Mappings) IsEmpty() bool {
	return len(m.PanL) == 0 && len(m.PanR) == 0 &&
		len(m.TiltU) == 0 && len(m.TiltD) == 0 &&
		len(m.RollL) == 0 && len(m.RollR) == 0 &&
		len(m.ZoomI) == 0 && len(m.ZoomO) == 0 &&
		len(m.FocusF) == 0 && len(m.FocusN) == 0 && len(m.FocusA) == 0
}

// TrimTrailingEmpty drops trailing empty Mappings entries from a list,
// matching the save-time invariant in spec §4.5.
func TrimTrailingEmpty(list []Mappings) []Mappings {
	end := len(list)
	for end > 0 && list[end-1].IsEmpty() {
		end--
	}
	return list[:end]
}
