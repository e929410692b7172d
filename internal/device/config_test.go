package device

import "testing"

func TestMappingsIsEmpty(t *testing.T) {
	var m Mappings
	if !m.IsEmpty() {
		t.Fatal("zero-value Mappings should be empty")
	}

	m.PanL = []PadInput{{PadIndex: 0, InputType: "axis", InputIndex: 1, Multiplier: 1}}
	if m.IsEmpty() {
		t.Fatal("Mappings with a non-empty sub-list should not be empty")
	}
}

func TestTrimTrailingEmpty(t *testing.T) {
	nonEmpty := Mappings{PanL: []PadInput{{PadIndex: 0}}}
	var empty Mappings

	list := []Mappings{nonEmpty, empty, empty}
	trimmed := TrimTrailingEmpty(list)
	if len(trimmed) != 1 {
		t.Fatalf("len(trimmed) = %d, want 1", len(trimmed))
	}

	allEmpty := []Mappings{empty, empty}
	if trimmed := TrimTrailingEmpty(allEmpty); len(trimmed) != 0 {
		t.Fatalf("len(trimmed) = %d, want 0 for all-empty input", len(trimmed))
	}

	interleaved := []Mappings{empty, nonEmpty, empty}
	trimmedInterleaved := TrimTrailingEmpty(interleaved)
	if len(trimmedInterleaved) != 2 {
		t.Fatalf("len(trimmedInterleaved) = %d, want 2 (only trailing empties drop)", len(trimmedInterleaved))
	}
}

func TestCapabilitySetDefaultsToAll(t *testing.T) {
	set := CapabilitySet(nil)
	for _, c := range []Capability{CapabilityPtr, CapabilityZoom, CapabilityFocus, CapabilityAutofocus} {
		if _, ok := set[c]; !ok {
			t.Errorf("default capability set missing %q", c)
		}
	}
}

func TestCapabilitySetExplicit(t *testing.T) {
	set := CapabilitySet([]Capability{CapabilityPtr})
	if _, ok := set[CapabilityPtr]; !ok {
		t.Fatal("expected CapabilityPtr in explicit set")
	}
	if _, ok := set[CapabilityZoom]; ok {
		t.Fatal("did not expect CapabilityZoom in explicit set")
	}
}

func TestDeviceConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     DeviceConfig
		wantErr bool
	}{
		{"dummy ok", DeviceConfig{Type: DeviceTypeDummy}, false},
		{"ronin needs name", DeviceConfig{Type: DeviceTypeRonin}, true},
		{"ronin ok", DeviceConfig{Type: DeviceTypeRonin, Name: "gimbal-1"}, false},
		{"lumix needs address", DeviceConfig{Type: DeviceTypeLumix}, true},
		{"lanc needs port", DeviceConfig{Type: DeviceTypeLanc}, true},
		{"unknown type", DeviceConfig{Type: "floop"}, true},
	}
	for _, c := range cases {
		err := c.cfg.Validate("dev")
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func TestHasOption(t *testing.T) {
	cfg := DeviceConfig{Options: []GimbalOption{OptionReversePan}}
	if !cfg.HasOption(OptionReversePan) {
		t.Fatal("expected ReversePan set")
	}
	if cfg.HasOption(OptionReverseTilt) {
		t.Fatal("did not expect ReverseTilt set")
	}
}
