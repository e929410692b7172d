package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gimbal-control/internal/device"
)

func TestValidateDuplicateGroupName(t *testing.T) {
	cfg := Config{
		Groups: []device.Group{
			{Name: "a", Devices: nil},
			{Name: "a", Devices: nil},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate group name")
	}
}

func TestValidateUnknownDeviceInGroup(t *testing.T) {
	cfg := Config{
		Groups:  []device.Group{{Name: "a", Devices: []string{"missing"}}},
		Devices: []DeviceEntry{{ID: "cam1", Config: device.DeviceConfig{Type: device.DeviceTypeDummy}}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for group referencing unknown device")
	}
}

func TestValidateOK(t *testing.T) {
	cfg := Config{
		Groups:  []device.Group{{Name: "a", Devices: []string{"cam1"}}},
		Devices: []DeviceEntry{{ID: "cam1", Config: device.DeviceConfig{Type: device.DeviceTypeDummy}}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := Config{
		Groups: []device.Group{{Name: "team-a", Devices: []string{"gimbal1", "cam1"}}},
		Devices: []DeviceEntry{
			{ID: "gimbal1", Config: device.DeviceConfig{Type: device.DeviceTypeRonin, Name: "RoninGimbal"}},
			{ID: "cam1", Config: device.DeviceConfig{Type: device.DeviceTypeLumix, Address: "192.168.1.50"}},
		},
		Port: 8080,
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(decoded.Devices) != 2 {
		t.Fatalf("len(decoded.Devices) = %d, want 2", len(decoded.Devices))
	}
	// Device order must survive the round trip (startup connects in id order).
	if decoded.Devices[0].ID != "gimbal1" || decoded.Devices[1].ID != "cam1" {
		t.Fatalf("device order not preserved: %+v", decoded.Devices)
	}
	if decoded.Devices[0].Config.Name != "RoninGimbal" {
		t.Fatalf("gimbal1 name = %q, want RoninGimbal", decoded.Devices[0].Config.Name)
	}
	if decoded.Port != 8080 {
		t.Fatalf("port = %d, want 8080", decoded.Port)
	}
}

func TestManagerSaveAtomicAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	mgr := NewManager(path)
	cfg := Config{
		Groups:  []device.Group{{Name: "a", Devices: []string{"cam1"}}},
		Devices: []DeviceEntry{{ID: "cam1", Config: device.DeviceConfig{Type: device.DeviceTypeDummy}}},
		Port:    9090,
	}
	if err := mgr.Update(cfg); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("leftover tmp file after save: %s", e.Name())
		}
	}

	reloaded := NewManager(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.Get()
	if got.Port != 9090 {
		t.Fatalf("reloaded port = %d, want 9090", got.Port)
	}
	if len(got.Devices) != 1 || got.Devices[0].ID != "cam1" {
		t.Fatalf("reloaded devices = %+v", got.Devices)
	}
}

func TestManagerUpdateRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(filepath.Join(dir, "config.json"))
	bad := Config{Groups: []device.Group{{Name: "dup"}, {Name: "dup"}}}
	if err := mgr.Update(bad); err == nil {
		t.Fatal("expected Update to reject a config with duplicate group names")
	}
}
