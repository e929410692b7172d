// Package config loads and atomically persists the control-plane config:
// device definitions, groups, default control mappings and the listen
// port. Adapted from the teacher's Manager (mutex-guarded Load/Save/
// Get/Update) but switched from YAML to the JSON shape spec §6 requires,
// and from a plain WriteFile save to an atomic write-tmp+rename per §9.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gimbal-control/internal/device"
)

// DeviceEntry is one id→DeviceConfig pair. Devices is kept as a slice of
// these, not a map, because startup must construct drivers "in id order"
// (spec §4.5) and Go map iteration order isn't stable; the ordered-object
// decode below preserves the order the config file was written in.
type DeviceEntry struct {
	ID     string
	Config device.DeviceConfig
}

// Config is the full control-plane configuration.
type Config struct {
	Groups          []device.Group    `json:"groups"`
	Devices         []DeviceEntry     `json:"-"`
	DefaultControls []device.Mappings `json:"defaultControls,omitempty"`
	Port            uint16            `json:"port"`
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var raw struct {
		Groups          []device.Group    `json:"groups"`
		Devices         json.RawMessage   `json:"devices"`
		DefaultControls []device.Mappings `json:"defaultControls,omitempty"`
		Port            uint16            `json:"port"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries, err := decodeOrderedDevices(raw.Devices)
	if err != nil {
		return err
	}
	c.Groups = raw.Groups
	c.Devices = entries
	c.DefaultControls = raw.DefaultControls
	c.Port = raw.Port
	return nil
}

func decodeOrderedDevices(data json.RawMessage) ([]DeviceEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("devices must be a JSON object")
	}

	var entries []DeviceEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("devices: non-string key")
		}
		var cfg device.DeviceConfig
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("devices[%s]: %w", key, err)
		}
		entries = append(entries, DeviceEntry{ID: key, Config: cfg})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"groups":`)
	groupsJSON, err := json.Marshal(c.Groups)
	if err != nil {
		return nil, err
	}
	buf.Write(groupsJSON)

	buf.WriteString(`,"devices":{`)
	for i, e := range c.Devices {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		cfgJSON, err := json.Marshal(e.Config)
		if err != nil {
			return nil, err
		}
		buf.Write(cfgJSON)
	}
	buf.WriteByte('}')

	if len(c.DefaultControls) > 0 {
		buf.WriteString(`,"defaultControls":`)
		dcJSON, err := json.Marshal(c.DefaultControls)
		if err != nil {
			return nil, err
		}
		buf.Write(dcJSON)
	}

	fmt.Fprintf(&buf, `,"port":%d}`, c.Port)
	return buf.Bytes(), nil
}

// Get looks up a device entry by id.
func (c Config) Get(id string) (device.DeviceConfig, bool) {
	for _, e := range c.Devices {
		if e.ID == id {
			return e.Config, true
		}
	}
	return device.DeviceConfig{}, false
}

// Validate enforces the load-time invariants from spec §3: no duplicate
// group names, and every id referenced by a group must exist in Devices.
func (c Config) Validate() error {
	seenGroups := make(map[string]struct{}, len(c.Groups))
	for _, g := range c.Groups {
		if _, dup := seenGroups[g.Name]; dup {
			return fmt.Errorf("duplicate group name %q", g.Name)
		}
		seenGroups[g.Name] = struct{}{}
	}

	ids := make(map[string]struct{}, len(c.Devices))
	for _, e := range c.Devices {
		ids[e.ID] = struct{}{}
	}
	for _, g := range c.Groups {
		for _, id := range g.Devices {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("group %q references unknown device %q", g.Name, id)
			}
		}
	}

	for _, e := range c.Devices {
		if err := e.Config.Validate(e.ID); err != nil {
			return err
		}
	}
	return nil
}

// Manager owns the on-disk config: mutex-guarded Load/Save/Get/Update,
// adapted from the teacher's config.Manager.
type Manager struct {
	mu       sync.RWMutex
	config   Config
	filePath string
}

func NewManager(filePath string) *Manager {
	return &Manager{filePath: filePath}
}

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		return err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update validates and replaces the in-memory config, then persists it.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
	return m.saveUnsafe()
}

func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnsafe()
}

// saveUnsafe writes the config atomically: serialize to a sibling tmp
// file, fsync, then rename over the target, so a crash mid-write never
// leaves a torn config file (spec §9).
func (m *Manager) saveUnsafe() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.filePath)
	tmp, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, m.filePath)
}
