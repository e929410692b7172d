package ronin

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// notifyBypass delivers BLE notify characteristic data straight off BlueZ's
// D-Bus API, adapted from the teacher's DBusNotificationHandler
// (internal/dji/dbus_notifications.go). tinygo.org/x/bluetooth's own
// EnableNotifications path is unreliable against BlueZ, so the status
// characteristic is read this way instead: AcquireNotify for an exclusive
// fd when available, falling back to StartNotify plus PropertiesChanged
// signals (and a direct Value read if the signal arrives empty).
type notifyBypass struct {
	conn     *dbus.Conn
	path     dbus.ObjectPath
	callback func([]byte)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func newNotifyBypass(callback func([]byte)) (*notifyBypass, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	return &notifyBypass{conn: conn, callback: callback}, nil
}

// findCharacteristicPath locates the D-Bus object path for charUUID under
// the device at deviceAddr (colon-separated MAC form).
func (b *notifyBypass) findCharacteristicPath(deviceAddr, charUUID string) (dbus.ObjectPath, error) {
	devicePathPart := strings.ReplaceAll(strings.ToUpper(deviceAddr), ":", "_")
	charUUIDLower := strings.ToLower(charUUID)

	var managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := b.conn.Object("org.bluez", "/")
	if err := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managedObjects); err != nil {
		return "", err
	}

	for path, interfaces := range managedObjects {
		if !strings.Contains(string(path), devicePathPart) {
			continue
		}
		charIface, ok := interfaces["org.bluez.GattCharacteristic1"]
		if !ok {
			continue
		}
		uuidVar, ok := charIface["UUID"]
		if !ok {
			continue
		}
		if uuid, ok := uuidVar.Value().(string); ok && strings.Contains(strings.ToLower(uuid), charUUIDLower) {
			return path, nil
		}
	}
	return "", fmt.Errorf("notify characteristic %s not found under %s", charUUID, deviceAddr)
}

// start subscribes at path and begins delivering notification payloads to
// the callback until stop is called.
func (b *notifyBypass) start(path dbus.ObjectPath) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.path = path
	b.running = true
	b.stopCh = make(chan struct{})
	b.mu.Unlock()

	matchRule := "type='signal',sender='org.bluez'"
	if call := b.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule); call.Err != nil {
		return call.Err
	}

	obj := b.conn.Object("org.bluez", path)

	var fd dbus.UnixFD
	var mtu uint16
	call := obj.Call("org.bluez.GattCharacteristic1.AcquireNotify", 0, map[string]dbus.Variant{})
	if call.Err == nil {
		if err := call.Store(&fd, &mtu); err == nil {
			go b.readFD(int(fd))
		}
	} else if call := obj.Call("org.bluez.GattCharacteristic1.StartNotify", 0); call.Err != nil &&
		!strings.Contains(call.Err.Error(), "Already notifying") {
		return call.Err
	}

	signalChan := make(chan *dbus.Signal, 32)
	b.conn.Signal(signalChan)
	go b.processSignals(signalChan)
	return nil
}

func (b *notifyBypass) readFD(fd int) {
	file := os.NewFile(uintptr(fd), "ronin-notify")
	if file == nil {
		return
	}
	defer file.Close()

	buf := make([]byte, 512)
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}
		n, err := file.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			b.callback(data)
		}
	}
}

func (b *notifyBypass) processSignals(signalChan chan *dbus.Signal) {
	for {
		select {
		case <-b.stopCh:
			return
		case signal := <-signalChan:
			b.handleSignal(signal)
		}
	}
}

func (b *notifyBypass) handleSignal(signal *dbus.Signal) {
	if signal.Path != b.path || signal.Name != "org.freedesktop.DBus.Properties.PropertiesChanged" {
		return
	}
	if len(signal.Body) < 2 {
		return
	}
	iface, ok := signal.Body[0].(string)
	if !ok || iface != "org.bluez.GattCharacteristic1" {
		return
	}
	changed, ok := signal.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	valueVar, ok := changed["Value"]
	if !ok {
		return
	}
	data := extractBytes(valueVar)
	if len(data) == 0 {
		data = b.readValue()
	}
	if len(data) > 0 {
		b.callback(data)
	}
}

func (b *notifyBypass) readValue() []byte {
	obj := b.conn.Object("org.bluez", b.path)
	if variant, err := obj.GetProperty("org.bluez.GattCharacteristic1.Value"); err == nil {
		if data := extractBytes(variant); len(data) > 0 {
			return data
		}
	}
	var result []byte
	if call := obj.Call("org.bluez.GattCharacteristic1.ReadValue", 0, map[string]dbus.Variant{}); call.Err == nil {
		call.Store(&result)
	}
	return result
}

func extractBytes(variant dbus.Variant) []byte {
	switch v := variant.Value().(type) {
	case []byte:
		return v
	case []interface{}:
		data := make([]byte, len(v))
		for i, elem := range v {
			switch b := elem.(type) {
			case byte:
				data[i] = b
			}
		}
		return data
	}
	return nil
}

func (b *notifyBypass) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	close(b.stopCh)

	obj := b.conn.Object("org.bluez", b.path)
	obj.Call("org.bluez.GattCharacteristic1.StopNotify", 0)
}
