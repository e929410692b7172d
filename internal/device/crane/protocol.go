// Package crane drives the alternate gimbal protocol variant supplemented
// from the original implementation's Crane driver (not one of the four
// device kinds the distilled spec names, but directly referenced by its
// testable properties around the alternate, non-reflected CRC). Unlike
// Ronin it has no zoom or status feedback channel: each axis is pushed as
// its own single-axis packet with a cubic scaling curve.
package crane

import (
	"tinygo.org/x/bluetooth"

	"gimbal-control/internal/device/codec"
)

// commandUUIDStr is the crane gimbal's custom 128-bit command
// characteristic UUID; unlike Ronin's vendor it does not sit under the
// Bluetooth SIG 0xfffx short-UUID scheme, so scanning filters by no
// service at all and the characteristic is matched by this UUID directly.
const commandUUIDStr = "d44bc439-abfd-45a2-b575-925416129600"

var commandUUID = mustParseUUID(commandUUIDStr)

func mustParseUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

var (
	tiltMidfix = [3]byte{0x01, 0x01, 0x10}
	rollMidfix = [3]byte{0x01, 0x02, 0x10}
	panMidfix  = [3]byte{0x01, 0x03, 0x10}
)

// buildAxisPacket assembles a single-axis PTR packet:
//
//	24 3c 08 00 18 12 | seq(1) | midfix(3) | value(2) | crc(2)
func buildAxisPacket(seq byte, midfix [3]byte, value int16) []byte {
	buf := make([]byte, 0, 12)
	buf = append(buf, 0x24, 0x3c, 0x08, 0x00, 0x18, 0x12)
	buf = append(buf, seq)
	buf = append(buf, midfix[:]...)
	v := codec.EncodeAxisCrane(value)
	buf = append(buf, v[0], v[1])
	return codec.AppendCraneChecksum(buf)
}

func buildTiltPacket(seq byte, v int16) []byte { return buildAxisPacket(seq, tiltMidfix, v) }
func buildRollPacket(seq byte, v int16) []byte { return buildAxisPacket(seq, rollMidfix, v) }
func buildPanPacket(seq byte, v int16) []byte  { return buildAxisPacket(seq, panMidfix, v) }
