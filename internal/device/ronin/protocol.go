package ronin

import (
	"gimbal-control/internal/device/codec"
)

// 16-bit short ids of the 0xfff0 service and its two characteristics. The
// service id is expanded to a 128-bit UUID by shortUUID for discovery; the
// characteristics are matched by these hex digits in their discovered UUIDs.
var (
	serviceShort = uint16(0xfff0)
	commandShort = uint16(0xfff5) // write-without-response
	notifyShort  = uint16(0xfff4) // subscribe
)

// buildPTRPacket builds the 20-byte (+2 CRC) pan/tilt/roll packet described
// in spec §4.2:
//
//	55 16 04 fc 02 04 | seq_lo seq_hi | 40 04 01 | tilt(2) roll(2) pan(2) | 00 00 02 | crc(2)
func buildPTRPacket(seq uint16, pan, tilt, roll int16) []byte {
	buf := make([]byte, 0, 19)
	buf = append(buf, 0x55, 0x16, 0x04, 0xfc, 0x02, 0x04)
	buf = append(buf, byte(seq), byte(seq>>8))
	buf = append(buf, 0x40, 0x04, 0x01)
	t := codec.EncodeAxisRonin(tilt)
	r := codec.EncodeAxisRonin(roll)
	p := codec.EncodeAxisRonin(pan)
	buf = append(buf, t[0], t[1], r[0], r[1], p[0], p[1])
	buf = append(buf, 0x00, 0x00, 0x02)
	return codec.AppendRoninChecksum(buf)
}

// buildZoomTargetPacket builds the zoom-target frame:
//
//	55 12 04 c7 02 df | seq(2) | 00 04 2f 01 00 02 | target_lo target_hi | crc(2)
func buildZoomTargetPacket(seq uint16, target int32) []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, 0x55, 0x12, 0x04, 0xc7, 0x02, 0xdf)
	buf = append(buf, byte(seq), byte(seq>>8))
	buf = append(buf, 0x00, 0x04, 0x2f, 0x01, 0x00, 0x02)
	t := uint16(target)
	buf = append(buf, byte(t), byte(t>>8))
	return codec.AppendRoninChecksum(buf)
}

// isStatusFrame reports whether data begins with the status-frame prefix
// 55 1c 04 1b df 02 and is long enough to carry the zoom-level field.
func isStatusFrame(data []byte) bool {
	prefix := []byte{0x55, 0x1c, 0x04, 0x1b, 0xdf, 0x02}
	if len(data) < 16 {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}

// statusFrameZoom reads the little-endian u16 zoom level at offset 14-15.
func statusFrameZoom(data []byte) uint16 {
	return uint16(data[14]) | uint16(data[15])<<8
}
