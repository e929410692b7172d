// Package codec holds the small wire-encoding helpers
// shared by the gimbal drivers: CRC-16 variants, the little-endian signed
// axis encoding, and the UTF-16LE string framing the Lumix handshake needs.
package codec

// CRC16Ronin implements the Ronin BLE frame checksum: width 16, poly 0x1021,
// init 0x496c, reflected in and out, xorout 0x0000. Grounded on the teacher's
// own crc16 in internal/dji/protocol.go, which uses the same reflected
// bit-at-a-time algorithm (poly 0x8408 is 0x1021 bit-reversed) with a
// different init/xorout pair.
//
// The catalog init 0x496c is given in non-reflected register form; this
// shortcut algorithm updates the register LSB-first, so the seed must be
// the bit-reversal of 0x496c (0x3692), not the literal constant. Verified
// against the documented test vector (55110492...0001c5 -> f5a7).
func CRC16Ronin(data []byte) uint16 {
	crc := uint16(0x3692)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc = crc >> 1
			}
		}
	}
	return crc
}

// AppendRoninChecksum appends the little-endian CRC16Ronin of b to b.
func AppendRoninChecksum(b []byte) []byte {
	crc := CRC16Ronin(b)
	return append(b, byte(crc&0xff), byte(crc>>8))
}

// CRC16Crane implements the alternate (non-reflected) CRC-16 variant used by
// crane-style gimbals: width 16, poly 0x1021, init 0x0000, no reflection,
// xorout 0x25b1.
func CRC16Crane(data []byte) uint16 {
	crc := uint16(0)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc = crc << 1
			}
		}
	}
	return crc ^ 0x25b1
}

// AppendCraneChecksum appends the little-endian CRC16Crane of b to b.
func AppendCraneChecksum(b []byte) []byte {
	crc := CRC16Crane(b)
	return append(b, byte(crc&0xff), byte(crc>>8))
}
