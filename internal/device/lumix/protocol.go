// Package lumix drives Panasonic Lumix cameras over PTP-over-IP: an HTTP
// handshake negotiates access, then a pair of TCP sockets (control and
// event) carry command/data packet pairs for zoom, focus and one-shot
// autofocus. Grounded on the teacher's controller for the connect/
// transaction/response shape, and on the camera's own PTP-over-IP framing
// for the wire format.
package lumix

import (
	"encoding/binary"

	"gimbal-control/internal/device/codec"
)

const (
	appUUID = "52D5842E-90C6-4846-9665-C238229D22E9"
	appName = "LUMIXTether"

	// ptpPort is hard-coded rather than parsed from the camera's
	// namespaced pana:X_PTPPortNo tag; quick-xml-equivalent decoding of
	// namespaced XML isn't worth a dependency for one integer.
	// TODO: parse PTPPortNo once an XML decoder with namespace support is wired.
	ptpPort = 15740

	opcodeOpenSession = 0x1002
	opcodeZoom        = 0x9416
	opcodeOneShotAF   = 0x9405

	phaseSingle = 0x01
	phaseData   = 0x02
)

// Direction and speed codes for zoom transactions.
const (
	DirWide uint16 = 0
	DirTele uint16 = 1

	ZoomOff  uint16 = 0
	ZoomLow  uint16 = 1
	ZoomHigh uint16 = 2
)

// Focus adjustment speed codes.
const (
	FocusStop     uint16 = 0
	FocusFarFast  uint16 = 1
	FocusFarSlow  uint16 = 2
	FocusNearSlow uint16 = 3
	FocusNearFast uint16 = 4
)

// commandPacket is the 38-byte PTP-over-IP command header.
type commandPacket struct {
	phase         uint32
	opcode        uint16
	transactionID uint32
	param1        uint32
}

func encodeCommand(c commandPacket) []byte {
	buf := make([]byte, 38)
	binary.LittleEndian.PutUint32(buf[0:4], 0x26)
	binary.LittleEndian.PutUint32(buf[4:8], 0x06)
	binary.LittleEndian.PutUint32(buf[8:12], c.phase)
	binary.LittleEndian.PutUint16(buf[12:14], c.opcode)
	binary.LittleEndian.PutUint32(buf[14:18], c.transactionID)
	binary.LittleEndian.PutUint32(buf[18:22], c.param1)
	// param2..param5 are all zero and already zero-valued in buf.
	return buf
}

func openSessionPacket(transactionID uint32) []byte {
	return encodeCommand(commandPacket{phase: phaseSingle, opcode: opcodeOpenSession, transactionID: transactionID, param1: 0x00010001})
}

func startZoomPacket(transactionID uint32) []byte {
	return encodeCommand(commandPacket{phase: phaseData, opcode: opcodeZoom, transactionID: transactionID, param1: 0x03000081})
}

func stopZoomPacket(transactionID uint32) []byte {
	return encodeCommand(commandPacket{phase: phaseData, opcode: opcodeZoom, transactionID: transactionID, param1: 0x03000082})
}

func oneShotAFPacket(transactionID uint32) []byte {
	return encodeCommand(commandPacket{phase: phaseSingle, opcode: opcodeOneShotAF, transactionID: transactionID, param1: 0x03000024})
}

func adjustFocusPacket(transactionID uint32) []byte {
	return encodeCommand(commandPacket{phase: phaseData, opcode: opcodeZoom, transactionID: transactionID, param1: 0x03010011})
}

// dataPacket builds the variable-length data half of a two-phase
// transaction: header fields common to zoom/focus data packets, followed
// by tail bytes specific to the operation.
func dataPacket(transactionID uint32, dataLength uint64, fixed1 uint64, param1 uint32, tail []byte) []byte {
	buf := make([]byte, 0, 32+len(tail))
	head := make([]byte, 32)
	binary.LittleEndian.PutUint32(head[0:4], 0x14)
	binary.LittleEndian.PutUint32(head[4:8], 0x09)
	binary.LittleEndian.PutUint32(head[8:12], transactionID)
	binary.LittleEndian.PutUint64(head[12:20], dataLength)
	binary.LittleEndian.PutUint64(head[20:28], fixed1)
	binary.LittleEndian.PutUint32(head[28:32], transactionID)
	buf = append(buf, head...)
	tailHead := make([]byte, 4)
	binary.LittleEndian.PutUint32(tailHead, param1)
	buf = append(buf, tailHead...)
	buf = append(buf, tail...)
	return buf
}

func startZoomData(transactionID uint32, param1 uint32, dir, speed uint16) []byte {
	tail := make([]byte, 6)
	binary.LittleEndian.PutUint32(tail[0:4], 0x04)
	binary.LittleEndian.PutUint16(tail[4:6], dir)
	speedBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(speedBuf, speed)
	tail = append(tail, speedBuf...)
	return dataPacket(transactionID, 0x0C, 0x0000000C00000018, param1, tail)
}

func stopZoomData(transactionID uint32, param1 uint32) []byte {
	tail := make([]byte, 4)
	binary.LittleEndian.PutUint32(tail, 0x00)
	return dataPacket(transactionID, 0x08, 0x0000000C00000014, param1, tail)
}

func adjustFocusData(transactionID uint32, param1 uint32, speed uint16) []byte {
	tail := make([]byte, 6)
	binary.LittleEndian.PutUint32(tail[0:4], 0x02)
	binary.LittleEndian.PutUint16(tail[4:6], speed)
	return dataPacket(transactionID, 0x0a, 0x0000000C00000016, param1, tail)
}

// initCommandPacket builds the control-socket handshake frame:
//
//	34000000 01000000 ff*16 <APP_NAME NUL-terminated UTF-16LE> 00000100
func initCommandPacket() []byte {
	buf := make([]byte, 0, 52)
	head := make([]byte, 8)
	binary.LittleEndian.PutUint32(head[0:4], 0x34)
	binary.LittleEndian.PutUint32(head[4:8], 0x01)
	buf = append(buf, head...)
	for i := 0; i < 16; i++ {
		buf = append(buf, 0xff)
	}
	buf = append(buf, codec.EncodeUTF16LENul(appName)...)
	buf = append(buf, 0x00, 0x00, 0x01, 0x00)
	return buf
}

// initEventPacket builds the event-socket handshake frame: 0c000000 03000000 01000000.
func initEventPacket() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], 0x0c)
	binary.LittleEndian.PutUint32(buf[4:8], 0x03)
	binary.LittleEndian.PutUint32(buf[8:12], 0x01)
	return buf
}
