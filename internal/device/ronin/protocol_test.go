package ronin

import (
	"testing"

	"gimbal-control/internal/device/codec"
)

// spec §8 scenario 2: pan=0.5, tilt=-0.25, roll=0, seq=7, no reversal.
func TestBuildPTRPacketScenario(t *testing.T) {
	pan := codec.ScaleAxisRonin(0.5)
	tilt := codec.ScaleAxisRonin(-0.25)
	roll := codec.ScaleAxisRonin(0)

	frame := buildPTRPacket(7, pan, tilt, roll)

	prefix := []byte{0x55, 0x16, 0x04, 0xfc, 0x02, 0x04, 0x07, 0x00, 0x40, 0x04, 0x01}
	for i, b := range prefix {
		if frame[i] != b {
			t.Fatalf("frame[%d] = %02x, want %02x (frame=%x)", i, frame[i], b, frame)
		}
	}

	// tilt(2) roll(2) pan(2) at offset 11
	if frame[11] != 0xf0 || frame[12] != 0x03 {
		t.Fatalf("tilt bytes = %02x%02x, want f003", frame[11], frame[12])
	}
	if frame[13] != 0x00 || frame[14] != 0x04 {
		t.Fatalf("roll bytes = %02x%02x, want 0004", frame[13], frame[14])
	}
	if frame[15] != 0x40 || frame[16] != 0x04 {
		t.Fatalf("pan bytes = %02x%02x, want 4004", frame[15], frame[16])
	}

	suffix := []byte{0x00, 0x00, 0x02}
	for i, b := range suffix {
		if frame[17+i] != b {
			t.Fatalf("frame[%d] = %02x, want %02x", 17+i, frame[17+i], b)
		}
	}

	if len(frame) != 22 {
		t.Fatalf("len(frame) = %d, want 22 (20 payload + 2 crc)", len(frame))
	}
}

func TestIsStatusFrame(t *testing.T) {
	frame := make([]byte, 16)
	copy(frame, []byte{0x55, 0x1c, 0x04, 0x1b, 0xdf, 0x02})
	frame[14] = 0x34
	frame[15] = 0x12
	if !isStatusFrame(frame) {
		t.Fatal("expected status frame to match")
	}
	if statusFrameZoom(frame) != 0x1234 {
		t.Fatalf("statusFrameZoom = %x, want 1234", statusFrameZoom(frame))
	}

	notStatus := make([]byte, 16)
	if isStatusFrame(notStatus) {
		t.Fatal("expected non-matching prefix to be rejected")
	}

	tooShort := []byte{0x55, 0x1c, 0x04, 0x1b, 0xdf, 0x02}
	if isStatusFrame(tooShort) {
		t.Fatal("expected too-short frame to be rejected")
	}
}
