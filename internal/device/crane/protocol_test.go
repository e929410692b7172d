package crane

import (
	"bytes"
	"testing"

	"gimbal-control/internal/device/codec"
)

func TestBuildTiltPacketZero(t *testing.T) {
	got := buildTiltPacket(0, 0)
	want := []byte{0x24, 0x3c, 0x08, 0x00, 0x18, 0x12, 0x00, 0x01, 0x01, 0x10, 0x00, 0x08, 0x78, 0x6a}
	if !bytes.Equal(got, want) {
		t.Fatalf("buildTiltPacket(0, 0) = % x, want % x", got, want)
	}
}

func TestBuildTiltPacketFullScale(t *testing.T) {
	got := buildTiltPacket(1, 2047)
	want := []byte{0x24, 0x3c, 0x08, 0x00, 0x18, 0x12, 0x01, 0x01, 0x01, 0x10, 0xff, 0x0f, 0xc0, 0x5c}
	if !bytes.Equal(got, want) {
		t.Fatalf("buildTiltPacket(1, 2047) = % x, want % x", got, want)
	}
}

func TestBuildRollPacketNegativeFullScale(t *testing.T) {
	got := buildRollPacket(0, -2047)
	want := []byte{0x24, 0x3c, 0x08, 0x00, 0x18, 0x12, 0x00, 0x01, 0x02, 0x10, 0x01, 0x00, 0x9d, 0x43}
	if !bytes.Equal(got, want) {
		t.Fatalf("buildRollPacket(0, -2047) = % x, want % x", got, want)
	}
}

func TestBuildPanPacketSmallValueClampsToFloor(t *testing.T) {
	// scale(0.05) cubes to 0.256, below the floor-of-2 clamp in ScaleAxisCrane,
	// so it should come out at exactly the floor, not rounded to zero.
	got := buildPanPacket(5, 2)
	want := []byte{0x24, 0x3c, 0x08, 0x00, 0x18, 0x12, 0x05, 0x01, 0x03, 0x10, 0x02, 0x08, 0x73, 0xa2}
	if !bytes.Equal(got, want) {
		t.Fatalf("buildPanPacket(5, 2) = % x, want % x", got, want)
	}
}

func TestMidfixesDistinguishAxes(t *testing.T) {
	if tiltMidfix == rollMidfix || rollMidfix == panMidfix || tiltMidfix == panMidfix {
		t.Fatal("axis midfixes must be pairwise distinct")
	}
}

func TestCommandUUIDParses(t *testing.T) {
	if commandUUID.String() == "" {
		t.Fatal("expected commandUUID to parse to a non-empty UUID")
	}
}

func TestCRC16CraneMatchesAxisPacketSuffix(t *testing.T) {
	body := []byte{0x24, 0x3c, 0x08, 0x00, 0x18, 0x12, 0x00, 0x01, 0x01, 0x10, 0x00, 0x08}
	got := codec.AppendCraneChecksum(append([]byte{}, body...))
	if got[len(got)-2] != 0x78 || got[len(got)-1] != 0x6a {
		t.Fatalf("checksum suffix = % x, want 78 6a", got[len(got)-2:])
	}
}
