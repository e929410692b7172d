package codec

import "unicode/utf16"

// ScaleAxisRonin applies the Ronin squared-magnitude curve: v*|v|*256,
// truncated to an int16. Finer resolution near zero, full swing at |v|==1.
func ScaleAxisRonin(v float64) int16 {
	return int16(v * absF(v) * 256)
}

// EncodeAxisRonin encodes a pre-scaled axis value as 1024+scaled,
// little-endian. scaled must be in [-1024, 1024].
func EncodeAxisRonin(scaled int16) [2]byte {
	u := uint16(1024 + int32(scaled))
	return [2]byte{byte(u), byte(u >> 8)}
}

// ScaleAxisCrane applies the crane-style cubic curve used by the alternate
// gimbal variant: sign(v) * clamp(|v|^3 * 2048, 2, 2047).
func ScaleAxisCrane(v float64) int16 {
	if v == 0 {
		return 0
	}
	mag := absF(v) * absF(v) * absF(v) * 2048
	if mag < 2 {
		mag = 2
	}
	if mag > 2047 {
		mag = 2047
	}
	scaled := int16(mag)
	if v < 0 {
		return -scaled
	}
	return scaled
}

// EncodeAxisCrane encodes a pre-scaled axis value as 2048+scaled,
// little-endian.
func EncodeAxisCrane(scaled int16) [2]byte {
	u := uint16(2048 + int32(scaled))
	return [2]byte{byte(u), byte(u >> 8)}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// EncodeUTF16LENul encodes s as UTF-16LE terminated by a NUL code unit.
func EncodeUTF16LENul(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, (len(units)+1)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	out = append(out, 0, 0)
	return out
}
