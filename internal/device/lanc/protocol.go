// Package lanc drives a LANC-protocol camera through an Arduino bridge
// attached over a serial port. The bridge owns the LANC half-duplex
// timing; this driver only hands it 5-byte ASCII command codes. The port
// is opened with github.com/tarm/serial; the code tables and burst timing
// follow the original implementation.
package lanc

var (
	zoomTeleCodes = []string{"2800\n", "2802\n", "2804\n", "2806\n", "2808\n", "280A\n", "280C\n", "280E\n"}
	zoomWideCodes = []string{"2810\n", "2812\n", "2814\n", "2816\n", "2818\n", "281A\n", "281C\n", "281E\n"}
	zoomThresholds = []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}

	focusFarCodes  = []string{"28E1\n", "28E3\n", "28E5\n", "28E7\n", "28E9\n", "28EB\n"}
	focusNearCodes = []string{"28F1\n", "28F3\n", "28F5\n", "28F7\n", "28F9\n", "28FB\n"}
	focusThresholds = []float64{0.20, 0.35, 0.50, 0.65, 0.80}

	autofocusCode = "2843\n"
)

// codeForThreshold walks thresholds in ascending order, counting how many
// |v| has cleared, and returns the code at that count: |v| below the first
// threshold still gets codes[0] (the slowest code), |v| at or above the
// last threshold gets the fastest code.
func codeForThreshold(v float64, thresholds []float64, codes []string) string {
	av := v
	if av < 0 {
		av = -av
	}
	idx := 0
	for _, t := range thresholds {
		if av < t {
			break
		}
		idx++
	}
	return codes[idx]
}

// zoomCode selects a tele/wide zoom code from a [-1,1] speed, or "" when
// speed is exactly zero (no motion commanded on this axis).
func zoomCode(speed float64) string {
	if speed > 0 {
		return codeForThreshold(speed, zoomThresholds, zoomTeleCodes)
	}
	if speed < 0 {
		return codeForThreshold(speed, zoomThresholds, zoomWideCodes)
	}
	return ""
}

// focusCode selects a far/near focus code from a [-1,1] value, or "" when
// focus is exactly zero. Positive is far, negative is near, matching the
// Focus axis convention used elsewhere in the control plane.
func focusCode(focus float64) string {
	if focus > 0 {
		return codeForThreshold(focus, focusThresholds, focusFarCodes)
	}
	if focus < 0 {
		return codeForThreshold(focus, focusThresholds, focusNearCodes)
	}
	return ""
}

// commandPair builds the two codes to send for a command, per spec §4.4:
// autofocus wins outright and is sent alone; otherwise zoom and focus are
// independent selections, and whichever of them fire get paired up — a
// single selection is duplicated to fill the pair, none selected yields no
// transmission at all.
func commandPair(cmd commandInput) ([2]string, bool) {
	if cmd.autofocus {
		return [2]string{autofocusCode, autofocusCode}, true
	}

	var codes []string
	if code := zoomCode(cmd.zoom); code != "" {
		codes = append(codes, code)
	}
	if code := focusCode(cmd.focus); code != "" {
		codes = append(codes, code)
	}

	switch len(codes) {
	case 0:
		return [2]string{}, false
	case 1:
		return [2]string{codes[0], codes[0]}, true
	default:
		return [2]string{codes[0], codes[1]}, true
	}
}

type commandInput struct {
	zoom      float64
	focus     float64
	autofocus bool
}
