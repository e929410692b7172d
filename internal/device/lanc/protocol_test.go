package lanc

import "testing"

// spec §8 scenario 4: LANC zoom 0.45 emits pair [2806\n, 2806\n].
func TestCommandPairZoom045(t *testing.T) {
	pair, ok := commandPair(commandInput{zoom: 0.45})
	if !ok {
		t.Fatal("expected a command pair for zoom=0.45")
	}
	if pair[0] != "2806\n" || pair[1] != "2806\n" {
		t.Fatalf("pair = %v, want [2806\\n 2806\\n]", pair)
	}
}

func TestCommandPairZoomWideMirror(t *testing.T) {
	pair, ok := commandPair(commandInput{zoom: -0.45})
	if !ok {
		t.Fatal("expected a command pair for zoom=-0.45")
	}
	if pair[0] != "2816\n" || pair[1] != "2816\n" {
		t.Fatalf("pair = %v, want [2816\\n 2816\\n]", pair)
	}
}

// spec §8 scenario 5: autofocus overrides focus entirely.
func TestCommandPairAutofocusOverridesFocus(t *testing.T) {
	pair, ok := commandPair(commandInput{focus: 0.9, autofocus: true})
	if !ok {
		t.Fatal("expected a command pair for autofocus")
	}
	if pair[0] != autofocusCode || pair[1] != autofocusCode {
		t.Fatalf("pair = %v, want both %q", pair, autofocusCode)
	}
}

func TestCommandPairZeroYieldsNoTransmission(t *testing.T) {
	_, ok := commandPair(commandInput{})
	if ok {
		t.Fatal("expected no command pair for an all-zero command")
	}
}

func TestCommandPairSingleSelectionDuplicated(t *testing.T) {
	pair, ok := commandPair(commandInput{zoom: 0.1})
	if !ok {
		t.Fatal("expected a command pair for zoom=0.1")
	}
	if pair[0] != pair[1] {
		t.Fatalf("single selection should duplicate into both slots, got %v", pair)
	}
}

func TestCommandPairBothZoomAndFocus(t *testing.T) {
	pair, ok := commandPair(commandInput{zoom: 0.9, focus: -0.9})
	if !ok {
		t.Fatal("expected a command pair")
	}
	if pair[0] == pair[1] {
		t.Fatalf("distinct zoom+focus selections should not collapse to one code, got %v", pair)
	}
}

func TestFocusCodeThresholdBuckets(t *testing.T) {
	cases := []struct {
		focus float64
		want  string
	}{
		{0.01, "28E1\n"},
		{0.3, "28E3\n"},
		{0.9, "28EB\n"},
		{-0.01, "28F1\n"},
		{-0.9, "28FB\n"},
	}
	for _, c := range cases {
		if got := focusCode(c.focus); got != c.want {
			t.Errorf("focusCode(%v) = %q, want %q", c.focus, got, c.want)
		}
	}
}
