package ronin

import "testing"

func TestZoomIncrementBounds(t *testing.T) {
	if got := zoomIncrement(0); got != 0 {
		t.Fatalf("zoomIncrement(0) = %d, want 0", got)
	}
	for _, v := range []float64{0.01, 0.3, 0.8, 1.0, -0.01, -0.3, -1.0} {
		got := zoomIncrement(v)
		mag := got
		if mag < 0 {
			mag = -mag
		}
		if mag < 3 || mag > 1000 {
			t.Errorf("zoomIncrement(%v) = %d, magnitude out of [3,1000]", v, got)
		}
		if v > 0 && got <= 0 {
			t.Errorf("zoomIncrement(%v) = %d, want positive", v, got)
		}
		if v < 0 && got >= 0 {
			t.Errorf("zoomIncrement(%v) = %d, want negative", v, got)
		}
	}
}

func TestClampTarget(t *testing.T) {
	cases := []struct {
		in, want int32
	}{
		{-10, 0},
		{0, 0},
		{2000, 2000},
		{4095, 4095},
		{5000, 4095},
	}
	for _, c := range cases {
		if got := clampTarget(c.in); got != c.want {
			t.Errorf("clampTarget(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestZoomSignalReplaceSemantics(t *testing.T) {
	z := newZoomSignal()
	v, changed := z.Get()
	if v != 0 {
		t.Fatalf("initial value = %v, want 0", v)
	}

	z.Set(0.5)
	select {
	case <-changed:
	default:
		t.Fatal("expected changed channel to close after Set")
	}

	v2, _ := z.Get()
	if v2 != 0.5 {
		t.Fatalf("value after Set = %v, want 0.5", v2)
	}

	// A second Set before the reader observes the first still only leaves
	// the latest value visible (replace, not queue).
	z.Set(0.1)
	z.Set(0.9)
	v3, _ := z.Get()
	if v3 != 0.9 {
		t.Fatalf("value after two Sets = %v, want 0.9 (latest wins)", v3)
	}
}

func TestZoomStateObserve(t *testing.T) {
	var zs zoomState
	level, _ := zs.snapshot()
	if level != 0 {
		t.Fatalf("initial level = %d, want 0", level)
	}
	zs.observe(100)
	level, t1 := zs.snapshot()
	if level != 100 {
		t.Fatalf("level after observe = %d, want 100", level)
	}
	zs.observe(100)
	_, t2 := zs.snapshot()
	if !t2.Equal(t1) {
		t.Fatal("observing the same level again should not update lastMove")
	}
}
