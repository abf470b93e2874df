package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/platform"
)

// scriptedProbe replays a fixed sequence of pointer samples.
type scriptedProbe struct {
	samples []pointerSample
	escape  bool
}

type pointerSample struct {
	down bool
}

func (s *scriptedProbe) PointerState() (platform.Point, bool, error) {
	if len(s.samples) == 0 {
		return platform.Point{}, false, nil
	}
	sample := s.samples[0]
	s.samples = s.samples[1:]
	return platform.Point{X: 10, Y: 10}, sample.down, nil
}

func (s *scriptedProbe) EscapePressed() bool { return s.escape }

func TestPickWaitsForButtonRelease(t *testing.T) {
	ws := newFakeWindowSystem()
	ws.titles[5] = "gvim"
	ws.windowAtSeq = []platform.WindowID{5}
	probe := &scriptedProbe{samples: []pointerSample{
		// Button still held from the gesture that started the pick; must
		// not count as the selection.
		{down: true},
		{down: true},
		{down: false},
		{down: true},
	}}
	picker := NewPicker(probe, directory.New(ws, testRules()), testLogger())

	cw, err := picker.Pick(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if cw.ID != 5 || cw.Category != directory.CategoryPicked {
		t.Errorf("picked = %+v, want window 5", cw)
	}
	if len(probe.samples) != 0 {
		t.Errorf("%d samples unconsumed; picked too early", len(probe.samples))
	}
}

func TestPickDesktopClickRearms(t *testing.T) {
	ws := newFakeWindowSystem()
	ws.titles[5] = "gvim"
	// First click lands on the bare desktop, second on a real window.
	ws.windowAtSeq = []platform.WindowID{0, 5}
	probe := &scriptedProbe{samples: []pointerSample{
		{down: false},
		{down: true},
		{down: false},
		{down: true},
	}}
	picker := NewPicker(probe, directory.New(ws, testRules()), testLogger())

	cw, err := picker.Pick(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if cw.ID != 5 {
		t.Errorf("picked = %+v, want window 5", cw)
	}
}

func TestPickEscapeCancels(t *testing.T) {
	ws := newFakeWindowSystem()
	probe := &scriptedProbe{escape: true}
	picker := NewPicker(probe, directory.New(ws, testRules()), testLogger())

	_, err := picker.Pick(context.Background(), time.Second)
	if !errors.Is(err, ErrPickCancelled) {
		t.Errorf("err = %v, want %v", err, ErrPickCancelled)
	}
}

func TestPickTimeout(t *testing.T) {
	ws := newFakeWindowSystem()
	probe := &scriptedProbe{}
	picker := NewPicker(probe, directory.New(ws, testRules()), testLogger())

	start := time.Now()
	_, err := picker.Pick(context.Background(), 120*time.Millisecond)
	if !errors.Is(err, ErrPickCancelled) {
		t.Errorf("err = %v, want %v", err, ErrPickCancelled)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestPickContextCancel(t *testing.T) {
	ws := newFakeWindowSystem()
	probe := &scriptedProbe{}
	picker := NewPicker(probe, directory.New(ws, testRules()), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := picker.Pick(ctx, 0)
	if !errors.Is(err, ErrPickCancelled) {
		t.Errorf("err = %v, want %v", err, ErrPickCancelled)
	}
}
