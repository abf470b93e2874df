package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/platform"
)

// ErrPickCancelled reports that a window pick ended without a selection:
// explicit cancel, Escape, or timeout. A cancelled pick mutates nothing.
var ErrPickCancelled = errors.New("window pick cancelled")

// pickPollInterval is how often the pick loop samples the pointer.
const pickPollInterval = 50 * time.Millisecond

// PointerProbe is the input state the pick loop samples.
type PointerProbe interface {
	PointerState() (platform.Point, bool, error)
	EscapePressed() bool
}

// Picker runs the pick-by-click flow: a short-lived polling loop that
// resolves the first click into the top-level window under the pointer.
type Picker struct {
	probe  PointerProbe
	dir    *directory.Directory
	logger *slog.Logger
}

// NewPicker creates a picker.
func NewPicker(probe PointerProbe, dir *directory.Directory, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Picker{probe: probe, dir: dir, logger: logger}
}

// Pick blocks until the user clicks a window, then returns it as a Picked
// entry. It self-terminates on the first detected click and is cancelled by
// the context or by holding Escape. The loop performs no registry mutation;
// the caller decides what to do with the result.
func (p *Picker) Pick(ctx context.Context, timeout time.Duration) (directory.ClassifiedWindow, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(pickPollInterval)
	defer ticker.Stop()

	// Wait for the button to be up first so a click that started the pick
	// action is not immediately counted as the selection.
	armed := false

	for {
		select {
		case <-ctx.Done():
			return directory.ClassifiedWindow{}, ErrPickCancelled
		case <-ticker.C:
		}

		if p.probe.EscapePressed() {
			return directory.ClassifiedWindow{}, ErrPickCancelled
		}

		point, down, err := p.probe.PointerState()
		if err != nil {
			p.logger.Warn("pointer probe failed", "error", err)
			continue
		}
		if !down {
			armed = true
			continue
		}
		if !armed {
			continue
		}

		cw, ok, err := p.dir.PickAt(point)
		if err != nil {
			return directory.ClassifiedWindow{}, err
		}
		if !ok {
			// Clicked the bare desktop; keep waiting for a real window.
			armed = false
			continue
		}
		p.logger.Info("window picked", "window", cw.ID, "title", cw.Title)
		return cw, nil
	}
}
