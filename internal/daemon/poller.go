package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/registry"
)

// Poller drives the periodic rescan: every tick it enumerates the desktop
// and hands the result to the registry for reconciliation. Discrete user
// actions go through the same entry point with their own trigger.
type Poller struct {
	interval time.Duration
	dir      *directory.Directory
	reg      *registry.Registry
	logger   *slog.Logger

	// busy prevents two passes from overlapping when a tick fires while a
	// slow enumeration is still running.
	busy atomic.Bool
}

// NewPoller creates a poller. Intervals below one second are clamped.
func NewPoller(interval time.Duration, dir *directory.Directory, reg *registry.Registry, logger *slog.Logger) *Poller {
	if interval < time.Second {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval: interval,
		dir:      dir,
		reg:      reg,
		logger:   logger,
	}
}

// Run starts the polling loop. Blocks until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.Reconcile(registry.TriggerTimer)
		}
	}
}

// Reconcile performs one enumeration + reconciliation pass and returns the
// resulting tab list. If a pass is already in flight the call is skipped
// and the current tab list returned unchanged. A panic inside a pass is
// recovered so one bad cycle cannot take the daemon down.
func (p *Poller) Reconcile(trigger registry.Trigger) []registry.TabInfo {
	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Debug("reconciliation already in progress, skipping", "trigger", trigger)
		return p.reg.Tabs()
	}
	defer p.busy.Store(false)

	defer func() {
		if err := recover(); err != nil {
			p.logger.Error("reconciliation panic recovered", "error", err)
		}
	}()

	found, err := p.dir.Enumerate()
	if err != nil {
		// A failed enumeration counts as "no windows found this cycle";
		// live windows survive it because garbage collection re-probes
		// liveness per identity. Retried next cycle.
		p.logger.Error("enumeration failed", "error", err)
		found = nil
	}

	return p.reg.Reconcile(trigger, found)
}
