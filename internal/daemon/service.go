// Package daemon wires the embedding core together: the periodic poller,
// the pick-by-click flow, and the operations the IPC surface exposes to
// the surrounding UI.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmtabs/vmtabs/internal/config"
	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/platform"
	"github.com/vmtabs/vmtabs/internal/proc"
	"github.com/vmtabs/vmtabs/internal/registry"
)

// Service is the daemon's operation surface. Every mutating entry point
// funnels into the registry, which serializes passes internally.
type Service struct {
	cfg    *config.Config
	reg    *registry.Registry
	dir    *directory.Directory
	poller *Poller
	picker *Picker
	proc   *proc.Controller
	logger *slog.Logger
	start  time.Time
}

// NewService assembles the core over a window system backend.
func NewService(cfg *config.Config, ws platform.WindowSystem, probe PointerProbe, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	dir := directory.New(ws, cfg.Rules())
	pc := proc.NewController(logger)
	reg := registry.New(ws, cfg.AutoAttachEnabled, pc, logger)
	return &Service{
		cfg:    cfg,
		reg:    reg,
		dir:    dir,
		poller: NewPoller(cfg.PollInterval(), dir, reg, logger),
		picker: NewPicker(probe, dir, logger),
		proc:   pc,
		logger: logger,
		start:  time.Now(),
	}
}

// Registry exposes the tab registry (host-area wiring, tests).
func (s *Service) Registry() *registry.Registry { return s.reg }

// Run starts the background poll loop, blocking until ctx is cancelled,
// then detaches everything before returning.
func (s *Service) Run(ctx context.Context) {
	s.poller.Reconcile(registry.TriggerTimer)
	s.poller.Run(ctx)
	s.Shutdown()
}

// Shutdown detaches every attached window. Called exactly once before the
// container window goes away.
func (s *Service) Shutdown() {
	s.logger.Info("detaching all embedded windows")
	s.reg.Shutdown()
}

// Tabs returns the current tab list.
func (s *Service) Tabs() []registry.TabInfo { return s.reg.Tabs() }

// Refresh runs an on-demand reconciliation pass.
func (s *Service) Refresh(trigger registry.Trigger) []registry.TabInfo {
	return s.poller.Reconcile(trigger)
}

// Attach embeds a tracked window on user request.
func (s *Service) Attach(id platform.WindowID) error { return s.reg.Attach(id) }

// Detach restores a window and suppresses re-auto-attach.
func (s *Service) Detach(id platform.WindowID) error { return s.reg.Detach(id) }

// Rename sets a tab's display title.
func (s *Service) Rename(id platform.WindowID, title string) error {
	return s.reg.Rename(id, title)
}

// Raise brings a tab's host surface to the front.
func (s *Service) Raise(id platform.WindowID) error { return s.reg.Raise(id) }

// CloseTab terminates the owning process best-effort and removes the tab.
func (s *Service) CloseTab(id platform.WindowID) (bool, error) {
	return s.reg.CloseTab(id)
}

// CloseAll terminates every tab's process, plus the configured companion
// service, and clears the registry. Returns the number of processes killed.
func (s *Service) CloseAll() int {
	closed := s.reg.CloseAll()
	if s.cfg.ServiceProcess != "" {
		s.proc.TerminateByName(s.cfg.ServiceProcess)
	}
	return closed
}

// Pick runs the pick-by-click flow and, on success, admits the picked
// window with forced attachment. A cancelled pick changes nothing.
func (s *Service) Pick(ctx context.Context, timeout time.Duration) (registry.TabInfo, error) {
	cw, err := s.picker.Pick(ctx, timeout)
	if err != nil {
		return registry.TabInfo{}, err
	}
	if err := s.reg.AddPicked(cw); err != nil {
		return registry.TabInfo{}, err
	}
	return registry.TabInfo{
		ID:       cw.ID,
		Title:    cw.Title,
		RawTitle: cw.RawTitle,
		Category: cw.Category,
		State:    registry.StateAttached,
		PID:      cw.PID,
	}, nil
}

// Uptime reports how long the daemon has been running.
func (s *Service) Uptime() time.Duration { return time.Since(s.start) }
