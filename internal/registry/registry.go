// Package registry implements the reconciliation engine at the heart of the
// embedder: it maps native window identities to tabs and, on every poll,
// diffs the windows found on the desktop against the windows tracked,
// attaching, detaching and removing as policy dictates.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/platform"
)

// Trigger is the reason a reconciliation pass was requested.
type Trigger string

const (
	// TriggerTimer is the periodic background rescan.
	TriggerTimer Trigger = "timer"
	// TriggerRefresh is a user-requested rescan.
	TriggerRefresh Trigger = "refresh"
	// TriggerAttachAll forces attachment of every found window, overriding
	// manual-detach suppression.
	TriggerAttachAll Trigger = "attach-all"
)

// AutoAttachPolicy decides whether a category attaches automatically when
// first discovered. Injected so the default per category stays a
// configuration concern, not part of the algorithm.
type AutoAttachPolicy func(directory.Category) bool

// ProcessTerminator requests best-effort termination of a process.
// A false return is advisory and never blocks tab removal.
type ProcessTerminator interface {
	Terminate(pid int) bool
}

// Registry owns every tab and is the only component that transitions their
// attachment state. All methods are safe for concurrent use; internally a
// single mutex serializes passes, so two reconciliations never interleave.
type Registry struct {
	ws     platform.WindowSystem
	policy AutoAttachPolicy
	proc   ProcessTerminator
	logger *slog.Logger

	mu               sync.Mutex
	tabs             map[platform.WindowID]*Tab
	manuallyDetached map[platform.WindowID]struct{}
	hostArea         platform.Geometry
}

// New creates an empty registry over the given window system.
func New(ws platform.WindowSystem, policy AutoAttachPolicy, proc ProcessTerminator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = func(directory.Category) bool { return false }
	}
	return &Registry{
		ws:               ws,
		policy:           policy,
		proc:             proc,
		logger:           logger,
		tabs:             make(map[platform.WindowID]*Tab),
		manuallyDetached: make(map[platform.WindowID]struct{}),
		hostArea:         platform.Geometry{Width: 1, Height: 1},
	}
}

// Reconcile performs one full pass: garbage collection of dead windows
// first, then state decisions for every window found by the current
// enumeration. Returns the resulting tab list. Failures local to a single
// window never abort the pass.
func (r *Registry) Reconcile(trigger Trigger, found []directory.ClassifiedWindow) []TabInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	foundByID := make(map[platform.WindowID]directory.ClassifiedWindow, len(found))
	for _, cw := range found {
		foundByID[cw.ID] = cw
	}

	// Garbage collection strictly precedes additions so an identity cannot
	// be torn down and recreated from stale data within one pass.
	for id, tab := range r.tabs {
		if _, present := foundByID[id]; present {
			continue
		}
		if r.ws.IsAlive(id) {
			continue
		}
		r.logger.Info("window gone, removing tab", "window", id, "title", tab.Title)
		r.teardownLocked(tab)
	}

	for _, cw := range found {
		if tab, tracked := r.tabs[cw.ID]; tracked {
			r.reconcileTrackedLocked(trigger, tab)
			continue
		}
		r.admitLocked(trigger, cw, false)
	}

	return r.tabsLocked()
}

// reconcileTrackedLocked applies the policy for a window both found and
// tracked. Outside of attach-all the tab is left untouched: no
// re-classification, no title overwrite.
func (r *Registry) reconcileTrackedLocked(trigger Trigger, tab *Tab) {
	if trigger != TriggerAttachAll {
		return
	}
	if _, suppressed := r.manuallyDetached[tab.ID]; suppressed {
		delete(r.manuallyDetached, tab.ID)
	}
	if tab.Attached() {
		return
	}
	if err := r.attachLocked(tab); err != nil {
		r.handleAttachErrLocked(tab, err)
	}
}

// admitLocked creates a tab for a newly discovered window and decides its
// initial attachment.
func (r *Registry) admitLocked(trigger Trigger, cw directory.ClassifiedWindow, forced bool) *Tab {
	tab := &Tab{
		ID:       cw.ID,
		Category: cw.Category,
		Title:    cw.Title,
		RawTitle: cw.RawTitle,
		PID:      cw.PID,
		State:    StateDetached,
	}
	r.tabs[cw.ID] = tab

	_, suppressed := r.manuallyDetached[cw.ID]
	shouldAttach := forced || trigger == TriggerAttachAll ||
		(r.policy(cw.Category) && !suppressed)
	if forced || trigger == TriggerAttachAll {
		delete(r.manuallyDetached, cw.ID)
	}

	if !shouldAttach {
		r.logger.Debug("tracking window as placeholder", "window", cw.ID, "title", cw.Title)
		return tab
	}

	if err := r.attachLocked(tab); err != nil {
		r.handleAttachErrLocked(tab, err)
		if IsStale(err) {
			return nil
		}
		return tab
	}
	r.logger.Info("attached window", "window", cw.ID, "title", cw.Title, "category", cw.Category)
	return tab
}

func (r *Registry) handleAttachErrLocked(tab *Tab, err error) {
	if IsStale(err) {
		// Dead before we could embed it: drop from tracking entirely.
		r.teardownLocked(tab)
		return
	}
	// OS rejected the attach; keep the placeholder so the user can retry.
	r.logger.Warn("attach failed", "window", tab.ID, "error", err)
}

// attachLocked embeds a tab's window: host surface first, then the style
// capture and reparent, then an immediate size to the host client area
// (size-then-show, so no flash of wrong geometry).
func (r *Registry) attachLocked(tab *Tab) error {
	if tab.Attached() {
		return nil
	}
	if !r.ws.IsAlive(tab.ID) {
		return fmt.Errorf("attach %d: %w", tab.ID, platform.ErrStaleWindow)
	}

	host, err := r.ws.CreateHostSurface(platform.Geometry{
		Width: r.hostArea.Width, Height: r.hostArea.Height,
	})
	if err != nil {
		return &AttachError{ID: tab.ID, Err: err}
	}

	snap, err := r.ws.Attach(tab.ID, host)
	if err != nil {
		r.ws.DestroyHostSurface(host)
		if IsStale(err) {
			return err
		}
		return &AttachError{ID: tab.ID, Err: err}
	}

	tab.saved = &snap
	tab.host = host
	tab.State = StateAttached

	// Size first, map second, so the window never paints at the wrong
	// geometry.
	if err := r.ws.MoveResize(tab.ID, platform.Geometry{
		Width: r.hostArea.Width, Height: r.hostArea.Height,
	}); err != nil {
		r.logger.Warn("initial resize failed", "window", tab.ID, "error", err)
	}
	if err := r.ws.Show(tab.ID); err != nil {
		r.logger.Warn("map after attach failed", "window", tab.ID, "error", err)
	}
	return nil
}

// detachLocked restores a tab's window. Idempotent: a second call on an
// already-detached tab observes no state change.
func (r *Registry) detachLocked(tab *Tab, manual bool) {
	if tab.Attached() && tab.saved != nil {
		if err := r.ws.Detach(tab.ID, *tab.saved); err != nil {
			r.logger.Warn("detach failed", "window", tab.ID, "error", err)
		}
		tab.saved = nil
	}
	if tab.host != 0 {
		r.ws.DestroyHostSurface(tab.host)
		tab.host = 0
	}
	if manual {
		tab.State = StateManuallyDetached
		r.manuallyDetached[tab.ID] = struct{}{}
	} else if tab.State == StateAttached {
		tab.State = StateDetached
	}
}

// teardownLocked removes a tab completely: best-effort detach, host surface
// destruction, and removal from both the registry and the manually-detached
// set.
func (r *Registry) teardownLocked(tab *Tab) {
	r.detachLocked(tab, false)
	delete(r.tabs, tab.ID)
	delete(r.manuallyDetached, tab.ID)
}

// Attach embeds a tracked window on explicit user request, clearing any
// manual-detach suppression.
func (r *Registry) Attach(id platform.WindowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[id]
	if !ok {
		return fmt.Errorf("attach %d: %w", id, ErrNotTracked)
	}
	delete(r.manuallyDetached, id)
	if err := r.attachLocked(tab); err != nil {
		r.handleAttachErrLocked(tab, err)
		return err
	}
	return nil
}

// Detach restores a tracked window on explicit user request and suppresses
// re-auto-attach until the user asks again.
func (r *Registry) Detach(id platform.WindowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[id]
	if !ok {
		return fmt.Errorf("detach %d: %w", id, ErrNotTracked)
	}
	r.detachLocked(tab, true)
	return nil
}

// AddPicked admits an explicitly picked window with forced attachment.
// Safe to call for an already-tracked identity: it re-attaches instead.
func (r *Registry) AddPicked(cw directory.ClassifiedWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tab, tracked := r.tabs[cw.ID]; tracked {
		delete(r.manuallyDetached, cw.ID)
		if err := r.attachLocked(tab); err != nil {
			r.handleAttachErrLocked(tab, err)
			return err
		}
		return nil
	}
	tab := r.admitLocked(TriggerRefresh, cw, true)
	if tab == nil {
		return fmt.Errorf("pick %d: %w", cw.ID, platform.ErrStaleWindow)
	}
	if !tab.Attached() {
		return &AttachError{ID: cw.ID, Err: fmt.Errorf("window could not be embedded")}
	}
	return nil
}

// Rename sets a tab's display title. Reconciliation never overwrites it.
func (r *Registry) Rename(id platform.WindowID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[id]
	if !ok {
		return fmt.Errorf("rename %d: %w", id, ErrNotTracked)
	}
	tab.Title = title
	return nil
}

// Raise maps and raises a tab's host surface above its siblings (tab
// switching).
func (r *Registry) Raise(id platform.WindowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[id]
	if !ok {
		return fmt.Errorf("raise %d: %w", id, ErrNotTracked)
	}
	if tab.host == 0 {
		return nil
	}
	return r.ws.RaiseHostSurface(tab.host)
}

// CloseTab terminates the window's owning process best-effort and removes
// the tab. Termination is advisory: the tab is removed even when the
// process could not be killed, because the window may already be gone.
func (r *Registry) CloseTab(id platform.WindowID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[id]
	if !ok {
		return false, fmt.Errorf("close %d: %w", id, ErrNotTracked)
	}

	terminated := false
	if r.proc != nil && tab.PID > 0 {
		terminated = r.proc.Terminate(tab.PID)
		if !terminated {
			r.logger.Warn("process termination failed, removing tab anyway",
				"window", id, "pid", tab.PID)
		}
	}
	r.teardownLocked(tab)
	return terminated, nil
}

// CloseAll terminates every tab's owning process best-effort and clears the
// registry. Returns how many processes were successfully terminated.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for _, tab := range r.tabsSortedLocked() {
		if r.proc != nil && tab.PID > 0 && r.proc.Terminate(tab.PID) {
			closed++
		}
		r.teardownLocked(tab)
	}
	return closed
}

// SetHostArea records the container's new client size and synchronously
// resizes every attached window (and its host surface) to fill it exactly.
// Called on every host resize event, outside the poll cycle.
func (r *Registry) SetHostArea(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width < 1 || height < 1 {
		return
	}
	if r.hostArea.Width == width && r.hostArea.Height == height {
		return
	}
	r.hostArea = platform.Geometry{Width: width, Height: height}

	fill := platform.Geometry{Width: width, Height: height}
	for _, tab := range r.tabs {
		if !tab.Attached() {
			continue
		}
		if tab.host != 0 {
			if err := r.ws.MoveResize(tab.host, fill); err != nil {
				r.logger.Warn("host surface resize failed", "window", tab.ID, "error", err)
			}
		}
		if err := r.ws.MoveResize(tab.ID, fill); err != nil {
			r.logger.Warn("embedded window resize failed", "window", tab.ID, "error", err)
		}
	}
}

// Shutdown unconditionally detaches every attached window so nothing stays
// parented to a container that is about to be destroyed. The registry is
// left empty.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tab := range r.tabs {
		r.detachLocked(tab, false)
	}
	r.tabs = make(map[platform.WindowID]*Tab)
	r.manuallyDetached = make(map[platform.WindowID]struct{})
}

// Tabs returns a stable snapshot of the current tab list for rendering.
func (r *Registry) Tabs() []TabInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tabsLocked()
}

func (r *Registry) tabsLocked() []TabInfo {
	infos := make([]TabInfo, 0, len(r.tabs))
	for _, tab := range r.tabsSortedLocked() {
		infos = append(infos, tab.info())
	}
	return infos
}

func (r *Registry) tabsSortedLocked() []*Tab {
	tabs := make([]*Tab, 0, len(r.tabs))
	for _, tab := range r.tabs {
		tabs = append(tabs, tab)
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	return tabs
}
