package platform

import "errors"

// WindowID is a platform-neutral identifier for a native top-level window.
// It is only meaningful while the window exists; every use must re-validate
// liveness through the backend before trusting it.
type WindowID uint32

// Point is a position in root/screen coordinates.
type Point struct {
	X int
	Y int
}

// Geometry describes a window's position and size.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowInfo contains metadata for one visible top-level window as reported
// by a single enumeration pass. It is never cached across passes.
type WindowInfo struct {
	ID        WindowID
	Title     string
	PID       int
	HasParent bool // reparented under another client window
	Bounds    Geometry
}

// StyleSnapshot is a window's pre-embedding native state, captured by Attach
// and required verbatim by Detach to restore the window exactly.
type StyleSnapshot struct {
	// Decorations holds the window's decoration hint words as found before
	// embedding. HadDecorHints distinguishes "hints absent" from "hints all
	// zero" so Detach can delete rather than rewrite the property.
	Decorations   [5]uint32
	HadDecorHints bool

	OverrideRedirect bool
	Parent           WindowID
}

// ErrStaleWindow reports that a window identity no longer refers to a live
// window. Callers recover by dropping the tracked entry.
var ErrStaleWindow = errors.New("window no longer exists")

// WindowSystem abstracts the native window operations the embedding core
// needs. The core logic depends only on this interface; it is implemented
// once per target OS.
type WindowSystem interface {
	// ListWindows enumerates visible top-level windows. A failure to query
	// one window must not abort the scan: the window is skipped.
	ListWindows() ([]WindowInfo, error)

	// IsAlive reports whether the identity still refers to a live window.
	IsAlive(id WindowID) bool
	// Title returns the window's current title.
	Title(id WindowID) (string, error)
	// OwnerPID returns the process id owning the window, or 0 if unknown.
	OwnerPID(id WindowID) (int, error)
	// OwnerExecutable returns the basename of the executable for a pid.
	OwnerExecutable(pid int) (string, error)
	// WindowAt returns the top-level window under a screen point, or 0.
	WindowAt(p Point) (WindowID, error)
	// TopLevelAncestor walks up from an arbitrary window to its top-level
	// ancestor (the direct child of the desktop root).
	TopLevelAncestor(id WindowID) (WindowID, error)

	// Attach strips the window's frame, reparents it under the host surface
	// and returns the pre-embedding snapshot. Fails with ErrStaleWindow if
	// the window died before the first mutation. The embedded window is not
	// sized; the caller must immediately size it to the host's client area.
	Attach(id, host WindowID) (StyleSnapshot, error)
	// Detach restores the snapshot's style verbatim, reparents the window
	// back to its original parent and shows it. Calling it on a dead window
	// is a silent no-op.
	Detach(id WindowID, snap StyleSnapshot) error

	// MoveResize sets a window's geometry relative to its current parent.
	MoveResize(id WindowID, g Geometry) error
	// Show maps a window (embedding may have altered its show state).
	Show(id WindowID) error

	// CreateHostSurface creates a hosting child surface under the container.
	CreateHostSurface(g Geometry) (WindowID, error)
	// DestroyHostSurface destroys a surface created by CreateHostSurface.
	DestroyHostSurface(id WindowID) error
	// RaiseHostSurface maps and raises one surface above its siblings.
	RaiseHostSurface(id WindowID) error

	// PointerState reports the pointer position and whether the primary
	// button is currently held down. Used by the pick-by-click flow.
	PointerState() (Point, bool, error)
}
