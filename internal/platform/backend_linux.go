//go:build linux

package platform

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/vmtabs/vmtabs/internal/x11"
)

// X11Backend implements WindowSystem on top of an X11 connection.
type X11Backend struct {
	conn      *x11.Connection
	container xproto.Window
}

var _ WindowSystem = (*X11Backend)(nil)

// NewX11Backend opens a fresh X11 connection.
func NewX11Backend() (*X11Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *X11Backend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *X11Backend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific wiring
// (hotkeys, event handlers).
func (b *X11Backend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *X11Backend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// CreateContainer creates the top-level container window host surfaces live
// in. Must be called once before CreateHostSurface.
func (b *X11Backend) CreateContainer(title string, width, height int) (WindowID, error) {
	win, err := b.conn.CreateContainer(title, width, height)
	if err != nil {
		return 0, err
	}
	b.container = win
	return WindowID(win), nil
}

// OnContainerResize registers a resize callback for the container window.
func (b *X11Backend) OnContainerResize(fn func(width, height int)) {
	if b.container != 0 {
		b.conn.OnContainerResize(b.container, fn)
	}
}

func (b *X11Backend) ListWindows() ([]WindowInfo, error) {
	wins, err := b.conn.ListWindows()
	if err != nil {
		return nil, err
	}
	infos := make([]WindowInfo, 0, len(wins))
	for _, w := range wins {
		infos = append(infos, WindowInfo{
			ID:        WindowID(w.ID),
			Title:     w.Title,
			PID:       w.PID,
			HasParent: w.HasParent,
			Bounds:    Geometry{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height},
		})
	}
	return infos, nil
}

func (b *X11Backend) IsAlive(id WindowID) bool {
	return b.conn.IsAlive(xproto.Window(id))
}

func (b *X11Backend) Title(id WindowID) (string, error) {
	return b.conn.Title(xproto.Window(id))
}

func (b *X11Backend) OwnerPID(id WindowID) (int, error) {
	return b.conn.OwnerPID(xproto.Window(id))
}

func (b *X11Backend) OwnerExecutable(pid int) (string, error) {
	return x11.OwnerExecutable(pid)
}

func (b *X11Backend) WindowAt(p Point) (WindowID, error) {
	win, err := b.conn.WindowAt(p.X, p.Y)
	return WindowID(win), err
}

func (b *X11Backend) TopLevelAncestor(id WindowID) (WindowID, error) {
	win, err := b.conn.TopLevelAncestor(xproto.Window(id))
	return WindowID(win), err
}

func (b *X11Backend) Attach(id, host WindowID) (StyleSnapshot, error) {
	saved, err := b.conn.AttachWindow(xproto.Window(id), xproto.Window(host))
	if err != nil {
		if errors.Is(err, x11.ErrWindowGone) {
			return StyleSnapshot{}, fmt.Errorf("attach %d: %w", id, ErrStaleWindow)
		}
		return StyleSnapshot{}, err
	}
	return StyleSnapshot{
		Decorations:      saved.Decorations,
		HadDecorHints:    saved.HadDecorHints,
		OverrideRedirect: saved.OverrideRedirect,
		Parent:           WindowID(saved.Parent),
	}, nil
}

func (b *X11Backend) Detach(id WindowID, snap StyleSnapshot) error {
	return b.conn.DetachWindow(xproto.Window(id), x11.SavedState{
		Decorations:      snap.Decorations,
		HadDecorHints:    snap.HadDecorHints,
		OverrideRedirect: snap.OverrideRedirect,
		Parent:           xproto.Window(snap.Parent),
	})
}

func (b *X11Backend) MoveResize(id WindowID, g Geometry) error {
	return b.conn.MoveResizeWindow(xproto.Window(id), g.X, g.Y, g.Width, g.Height)
}

func (b *X11Backend) Show(id WindowID) error {
	return b.conn.ShowWindow(xproto.Window(id))
}

func (b *X11Backend) CreateHostSurface(g Geometry) (WindowID, error) {
	if b.container == 0 {
		return 0, fmt.Errorf("container window not created")
	}
	win, err := b.conn.CreateHostSurface(b.container, g.X, g.Y, g.Width, g.Height)
	return WindowID(win), err
}

func (b *X11Backend) DestroyHostSurface(id WindowID) error {
	return b.conn.DestroyWindow(xproto.Window(id))
}

func (b *X11Backend) RaiseHostSurface(id WindowID) error {
	return b.conn.RaiseWindow(xproto.Window(id))
}

func (b *X11Backend) PointerState() (Point, bool, error) {
	x, y, down, err := b.conn.PointerState()
	return Point{X: x, Y: y}, down, err
}

// EscapePressed reports whether Escape is held down; used to cancel picks.
func (b *X11Backend) EscapePressed() bool {
	return b.conn.EscapePressed()
}
