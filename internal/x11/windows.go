package x11

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// WindowInfo describes one visible top-level window at enumeration time.
type WindowInfo struct {
	ID        xproto.Window
	Title     string
	PID       int
	HasParent bool
	X, Y      int
	Width     int
	Height    int
}

// ListWindows enumerates the EWMH client list, returning metadata for every
// currently visible top-level window. A window that fails a probe mid-scan
// (race with destruction) is skipped, never aborting the scan.
func (c *Connection) ListWindows() ([]WindowInfo, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]WindowInfo, 0, len(clients))
	for _, win := range clients {
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
		if err != nil {
			continue // destroyed between list and probe
		}
		if attrs.MapState != xproto.MapStateViewable {
			continue // hidden windows are always excluded
		}

		title := c.windowTitle(win)
		if title == "" {
			continue
		}

		x, y, w, h, ok := c.windowBounds(win)
		if !ok {
			continue
		}

		pid := 0
		if p, err := ewmh.WmPidGet(c.XUtil, win); err == nil {
			pid = int(p)
		}

		// A WM_TRANSIENT_FOR hint marks the window as owned by another
		// top-level (dialogs, tool windows).
		hasParent := false
		if owner, err := icccm.WmTransientForGet(c.XUtil, win); err == nil && owner != 0 {
			hasParent = true
		}

		windows = append(windows, WindowInfo{
			ID:        win,
			Title:     title,
			PID:       pid,
			HasParent: hasParent,
			X:         x,
			Y:         y,
			Width:     w,
			Height:    h,
		})
	}

	return windows, nil
}

// IsAlive reports whether the window still exists. It re-queries the server
// every call; a cached answer is never trusted.
func (c *Connection) IsAlive(win xproto.Window) bool {
	if win == 0 {
		return false
	}
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	return err == nil
}

// Title returns the window's current title, preferring _NET_WM_NAME over
// the legacy WM_NAME property.
func (c *Connection) Title(win xproto.Window) (string, error) {
	if !c.IsAlive(win) {
		return "", fmt.Errorf("window %d: title probe failed", win)
	}
	return c.windowTitle(win), nil
}

func (c *Connection) windowTitle(win xproto.Window) string {
	if name, err := ewmh.WmNameGet(c.XUtil, win); err == nil && name != "" {
		return name
	}
	if name, err := icccm.WmNameGet(c.XUtil, win); err == nil {
		return name
	}
	return ""
}

// OwnerPID returns the process id that owns the window (from _NET_WM_PID),
// or 0 when the window does not advertise one.
func (c *Connection) OwnerPID(win xproto.Window) (int, error) {
	if !c.IsAlive(win) {
		return 0, fmt.Errorf("window %d: pid probe failed", win)
	}
	pid, err := ewmh.WmPidGet(c.XUtil, win)
	if err != nil {
		return 0, nil
	}
	return int(pid), nil
}

// OwnerExecutable returns the executable basename for a pid, read from
// /proc/<pid>/comm.
func OwnerExecutable(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}
	data, err := os.ReadFile(filepath.Join("/proc", fmt.Sprint(pid), "comm"))
	if err != nil {
		return "", fmt.Errorf("failed to read process name for pid %d: %w", pid, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WindowAt returns the deepest window under the given root coordinates by
// walking the window tree from the root, or 0 if only the root is there.
func (c *Connection) WindowAt(rootX, rootY int) (xproto.Window, error) {
	cur := c.Root
	x, y := int16(rootX), int16(rootY)
	var found xproto.Window

	for {
		tr, err := xproto.TranslateCoordinates(c.XUtil.Conn(), c.Root, cur, x, y).Reply()
		if err != nil {
			return found, nil
		}
		if tr.Child == 0 || tr.Child == cur {
			return found, nil
		}
		cur = tr.Child
		found = cur
	}
}

// TopLevelAncestor resolves an arbitrary (possibly deeply nested) window to
// the managed top-level window containing it: the first ancestor present in
// the EWMH client list, falling back to the last window below the root.
func (c *Connection) TopLevelAncestor(win xproto.Window) (xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}
	managed := make(map[xproto.Window]struct{}, len(clients))
	for _, w := range clients {
		managed[w] = struct{}{}
	}

	cur := win
	last := win
	for cur != 0 && cur != c.Root {
		if _, ok := managed[cur]; ok {
			return cur, nil
		}
		tree, err := xproto.QueryTree(c.XUtil.Conn(), cur).Reply()
		if err != nil {
			return 0, fmt.Errorf("window %d: ancestor walk failed: %w", win, err)
		}
		last = cur
		cur = tree.Parent
	}
	return last, nil
}

func (c *Connection) windowBounds(win xproto.Window) (x, y, w, h int, ok bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}
	tr, err := xproto.TranslateCoordinates(c.XUtil.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return int(tr.DstX), int(tr.DstY), int(geom.Width), int(geom.Height), true
}
