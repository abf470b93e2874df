package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// CreateContainer creates and maps the top-level container window that owns
// every host surface. StructureNotify is selected so resizes arrive through
// OnContainerResize.
func (c *Connection) CreateContainer(title string, width, height int) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate container window: %w", err)
	}
	if err := win.CreateChecked(c.Root, 0, 0, width, height,
		xproto.CwBackPixel|xproto.CwEventMask,
		0x222222, xproto.EventMaskStructureNotify); err != nil {
		return 0, fmt.Errorf("failed to create container window: %w", err)
	}

	// Title failures are cosmetic.
	_ = ewmh.WmNameSet(c.XUtil, win.Id, title)
	win.Map()

	return win.Id, nil
}

// CreateHostSurface creates a child surface of the container for one embedded
// window. Surfaces stack inside the container; RaiseWindow brings the active
// tab's surface to the top.
func (c *Connection) CreateHostSurface(parent xproto.Window, x, y, width, height int) (xproto.Window, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate host surface: %w", err)
	}
	if err := win.CreateChecked(parent, x, y, width, height,
		xproto.CwBackPixel, 0x000000); err != nil {
		return 0, fmt.Errorf("failed to create host surface: %w", err)
	}
	win.Map()
	return win.Id, nil
}

// DestroyWindow destroys a window we created. Destroying an already-gone
// window is harmless.
func (c *Connection) DestroyWindow(win xproto.Window) error {
	xproto.DestroyWindow(c.XUtil.Conn(), win)
	return nil
}

// RaiseWindow maps a window and raises it above its siblings.
func (c *Connection) RaiseWindow(win xproto.Window) error {
	xproto.MapWindow(c.XUtil.Conn(), win)
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}

// OnContainerResize invokes fn with the new client size whenever the
// container is resized. The callback runs on the X event loop.
func (c *Connection) OnContainerResize(container xproto.Window, fn func(width, height int)) {
	xevent.ConfigureNotifyFun(
		func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
			fn(int(ev.Width), int(ev.Height))
		}).Connect(c.XUtil, container)
}
