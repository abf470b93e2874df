package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
)

// PointerState returns the pointer's root coordinates and whether the
// primary button is currently held down.
func (c *Connection) PointerState() (x, y int, buttonDown bool, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to query pointer: %w", err)
	}
	down := reply.Mask&xproto.KeyButMaskButton1 != 0
	return int(reply.RootX), int(reply.RootY), down, nil
}

// EscapePressed reports whether the Escape key is currently held down,
// polled via the server keymap. Used to cancel the pick-by-click flow.
func (c *Connection) EscapePressed() bool {
	codes := keybind.StrToKeycodes(c.XUtil, "Escape")
	if len(codes) == 0 {
		return false
	}
	reply, err := xproto.QueryKeymap(c.XUtil.Conn()).Reply()
	if err != nil {
		return false
	}
	for _, code := range codes {
		if reply.Keys[code>>3]&(1<<(code&7)) != 0 {
			return true
		}
	}
	return false
}
