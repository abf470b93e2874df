package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// ErrWindowGone reports that a window died before an embedding operation
// could begin.
var ErrWindowGone = errors.New("x11: window gone")

// motifHintsProp is the decoration hint property saved and restored around
// embedding. Five 32-bit words: flags, functions, decorations, input, status.
const motifHintsProp = "_MOTIF_WM_HINTS"

const (
	motifHintDecorations = 1 << 1
	motifHintWords       = 5
)

// SavedState is a window's pre-embedding native state: decoration hint words,
// the override-redirect attribute and the original parent. Detach needs it
// verbatim to restore the window exactly as it was.
type SavedState struct {
	Decorations      [motifHintWords]uint32
	HadDecorHints    bool
	OverrideRedirect bool
	Parent           xproto.Window
}

// AttachWindow strips a foreign window's decorations, marks it
// override-redirect so the window manager stops framing it, and reparents it
// under host at the origin. Returns the pre-embedding state.
//
// The sequence is not atomic: the hint rewrite, attribute change, reparent
// and restack are separate requests. If the window dies before the first
// mutation the error is ErrWindowGone; if it dies mid-sequence the remaining
// requests fail silently. The window is neither resized nor mapped here:
// the caller sizes it to the host's client area and then shows it.
func (c *Connection) AttachWindow(win, host xproto.Window) (SavedState, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return SavedState{}, fmt.Errorf("attach %d: %w", win, ErrWindowGone)
	}

	tree, err := xproto.QueryTree(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return SavedState{}, fmt.Errorf("attach %d: %w", win, ErrWindowGone)
	}

	saved := SavedState{
		OverrideRedirect: attrs.OverrideRedirect,
		Parent:           tree.Parent,
	}
	if hints, ok := c.decorHints(win); ok {
		saved.Decorations = hints
		saved.HadDecorHints = true
	}

	// Borderless: decorations flag set, all decoration bits cleared.
	stripped := [motifHintWords]uint32{motifHintDecorations, 0, 0, 0, 0}
	if err := c.setDecorHints(win, stripped); err != nil {
		return SavedState{}, fmt.Errorf("attach %d: strip decorations: %w", win, err)
	}

	// Later calls fail silently if the window died after the first mutation.
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), win,
		xproto.CwOverrideRedirect, []uint32{1})
	xproto.ReparentWindow(c.XUtil.Conn(), win, host, 0, 0)
	c.refreshStacking(win)

	return saved, nil
}

// DetachWindow restores the saved decoration hints verbatim, clears the
// override-redirect override, reparents the window back to its original
// parent and shows it. A dead window makes this a silent no-op, so calling
// it twice on an already-detached window is harmless.
func (c *Connection) DetachWindow(win xproto.Window, saved SavedState) error {
	if !c.IsAlive(win) {
		return nil
	}

	if saved.HadDecorHints {
		// Restore the exact words found at attach time, not a blind reset.
		if err := c.setDecorHints(win, saved.Decorations); err != nil {
			return nil
		}
	} else if atom, err := xprop.Atm(c.XUtil, motifHintsProp); err == nil {
		xproto.DeleteProperty(c.XUtil.Conn(), win, atom)
	}

	override := uint32(0)
	if saved.OverrideRedirect {
		override = 1
	}
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), win,
		xproto.CwOverrideRedirect, []uint32{override})

	parent := saved.Parent
	if parent == 0 {
		parent = c.Root
	}
	xproto.ReparentWindow(c.XUtil.Conn(), win, parent, 0, 0)
	c.refreshStacking(win)

	// Embedding may have altered the show state.
	xproto.MapWindow(c.XUtil.Conn(), win)
	return nil
}

// MoveResizeWindow sets a window's geometry relative to its current parent.
// For an embedded window this is the host surface, so (0,0,w,h) fills the
// host's client area.
func (c *Connection) MoveResizeWindow(win xproto.Window, x, y, width, height int) error {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(x), uint32(y), uint32(width), uint32(height)}).Check()
}

// ShowWindow maps a window.
func (c *Connection) ShowWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
}

// refreshStacking forces a restack without moving or resizing, making the
// server repaint the window with its new style/parent.
func (c *Connection) refreshStacking(win xproto.Window) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
}

// decorHints reads the raw _MOTIF_WM_HINTS words. We read and write the
// property directly rather than through the xgbutil motif helpers so the
// restore path can reproduce the exact words found, including combinations
// the helpers normalize away.
func (c *Connection) decorHints(win xproto.Window) ([motifHintWords]uint32, bool) {
	var hints [motifHintWords]uint32

	atom, err := xprop.Atm(c.XUtil, motifHintsProp)
	if err != nil {
		return hints, false
	}
	reply, err := xproto.GetProperty(c.XUtil.Conn(), false, win, atom,
		xproto.GetPropertyTypeAny, 0, motifHintWords).Reply()
	if err != nil || reply.Format != 32 || len(reply.Value) < motifHintWords*4 {
		return hints, false
	}
	for i := 0; i < motifHintWords; i++ {
		hints[i] = xgb.Get32(reply.Value[i*4:])
	}
	return hints, true
}

func (c *Connection) setDecorHints(win xproto.Window, hints [motifHintWords]uint32) error {
	atom, err := xprop.Atm(c.XUtil, motifHintsProp)
	if err != nil {
		return err
	}
	data := make([]byte, motifHintWords*4)
	for i, word := range hints {
		xgb.Put32(data[i*4:], word)
	}
	return xproto.ChangePropertyChecked(c.XUtil.Conn(), xproto.PropModeReplace,
		win, atom, atom, 32, motifHintWords, data).Check()
}
