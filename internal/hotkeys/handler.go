// Package hotkeys registers global keyboard shortcuts for the daemon's
// on-demand actions.
package hotkeys

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/vmtabs/vmtabs/internal/registry"
)

// Reconciler triggers an on-demand reconciliation pass.
type Reconciler interface {
	Refresh(trigger registry.Trigger) []registry.TabInfo
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	rec  Reconciler
}

// NewHandler creates a hotkey handler over a backend exposing X11 internals.
func NewHandler(backend interface{}, rec Reconciler) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	return &Handler{
		xu:   xu,
		root: root,
		rec:  rec,
	}
}

// RegisterRefresh binds a hotkey that triggers a manual rescan. An empty
// key sequence disables the binding.
func (h *Handler) RegisterRefresh(keySequence string) error {
	if keySequence == "" {
		return nil
	}
	return h.registerFunc(keySequence, func() {
		log.Println("Refresh hotkey triggered")
		h.rec.Refresh(registry.TriggerRefresh)
	})
}

// RegisterAttachAll binds a hotkey that forces attachment of every found
// window. An empty key sequence disables the binding.
func (h *Handler) RegisterAttachAll(keySequence string) error {
	if keySequence == "" {
		return nil
	}
	return h.registerFunc(keySequence, func() {
		log.Println("Attach-all hotkey triggered")
		h.rec.Refresh(registry.TriggerAttachAll)
	})
}

// registerFunc registers an arbitrary hotkey callback.
func (h *Handler) registerFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys require an X11 backend")
	}
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}
