package registry

import (
	"github.com/vmtabs/vmtabs/internal/directory"
	"github.com/vmtabs/vmtabs/internal/platform"
)

// AttachState is the embedding state of a tracked window.
type AttachState string

const (
	// StateAttached: the window is reparented into its host surface.
	StateAttached AttachState = "attached"
	// StateDetached: tracked as a placeholder tab, not embedded.
	StateDetached AttachState = "detached"
	// StateManuallyDetached: the user detached it; automatic polls must not
	// re-attach until an explicit attach action.
	StateManuallyDetached AttachState = "manually-detached"
)

// Tab pairs a native window identity with its attachment state and the
// saved style needed to restore it. Owned exclusively by the registry.
//
// Invariant: saved is non-nil if and only if State == StateAttached; host
// is non-zero if and only if State == StateAttached.
type Tab struct {
	ID       platform.WindowID
	Category directory.Category
	Title    string // display title; user-renamable, never overwritten by polls
	RawTitle string
	PID      int
	State    AttachState

	saved *platform.StyleSnapshot
	host  platform.WindowID
}

// TabInfo is the read-only snapshot of a tab handed to the UI layer.
type TabInfo struct {
	ID       platform.WindowID  `json:"id"`
	Title    string             `json:"title"`
	RawTitle string             `json:"raw_title"`
	Category directory.Category `json:"category"`
	State    AttachState        `json:"state"`
	PID      int                `json:"pid"`
}

func (t *Tab) info() TabInfo {
	return TabInfo{
		ID:       t.ID,
		Title:    t.Title,
		RawTitle: t.RawTitle,
		Category: t.Category,
		State:    t.State,
		PID:      t.PID,
	}
}

// Attached reports whether the tab currently embeds its window.
func (t *Tab) Attached() bool {
	return t.State == StateAttached
}
