package registry

import (
	"errors"
	"fmt"

	"github.com/vmtabs/vmtabs/internal/platform"
)

// ErrNotTracked reports an operation against an identity the registry does
// not track.
var ErrNotTracked = errors.New("window is not tracked")

// AttachError reports that the OS rejected a style/reparent call while
// attaching a live window. The handle stays detached; the user can retry.
type AttachError struct {
	ID  platform.WindowID
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("failed to attach window %d: %v", e.ID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// IsStale reports whether err means the window identity is dead and the
// tracked entry should simply be dropped.
func IsStale(err error) bool {
	return errors.Is(err, platform.ErrStaleWindow)
}
