// Package directory enumerates visible top-level windows and classifies
// them into the categories the embedding core tracks. It is a pure query
// layer: nothing here mutates a window.
package directory

import (
	"fmt"
	"strings"

	"github.com/vmtabs/vmtabs/internal/platform"
)

// Category is the semantic kind assigned to a window by classification.
type Category string

const (
	// CategoryPrimaryApp is a running instance window of the managed
	// application (a VM console).
	CategoryPrimaryApp Category = "primary"
	// CategoryCompanionManager is the application's manager window.
	CategoryCompanionManager Category = "manager"
	// CategoryExternalProcess is an unowned window of a known companion
	// runtime executable.
	CategoryExternalProcess Category = "external"
	// CategoryPicked is a window the user selected explicitly; it bypasses
	// classification.
	CategoryPicked Category = "picked"
)

// ClassifiedWindow is one enumeration result. Produced fresh on every scan
// and never persisted across polls.
type ClassifiedWindow struct {
	ID       platform.WindowID
	RawTitle string
	Title    string // derived display title
	Category Category
	PID      int
}

// Rules drives the ordered classification policy. All matching is plain
// substring matching against window titles and executable basenames.
type Rules struct {
	// RunningMarkers are the locale-specific status markers a running
	// instance carries in its title, e.g. "[Running]" and "[Работает]".
	RunningMarkers []string
	// TitleSuffix is the application suffix a primary window's title ends
	// with, e.g. "- Oracle VirtualBox".
	TitleSuffix string
	// ManagerTitle identifies the companion manager window's title.
	ManagerTitle string
	// ManagerLabel is the fixed display title used for the manager window.
	ManagerLabel string
	// CompanionRuntimes are executable basenames whose unowned windows are
	// classified as external processes.
	CompanionRuntimes []string
}

// Directory classifies desktop windows against a rule set.
type Directory struct {
	ws    platform.WindowSystem
	rules Rules
}

// New creates a window directory over the given window system.
func New(ws platform.WindowSystem, rules Rules) *Directory {
	return &Directory{ws: ws, rules: rules}
}

// Enumerate re-queries the desktop from scratch and returns every window
// that classifies into a category. Windows failing a probe are skipped;
// only a failure of the enumeration primitive itself is returned.
func (d *Directory) Enumerate() ([]ClassifiedWindow, error) {
	infos, err := d.ws.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("window enumeration failed: %w", err)
	}

	classified := make([]ClassifiedWindow, 0, len(infos))
	for _, info := range infos {
		cw, ok := d.classify(info)
		if !ok {
			continue
		}
		classified = append(classified, cw)
	}
	return classified, nil
}

// classify applies the ordered policy: first match wins, unmatched windows
// are excluded from automatic enumeration.
func (d *Directory) classify(info platform.WindowInfo) (ClassifiedWindow, bool) {
	if info.Title == "" {
		return ClassifiedWindow{}, false
	}

	if derived, ok := d.primaryTitle(info.Title); ok {
		return ClassifiedWindow{
			ID:       info.ID,
			RawTitle: info.Title,
			Title:    derived,
			Category: CategoryPrimaryApp,
			PID:      info.PID,
		}, true
	}

	if d.rules.ManagerTitle != "" && strings.Contains(info.Title, d.rules.ManagerTitle) {
		return ClassifiedWindow{
			ID:       info.ID,
			RawTitle: info.Title,
			Title:    d.rules.ManagerLabel,
			Category: CategoryCompanionManager,
			PID:      info.PID,
		}, true
	}

	if d.isCompanionRuntime(info) {
		return ClassifiedWindow{
			ID:       info.ID,
			RawTitle: info.Title,
			Title:    info.Title,
			Category: CategoryExternalProcess,
			PID:      info.PID,
		}, true
	}

	return ClassifiedWindow{}, false
}

// primaryTitle matches "<name> <marker> <suffix>" titles and returns the
// bare name. Markers are locale variants; any one of them matches.
func (d *Directory) primaryTitle(title string) (string, bool) {
	if d.rules.TitleSuffix != "" && !strings.Contains(title, d.rules.TitleSuffix) {
		return "", false
	}
	for _, marker := range d.rules.RunningMarkers {
		if marker == "" {
			continue
		}
		idx := strings.Index(title, marker)
		if idx < 0 {
			continue
		}
		derived := strings.TrimSpace(title[:idx])
		if derived == "" {
			derived = title
		}
		return derived, true
	}
	return "", false
}

func (d *Directory) isCompanionRuntime(info platform.WindowInfo) bool {
	if info.PID <= 0 || info.HasParent || len(d.rules.CompanionRuntimes) == 0 {
		return false
	}
	exe, err := d.ws.OwnerExecutable(info.PID)
	if err != nil {
		return false
	}
	for _, runtime := range d.rules.CompanionRuntimes {
		if strings.EqualFold(exe, runtime) {
			return true
		}
	}
	return false
}

// PickAt resolves the top-level window under a screen point into a Picked
// entry, bypassing classification. Returns ok=false when only the desktop
// root is under the point or the window vanished mid-probe.
func (d *Directory) PickAt(p platform.Point) (ClassifiedWindow, bool, error) {
	win, err := d.ws.WindowAt(p)
	if err != nil {
		return ClassifiedWindow{}, false, fmt.Errorf("hit test failed: %w", err)
	}
	if win == 0 {
		return ClassifiedWindow{}, false, nil
	}
	top, err := d.ws.TopLevelAncestor(win)
	if err != nil || top == 0 {
		return ClassifiedWindow{}, false, nil
	}
	return d.Pick(top)
}

// Pick synthesizes a Picked entry directly from the OS-reported title of a
// specific window.
func (d *Directory) Pick(id platform.WindowID) (ClassifiedWindow, bool, error) {
	title, err := d.ws.Title(id)
	if err != nil {
		return ClassifiedWindow{}, false, nil // vanished; not an error
	}
	pid, _ := d.ws.OwnerPID(id)
	if title == "" {
		title = fmt.Sprintf("Window %d", id)
	}
	return ClassifiedWindow{
		ID:       id,
		RawTitle: title,
		Title:    title,
		Category: CategoryPicked,
		PID:      pid,
	}, true, nil
}
