package directory

import (
	"errors"
	"testing"

	"github.com/vmtabs/vmtabs/internal/platform"
)

type fakeWindowSystem struct {
	windows []platform.WindowInfo
	listErr error

	exeByPID map[int]string

	windowAtID  platform.WindowID
	windowAtErr error
	ancestorOf  map[platform.WindowID]platform.WindowID
	titles      map[platform.WindowID]string
	titleErr    map[platform.WindowID]error
	pids        map[platform.WindowID]int
}

func (f *fakeWindowSystem) ListWindows() ([]platform.WindowInfo, error) {
	return f.windows, f.listErr
}

func (f *fakeWindowSystem) IsAlive(id platform.WindowID) bool { return true }

func (f *fakeWindowSystem) Title(id platform.WindowID) (string, error) {
	if err := f.titleErr[id]; err != nil {
		return "", err
	}
	return f.titles[id], nil
}

func (f *fakeWindowSystem) OwnerPID(id platform.WindowID) (int, error) { return f.pids[id], nil }

func (f *fakeWindowSystem) OwnerExecutable(pid int) (string, error) {
	exe, ok := f.exeByPID[pid]
	if !ok {
		return "", errors.New("no such process")
	}
	return exe, nil
}

func (f *fakeWindowSystem) WindowAt(p platform.Point) (platform.WindowID, error) {
	return f.windowAtID, f.windowAtErr
}

func (f *fakeWindowSystem) TopLevelAncestor(id platform.WindowID) (platform.WindowID, error) {
	if top, ok := f.ancestorOf[id]; ok {
		return top, nil
	}
	return id, nil
}

func (f *fakeWindowSystem) Attach(id, host platform.WindowID) (platform.StyleSnapshot, error) {
	return platform.StyleSnapshot{}, nil
}

func (f *fakeWindowSystem) Detach(id platform.WindowID, snap platform.StyleSnapshot) error {
	return nil
}

func (f *fakeWindowSystem) MoveResize(id platform.WindowID, g platform.Geometry) error { return nil }

func (f *fakeWindowSystem) Show(id platform.WindowID) error { return nil }

func (f *fakeWindowSystem) CreateHostSurface(g platform.Geometry) (platform.WindowID, error) {
	return 0, nil
}

func (f *fakeWindowSystem) DestroyHostSurface(id platform.WindowID) error { return nil }

func (f *fakeWindowSystem) RaiseHostSurface(id platform.WindowID) error { return nil }

func (f *fakeWindowSystem) PointerState() (platform.Point, bool, error) {
	return platform.Point{}, false, nil
}

func testRules() Rules {
	return Rules{
		RunningMarkers:    []string{"[Running]", "[Работает]"},
		TitleSuffix:       "Oracle VirtualBox",
		ManagerTitle:      "Oracle VirtualBox Manager",
		ManagerLabel:      "VirtualBox Manager",
		CompanionRuntimes: []string{"VirtualBoxVM", "VBoxSDL", "VBoxHeadless"},
	}
}

func TestEnumerateClassification(t *testing.T) {
	ws := &fakeWindowSystem{
		windows: []platform.WindowInfo{
			{ID: 1, Title: "VM-A [Running] - Oracle VirtualBox", PID: 100},
			{ID: 2, Title: "Oracle VirtualBox Manager", PID: 101},
			{ID: 3, Title: "Headless console", PID: 102},
			{ID: 4, Title: "Firefox", PID: 103},
			{ID: 5, Title: ""},
			{ID: 6, Title: "VM-B [Работает] - Oracle VirtualBox", PID: 104},
		},
		exeByPID: map[int]string{
			102: "VBoxHeadless",
			103: "firefox",
		},
	}
	dir := New(ws, testRules())

	got, err := dir.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	want := []ClassifiedWindow{
		{ID: 1, RawTitle: "VM-A [Running] - Oracle VirtualBox", Title: "VM-A", Category: CategoryPrimaryApp, PID: 100},
		{ID: 2, RawTitle: "Oracle VirtualBox Manager", Title: "VirtualBox Manager", Category: CategoryCompanionManager, PID: 101},
		{ID: 3, RawTitle: "Headless console", Title: "Headless console", Category: CategoryExternalProcess, PID: 102},
		{ID: 6, RawTitle: "VM-B [Работает] - Oracle VirtualBox", Title: "VM-B", Category: CategoryPrimaryApp, PID: 104},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d windows, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEnumerateError(t *testing.T) {
	wantErr := errors.New("connection lost")
	dir := New(&fakeWindowSystem{listErr: wantErr}, testRules())

	if _, err := dir.Enumerate(); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestPrimaryRequiresBothMarkerAndSuffix(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"marker and suffix", "VM-A [Running] - Oracle VirtualBox", true},
		{"marker without suffix", "VM-A [Running]", false},
		{"suffix without marker", "VM-A [Powered Off] - Oracle VirtualBox", false},
		{"localized marker", "VM-A [Работает] - Oracle VirtualBox", true},
	}
	dir := New(&fakeWindowSystem{}, testRules())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := dir.primaryTitle(tt.title)
			if ok != tt.want {
				t.Errorf("primaryTitle(%q) match = %v, want %v", tt.title, ok, tt.want)
			}
		})
	}
}

func TestCompanionRuntimeRequiresUnownedWindow(t *testing.T) {
	ws := &fakeWindowSystem{
		windows: []platform.WindowInfo{
			// Dialog owned by another window: never external.
			{ID: 1, Title: "Settings", PID: 102, HasParent: true},
			// Probe failure: skipped, not fatal.
			{ID: 2, Title: "Orphan", PID: 999},
		},
		exeByPID: map[int]string{102: "VBoxSDL"},
	}
	dir := New(ws, testRules())

	got, err := dir.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no windows", got)
	}
}

func TestCompanionRuntimeMatchIsCaseInsensitive(t *testing.T) {
	ws := &fakeWindowSystem{
		windows:  []platform.WindowInfo{{ID: 1, Title: "console", PID: 50}},
		exeByPID: map[int]string{50: "vboxheadless"},
	}
	dir := New(ws, testRules())

	got, err := dir.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 1 || got[0].Category != CategoryExternalProcess {
		t.Errorf("got %v, want one external window", got)
	}
}

func TestPickAt(t *testing.T) {
	ws := &fakeWindowSystem{
		windowAtID: 7,
		ancestorOf: map[platform.WindowID]platform.WindowID{7: 5},
		titles:     map[platform.WindowID]string{5: "gvim"},
		pids:       map[platform.WindowID]int{5: 321},
	}
	dir := New(ws, testRules())

	cw, ok, err := dir.PickAt(platform.Point{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("PickAt: %v", err)
	}
	if !ok {
		t.Fatal("PickAt returned ok=false")
	}
	if cw.ID != 5 || cw.Category != CategoryPicked || cw.Title != "gvim" || cw.PID != 321 {
		t.Errorf("picked = %+v", cw)
	}
}

func TestPickAtDesktop(t *testing.T) {
	dir := New(&fakeWindowSystem{windowAtID: 0}, testRules())

	_, ok, err := dir.PickAt(platform.Point{})
	if err != nil {
		t.Fatalf("PickAt: %v", err)
	}
	if ok {
		t.Error("ok = true for desktop click, want false")
	}
}

func TestPickUntitledWindow(t *testing.T) {
	ws := &fakeWindowSystem{
		titles: map[platform.WindowID]string{},
	}
	dir := New(ws, testRules())

	cw, ok, err := dir.Pick(12)
	if err != nil || !ok {
		t.Fatalf("Pick: ok=%v err=%v", ok, err)
	}
	if cw.Title != "Window 12" {
		t.Errorf("title = %q, want %q", cw.Title, "Window 12")
	}
}
