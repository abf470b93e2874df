package proc

import (
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"
)

func testController() *Controller {
	return NewController(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTerminateInvalidPID(t *testing.T) {
	c := testController()
	if c.Terminate(0) {
		t.Error("Terminate(0) = true, want false")
	}
	if c.Terminate(-5) {
		t.Error("Terminate(-5) = true, want false")
	}
}

func TestTerminateRunningProcess(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid

	c := testController()
	if !c.Terminate(pid) {
		t.Errorf("Terminate(%d) = false, want true", pid)
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Errorf("process %d still running after terminate", pid)
	}
}

func TestTerminateExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run helper process: %v", err)
	}

	c := testController()
	if c.Terminate(cmd.Process.Pid) {
		t.Errorf("Terminate(%d) = true for reaped process, want false", cmd.Process.Pid)
	}
}

func TestTerminateByNameEmpty(t *testing.T) {
	c := testController()
	if got := c.TerminateByName(""); got != 0 {
		t.Errorf("TerminateByName(\"\") = %d, want 0", got)
	}
	if got := c.TerminateByName("   "); got != 0 {
		t.Errorf("TerminateByName(blank) = %d, want 0", got)
	}
}

func TestTerminateByNameNoMatch(t *testing.T) {
	c := testController()
	if got := c.TerminateByName("definitely-not-a-real-process-name"); got != 0 {
		t.Errorf("TerminateByName = %d, want 0", got)
	}
}
