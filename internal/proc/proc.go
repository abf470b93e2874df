// Package proc provides best-effort termination of window-owning processes.
package proc

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Controller terminates processes by pid or executable name. Every
// operation is advisory: a failure (process already gone, insufficient
// privilege, bad pid) is reported, never escalated.
type Controller struct {
	logger *slog.Logger
}

// NewController creates a process controller.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger}
}

// Terminate kills the process with the given pid. Returns false on any
// failure; callers proceed with their own cleanup regardless.
func (c *Controller) Terminate(pid int) bool {
	if pid <= 0 {
		return false
	}
	// Signal 0 probes existence and permission before the kill, so a pid
	// recycled to a process we cannot touch reports cleanly.
	if err := unix.Kill(pid, 0); err != nil {
		c.logger.Debug("process not terminable", "pid", pid, "error", err)
		return false
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		c.logger.Warn("failed to terminate process", "pid", pid, "error", err)
		return false
	}
	return true
}

// TerminateByName kills every process whose executable basename matches
// name, returning how many were signalled. Used for companion service
// processes that own no window of their own.
func (c *Controller) TerminateByName(name string) int {
	if strings.TrimSpace(name) == "" {
		return 0
	}
	entries, err := os.ReadDir("/proc")
	if err != nil {
		c.logger.Warn("failed to scan processes", "error", err)
		return 0
	}

	killed := 0
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(comm)) != name {
			continue
		}
		if c.Terminate(pid) {
			killed++
		}
	}
	return killed
}
