//go:build windows

// Package process provides process-group helpers for subprocess cleanup.
package process

import (
	"os/exec"
	"strconv"
)

// SetGroup is a no-op on Windows; KillGroup uses taskkill's tree kill.
func SetGroup(_ *exec.Cmd) {}

// KillGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillGroup(pid int) {
	// Best-effort cleanup; cmd.Process.Kill() provides fallback
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
