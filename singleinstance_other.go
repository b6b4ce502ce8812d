//go:build !windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ensureSingleInstance checks that no other installer bootstrap is
// running. Returns a cleanup function to call on exit, or exits the
// process if another live instance is found.
func ensureSingleInstance() func() {
	lockPath := filepath.Join(AppDataDir(), "omaha.lock")

	// Check if lock file exists and its process is still alive
	if data, err := os.ReadFile(lockPath); err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(pidStr); err == nil {
			process, err := os.FindProcess(pid)
			if err == nil {
				// On Unix, FindProcess always succeeds; probe the pid
				if err := process.Signal(syscall.Signal(0)); err == nil {
					fmt.Fprintln(os.Stderr, "another installer instance is already running")
					os.Exit(0)
				}
			}
		}
	}

	lockFile, _ := os.Create(lockPath)
	if lockFile != nil {
		fmt.Fprintf(lockFile, "%d", os.Getpid())
		lockFile.Close()
	}

	return func() {
		os.Remove(lockPath)
	}
}
