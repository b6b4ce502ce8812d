//go:build windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"unsafe"
)

var (
	kernel32        = syscall.NewLazyDLL("kernel32.dll")
	procCreateMutex = kernel32.NewProc("CreateMutexW")
)

// ensureSingleInstance checks that no other installer bootstrap is
// running, using a global named mutex so the check holds across
// sessions. Returns a cleanup function to call on exit, or exits the
// process if another instance holds the mutex.
func ensureSingleInstance() func() {
	mutexName, _ := syscall.UTF16PtrFromString("Global\\OmahaInstallerBootstrap")

	handle, _, err := procCreateMutex.Call(0, 0, uintptr(unsafe.Pointer(mutexName)))
	if handle == 0 {
		fmt.Fprintln(os.Stderr, "failed to create single-instance mutex")
		os.Exit(1)
	}

	if err == syscall.ERROR_ALREADY_EXISTS {
		fmt.Fprintln(os.Stderr, "another installer instance is already running")
		syscall.CloseHandle(syscall.Handle(handle))
		os.Exit(0)
	}

	// Also create a lock file as a secondary indicator
	lockPath := filepath.Join(AppDataDir(), "omaha.lock")
	lockFile, _ := os.Create(lockPath)
	if lockFile != nil {
		fmt.Fprintf(lockFile, "%d", os.Getpid())
	}

	return func() {
		syscall.CloseHandle(syscall.Handle(handle))
		if lockFile != nil {
			lockFile.Close()
		}
		os.Remove(lockPath)
	}
}
