//go:build !windows

package ui

import (
	"errors"
	"time"
)

// The native splash is Windows-only. On other platforms window
// creation fails, the worker exits without showing anything, and the
// host proceeds as if the splash feature did not exist.
type stubWindow struct{}

func newWindow() Window {
	return stubWindow{}
}

func (stubWindow) Create(caption, text string) error {
	return errors.New("splash window is only available on windows")
}

func (stubWindow) DisableSystemButtons()                  {}
func (stubWindow) SetIcon() error                         { return nil }
func (stubWindow) Center()                                {}
func (stubWindow) StartMarquee(pulse time.Duration)       {}
func (stubWindow) SetAlpha(alpha uint8)                   {}
func (stubWindow) Show()                                  {}
func (stubWindow) StartTimer(interval time.Duration) bool { return false }
func (stubWindow) StopTimer()                             {}
func (stubWindow) PostClose()                             {}
func (stubWindow) Destroy()                               {}
func (stubWindow) Run(dispatch func(Event))               {}
func (stubWindow) Quit()                                  {}
