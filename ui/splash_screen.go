// Package ui implements the transient splash window shown while the
// installer initializes. The window lives on a dedicated worker
// goroutine that owns the native handle and its message pump; the
// public API (Show, Dismiss, Release) may be called from any other
// goroutine and only ever requests state transitions through a shared
// lock, never touching the window directly.
package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// ErrUIInternal reports that the native splash window could not be
// created. The splash feature is then silently unavailable; the host
// install is never blocked by it.
var ErrUIInternal = errors.New("internal UI error")

// WindowState is the lifecycle state of the splash window.
type WindowState int

const (
	// StateCreated: object constructed, no window yet.
	StateCreated WindowState = iota
	// StateInitialized: native window created and styled, not visible.
	StateInitialized
	// StateShowNormal: window visible at full opacity.
	StateShowNormal
	// StateFading: fade timer armed, opacity stepping down.
	StateFading
	// StateClosed: terminal. The window handle is no longer valid and
	// no further transitions are legal.
	StateClosed
)

func (s WindowState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateShowNormal:
		return "show-normal"
	case StateFading:
		return "fading"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// releaseTimeout bounds how long Release waits for the worker
// goroutine to exit. Waiting forever risks an unkillable hang, so
// after the timeout Release logs and returns without joining; the
// worker may then still be running at process shutdown. Documented
// compromise, not an oversight.
const releaseTimeout = 60 * time.Second

// SplashScreen shows an "installer starting" window that dismisses
// itself with a fade-out once the real UI is ready. Show spawns the
// worker; Dismiss requests the fade; Release waits (bounded) for the
// worker to exit before the object may be dropped.
type SplashScreen struct {
	mu sync.Mutex

	state       WindowState
	alphaIndex  int
	timerActive bool
	started     bool // Show already spawned the worker
	created     bool // native window exists

	// violations counts contract breaches observed at runtime. Under
	// the splashassert build tag the first breach panics instead.
	violations int

	caption string
	text    string

	win     Window
	log     *slog.Logger
	done    chan struct{}
	timeout time.Duration
}

// New returns a splash screen for the named bundle. The caption and
// body text are computed once here and never change.
func New(bundleName string) *SplashScreen {
	return newSplashScreen(bundleName, newWindow(), slog.Default())
}

func newSplashScreen(bundleName string, win Window, log *slog.Logger) *SplashScreen {
	caption := installerDisplayName(bundleName)
	s := &SplashScreen{
		state:   StateCreated,
		caption: caption,
		text:    fmt.Sprintf("Initializing %s installation...", caption),
		win:     win,
		log:     log,
		done:    make(chan struct{}),
		timeout: releaseTimeout,
	}
	return s
}

// installerDisplayName returns the user-facing product name for the
// splash caption.
func installerDisplayName(bundleName string) string {
	if bundleName == "" {
		return "Installer"
	}
	return bundleName
}

// Show spawns the worker goroutine that creates the window, runs its
// message pump, and tears everything down. Non-blocking: the window
// appears asynchronously. Calling Show more than once, or after
// Dismiss already closed the splash, is a contract violation and does
// nothing.
func (s *SplashScreen) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCreated || s.started {
		s.contractViolationLocked("Show")
		return
	}
	s.started = true
	go s.run()
}

// Dismiss requests that the splash go away. Safe from any goroutine,
// at any time, any number of times: depending on the current state it
// closes immediately (window never shown), starts the fade, or does
// nothing. It never waits for the window to actually disappear.
func (s *SplashScreen) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCreated:
		// No window exists yet; nothing to animate.
		s.switchToStateLocked(StateClosed)

	case StateShowNormal:
		s.switchToStateLocked(StateFading)

	case StateClosed, StateFading, StateInitialized:
		// Already on the way out (or not yet visible); inert.

	default:
		s.contractViolationLocked("Dismiss")
	}
}

// Release waits for the worker goroutine to exit so the object can be
// dropped without the worker touching it afterwards. The wait is
// bounded; on timeout it logs a warning and returns anyway.
func (s *SplashScreen) Release() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return
	}

	select {
	case <-s.done:
	case <-time.After(s.timeout):
		s.log.Warn("splash: worker failed to exit gracefully", "timeout", s.timeout)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCreated && s.state != StateClosed {
		s.contractViolationLocked("Release")
	}
}

// run is the worker goroutine. It owns the native window for its whole
// lifetime: creation, the blocking message pump, and teardown all
// happen here. The OS thread is locked because the Win32 message queue
// and window handle are bound to the creating thread.
func (s *SplashScreen) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	s.mu.Lock()
	if s.state != StateCreated {
		// Dismissed before the worker got going.
		s.mu.Unlock()
		return
	}
	if err := s.initializeLocked(); err != nil {
		s.mu.Unlock()
		s.log.Error("splash: window initialization failed", "error", err)
		return
	}
	s.win.Show()
	s.switchToStateLocked(StateShowNormal)
	s.mu.Unlock()

	// Blocks until the destroyed notification posts loop termination.
	// Runs unlocked: the lock is only ever held for transitions.
	s.win.Run(s.dispatch)

	s.mu.Lock()
	if s.state != StateClosed {
		// Pump exited without a destroyed notification (message loop
		// error). Still finish the state machine cleanly.
		if s.timerActive {
			s.win.StopTimer()
			s.timerActive = false
		}
		s.switchToStateLocked(StateClosed)
	}
	s.mu.Unlock()
}

// initializeLocked creates and styles the window. Must run on the
// worker goroutine with the lock held.
func (s *SplashScreen) initializeLocked() error {
	if err := s.win.Create(s.caption, s.text); err != nil {
		return fmt.Errorf("%w: %v", ErrUIInternal, err)
	}
	s.created = true

	s.win.DisableSystemButtons()
	s.win.StartMarquee(marqueePulseInterval)
	s.win.SetAlpha(alphaValue(defaultAlphaScale))
	s.win.Center()
	if err := s.win.SetIcon(); err != nil {
		s.log.Warn("splash: set window icon", "error", err)
	}

	s.switchToStateLocked(StateInitialized)
	return nil
}

// dispatch receives the three window notifications the state machine
// reacts to. It is called from inside the message pump, on the worker
// goroutine.
func (s *SplashScreen) dispatch(ev Event) {
	switch ev {
	case EventTimerTick:
		s.mu.Lock()
		s.onTimerTickLocked()
		s.mu.Unlock()

	case EventCloseRequested:
		// Teardown only; the destroyed notification flips state. No
		// lock here: Destroy delivers EventDestroyed synchronously on
		// this goroutine and that handler takes the lock.
		s.win.Destroy()

	case EventDestroyed:
		s.mu.Lock()
		if s.timerActive {
			s.win.StopTimer()
			s.timerActive = false
		}
		s.switchToStateLocked(StateClosed)
		s.win.Quit()
		s.mu.Unlock()
	}
}

// onTimerTickLocked steps the fade one entry down, or requests the
// close once the bottom of the opacity table is reached.
func (s *SplashScreen) onTimerTickLocked() {
	if s.state != StateFading {
		s.contractViolationLocked("timer tick outside fading")
		return
	}
	if s.alphaIndex <= 0 {
		s.contractViolationLocked("timer tick after fade completed")
		return
	}
	s.alphaIndex--
	if s.alphaIndex > 0 {
		s.win.SetAlpha(alphaValue(alphaScales[s.alphaIndex]))
	} else {
		s.closeLocked()
	}
}

// switchToStateLocked performs a transition plus its side effects.
// Callers hold the lock.
func (s *SplashScreen) switchToStateLocked(newState WindowState) {
	s.state = newState
	switch newState {
	case StateCreated, StateInitialized, StateClosed:

	case StateShowNormal:
		s.alphaIndex = len(alphaScales) - 1

	case StateFading:
		s.timerActive = s.win.StartTimer(fadeTimerInterval)
		if !s.timerActive {
			// Degrade gracefully: skip the animation.
			s.log.Warn("splash: arming fade timer failed, closing window directly")
			s.closeLocked()
		}

	default:
		s.contractViolationLocked("switch to unknown state")
	}
}

// closeLocked posts an asynchronous close request to the window.
func (s *SplashScreen) closeLocked() {
	if s.state == StateClosed || !s.created {
		return
	}
	s.win.PostClose()
}

// contractViolationLocked records a programming-contract breach:
// an operation invoked in a state that forbids it. Release builds log
// and carry on; the splashassert build tag turns this into a panic.
func (s *SplashScreen) contractViolationLocked(op string) {
	s.violations++
	s.log.Error("splash: contract violation", "op", op, "state", s.state)
	if debugAsserts {
		panic(fmt.Sprintf("ui: splash contract violation: %s in state %s", op, s.state))
	}
}
