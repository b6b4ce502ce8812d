package ui

import "time"

// Event identifies a native window notification that feeds the splash
// state machine. The set is closed: these are the only three messages
// the state machine reacts to.
type Event int

const (
	// EventTimerTick fires on each pulse of the fade timer.
	EventTimerTick Event = iota
	// EventCloseRequested asks the window to tear itself down, either
	// because the fade completed or because something external closed it.
	EventCloseRequested
	// EventDestroyed reports that the native window is fully gone.
	EventDestroyed
)

func (e Event) String() string {
	switch e {
	case EventTimerTick:
		return "timer-tick"
	case EventCloseRequested:
		return "close-requested"
	case EventDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Window abstracts the native splash window. All methods except
// StartTimer, StopTimer and PostClose are called only from the worker
// goroutine that owns the window; StartTimer may be called from the
// goroutine that calls Dismiss, and PostClose/StopTimer only post or
// cancel asynchronous work, which the platforms allow cross-thread.
type Window interface {
	// Create makes the hidden top-level window with the given caption
	// and body text. On failure no window exists and the splash is
	// silently unavailable.
	Create(caption, text string) error

	// DisableSystemButtons strips minimize/maximize/close from the
	// window chrome.
	DisableSystemButtons()

	// SetIcon applies the application icon. Failure is non-fatal.
	SetIcon() error

	// Center positions the window in the middle of the screen.
	Center()

	// StartMarquee puts the progress bar into indeterminate mode with
	// the given pulse interval.
	StartMarquee(pulse time.Duration)

	// SetAlpha applies a layered-window opacity level, 0 (transparent)
	// to 255 (opaque).
	SetAlpha(alpha uint8)

	// Show makes the window visible.
	Show()

	// StartTimer arms the repeating fade timer. Reports whether the
	// timer was actually installed.
	StartTimer(interval time.Duration) bool

	// StopTimer cancels the fade timer if armed.
	StopTimer()

	// PostClose asynchronously requests the window to close. It never
	// blocks and is safe from any goroutine.
	PostClose()

	// Destroy tears the native window down. Worker goroutine only; on
	// Win32 this delivers the destroyed notification synchronously.
	Destroy()

	// Run pumps window messages until Quit, delivering each relevant
	// message to dispatch. It blocks the calling goroutine.
	Run(dispatch func(Event))

	// Quit signals the running message pump to exit. Worker goroutine
	// only.
	Quit()
}

// Opacity percentages for the fade-out, indexed from fully transparent
// to fully opaque. Entering SHOW_NORMAL starts at the top; each fade
// tick steps one entry down, and reaching index 0 closes the window
// instead of applying it.
var alphaScales = [...]int{0, 30, 47, 62, 75, 85, 93, defaultAlphaScale}

const defaultAlphaScale = 100

// fadeTimerInterval is how often the window steps down one opacity
// entry while fading.
const fadeTimerInterval = 100 * time.Millisecond

// marqueePulseInterval is the pulse rate of the indeterminate progress
// bar.
const marqueePulseInterval = 60 * time.Millisecond

func alphaValue(scale int) uint8 {
	if debugAsserts && (scale < 0 || scale > 100) {
		panic("ui: alpha scale out of range")
	}
	return uint8(scale * 255 / 100)
}
