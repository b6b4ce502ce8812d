package ui

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow records every collaborator call so tests can assert the
// exact side-effect sequence the state machine produces.
type fakeWindow struct {
	mu sync.Mutex

	createErr  error
	timerFails bool
	runForever bool

	created      bool
	shown        bool
	destroyed    bool
	centered     bool
	sysButtons   bool
	marqueePulse time.Duration
	alphaApplies []uint8
	timerStarts  int
	timerStops   int
	postCloses   int

	dispatch   func(Event)
	runStarted chan struct{}
	quit       chan struct{}
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		runStarted: make(chan struct{}),
		quit:       make(chan struct{}),
	}
}

func (f *fakeWindow) Create(caption, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = true
	return nil
}

func (f *fakeWindow) DisableSystemButtons() {
	f.mu.Lock()
	f.sysButtons = true
	f.mu.Unlock()
}

func (f *fakeWindow) SetIcon() error { return nil }

func (f *fakeWindow) Center() {
	f.mu.Lock()
	f.centered = true
	f.mu.Unlock()
}

func (f *fakeWindow) StartMarquee(pulse time.Duration) {
	f.mu.Lock()
	f.marqueePulse = pulse
	f.mu.Unlock()
}

func (f *fakeWindow) SetAlpha(alpha uint8) {
	f.mu.Lock()
	f.alphaApplies = append(f.alphaApplies, alpha)
	f.mu.Unlock()
}

func (f *fakeWindow) Show() {
	f.mu.Lock()
	f.shown = true
	f.mu.Unlock()
}

func (f *fakeWindow) StartTimer(interval time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timerFails {
		return false
	}
	f.timerStarts++
	return true
}

func (f *fakeWindow) StopTimer() {
	f.mu.Lock()
	f.timerStops++
	f.mu.Unlock()
}

func (f *fakeWindow) PostClose() {
	f.mu.Lock()
	f.postCloses++
	f.mu.Unlock()
}

func (f *fakeWindow) Destroy() {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
}

func (f *fakeWindow) Run(dispatch func(Event)) {
	f.mu.Lock()
	f.dispatch = dispatch
	f.mu.Unlock()
	close(f.runStarted)
	if f.runForever {
		select {}
	}
	<-f.quit
}

func (f *fakeWindow) Quit() {
	close(f.quit)
}

// deliver injects a window notification the way the message pump
// would.
func (f *fakeWindow) deliver(ev Event) {
	f.mu.Lock()
	dispatch := f.dispatch
	f.mu.Unlock()
	dispatch(ev)
}

func (f *fakeWindow) alphas() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.alphaApplies...)
}

func (f *fakeWindow) closeRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCloses
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSplash(t *testing.T, fw *fakeWindow) *SplashScreen {
	t.Helper()
	return newSplashScreen("Test Bundle", fw, testLogger())
}

// showAndWait spawns the worker and blocks until it has entered the
// message pump, at which point the window is visible at full opacity.
func showAndWait(t *testing.T, s *SplashScreen, fw *fakeWindow) {
	t.Helper()
	s.Show()
	select {
	case <-fw.runStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never entered the message pump")
	}
}

func (s *SplashScreen) currentState() WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SplashScreen) violationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

func TestShowLifecycle(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)

	showAndWait(t, s, fw)

	assert.Equal(t, StateShowNormal, s.currentState())
	assert.True(t, fw.created)
	assert.True(t, fw.shown)
	assert.True(t, fw.centered)
	assert.True(t, fw.sysButtons)
	assert.Equal(t, marqueePulseInterval, fw.marqueePulse)
	// Full opacity applied during initialization.
	assert.Equal(t, []uint8{255}, fw.alphas())

	s.mu.Lock()
	assert.Equal(t, len(alphaScales)-1, s.alphaIndex)
	s.mu.Unlock()

	s.Dismiss()
	assert.Equal(t, StateFading, s.currentState())
	assert.Equal(t, 1, fw.timerStarts)

	// 8-entry opacity table: six ticks step the opacity down, the
	// seventh requests the close instead of applying entry zero.
	for i := 0; i < 6; i++ {
		fw.deliver(EventTimerTick)
	}
	assert.Equal(t, []uint8{255, 237, 216, 191, 158, 119, 76}, fw.alphas())
	assert.Equal(t, 0, fw.closeRequests())

	fw.deliver(EventTimerTick)
	assert.Equal(t, 1, fw.closeRequests())
	assert.Len(t, fw.alphas(), 7)
	assert.Equal(t, StateFading, s.currentState())

	// Native teardown sequence: close request destroys the window,
	// the destroyed notification finishes the state machine.
	fw.deliver(EventCloseRequested)
	assert.True(t, fw.destroyed)
	assert.Equal(t, StateFading, s.currentState())

	fw.deliver(EventDestroyed)
	assert.Equal(t, StateClosed, s.currentState())
	assert.Equal(t, 1, fw.timerStops)

	start := time.Now()
	s.Release()
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, s.violationCount())
}

func TestDismissBeforeShow(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)

	s.Dismiss()
	assert.Equal(t, StateClosed, s.currentState())
	assert.False(t, fw.created)
	assert.Equal(t, 0, fw.timerStarts)

	// Release without Show returns immediately.
	s.Release()
	assert.Zero(t, s.violationCount())
}

func TestDismissIsIdempotent(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	s.Dismiss()
	require.Equal(t, StateFading, s.currentState())

	// Repeated dismissals while fading are inert.
	for i := 0; i < 5; i++ {
		s.Dismiss()
	}
	assert.Equal(t, StateFading, s.currentState())
	assert.Equal(t, 1, fw.timerStarts)

	fw.deliver(EventCloseRequested)
	fw.deliver(EventDestroyed)
	require.Equal(t, StateClosed, s.currentState())

	// And after the window is gone.
	for i := 0; i < 5; i++ {
		s.Dismiss()
	}
	assert.Equal(t, StateClosed, s.currentState())
	assert.Zero(t, s.violationCount())
}

func TestDismissFromEveryGoroutine(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dismiss()
		}()
	}
	wg.Wait()

	assert.Equal(t, StateFading, s.currentState())
	assert.Equal(t, 1, fw.timerStarts)
	assert.Zero(t, s.violationCount())
}

func TestShowTwiceIsFlagged(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	s.Show()
	assert.Equal(t, 1, s.violationCount())

	// And after dismissal reduced the state to closed.
	fw2 := newFakeWindow()
	s2 := newTestSplash(t, fw2)
	s2.Dismiss()
	require.Equal(t, StateClosed, s2.currentState())
	s2.Show()
	assert.Equal(t, 1, s2.violationCount())
	assert.False(t, fw2.created)
}

func TestTimerArmFailureClosesImmediately(t *testing.T) {
	fw := newFakeWindow()
	fw.timerFails = true
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	before := len(fw.alphas())
	s.Dismiss()

	// No animation: a close request and zero opacity applies.
	assert.Equal(t, 1, fw.closeRequests())
	assert.Len(t, fw.alphas(), before)
	assert.Equal(t, StateFading, s.currentState())

	s.mu.Lock()
	assert.False(t, s.timerActive)
	s.mu.Unlock()

	fw.deliver(EventCloseRequested)
	fw.deliver(EventDestroyed)
	assert.Equal(t, StateClosed, s.currentState())
	assert.Equal(t, 0, fw.timerStops)
}

func TestTickOutsideFadingIsFlagged(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	fw.deliver(EventTimerTick)
	assert.Equal(t, 1, s.violationCount())
	assert.Equal(t, StateShowNormal, s.currentState())
	// Only the initialization apply happened.
	assert.Len(t, fw.alphas(), 1)
}

func TestTickAfterFadeCompletedIsFlagged(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	s.Dismiss()
	for i := 0; i < 7; i++ {
		fw.deliver(EventTimerTick)
	}
	require.Equal(t, 1, fw.closeRequests())

	// A straggler tick after the close request must not step again.
	fw.deliver(EventTimerTick)
	assert.Equal(t, 1, s.violationCount())
	assert.Equal(t, 1, fw.closeRequests())
	assert.Len(t, fw.alphas(), 7)

	s.mu.Lock()
	assert.Equal(t, 0, s.alphaIndex)
	s.mu.Unlock()
}

func TestExternalCloseWithoutFade(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)
	showAndWait(t, s, fw)

	// User closes the window before anyone called Dismiss.
	fw.deliver(EventCloseRequested)
	fw.deliver(EventDestroyed)

	assert.Equal(t, StateClosed, s.currentState())
	assert.Equal(t, 0, fw.timerStops)

	s.Dismiss()
	assert.Equal(t, StateClosed, s.currentState())
	assert.Zero(t, s.violationCount())
}

func TestWindowCreationFailure(t *testing.T) {
	fw := newFakeWindow()
	fw.createErr = errors.New("no window for you")
	s := newTestSplash(t, fw)

	s.Show()
	// Worker exits without showing anything; Release observes that.
	s.Release()

	assert.Equal(t, StateCreated, s.currentState())
	assert.False(t, fw.shown)
	assert.Equal(t, 0, fw.timerStarts)

	// The splash can still be dismissed afterwards.
	s.Dismiss()
	assert.Equal(t, StateClosed, s.currentState())
	assert.Zero(t, s.violationCount())
}

func TestWorkerAbortsWhenDismissedFirst(t *testing.T) {
	fw := newFakeWindow()
	s := newTestSplash(t, fw)

	// Dismiss lands before the worker gets going: the worker must
	// bail out without ever creating a window. Run the worker body
	// synchronously to pin the interleaving down.
	s.Dismiss()
	require.Equal(t, StateClosed, s.currentState())

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	s.run()

	assert.False(t, fw.created)
	assert.Equal(t, StateClosed, s.currentState())
	s.Release()
	assert.Zero(t, s.violationCount())
}

func TestReleaseTimesOutOnHungWorker(t *testing.T) {
	fw := newFakeWindow()
	fw.runForever = true
	s := newTestSplash(t, fw)
	s.timeout = 100 * time.Millisecond

	showAndWait(t, s, fw)

	start := time.Now()
	s.Release()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Acme App", installerDisplayName("Acme App"))
	assert.Equal(t, "Installer", installerDisplayName(""))

	s := newSplashScreen("Acme App", newFakeWindow(), testLogger())
	assert.Equal(t, "Acme App", s.caption)
	assert.Equal(t, "Initializing Acme App installation...", s.text)
}

func TestAlphaValue(t *testing.T) {
	assert.Equal(t, uint8(0), alphaValue(0))
	assert.Equal(t, uint8(255), alphaValue(100))
	assert.Equal(t, uint8(119), alphaValue(47))

	// The table is strictly increasing, so each fade tick strictly
	// lowers the applied opacity.
	for i := 1; i < len(alphaScales); i++ {
		assert.Greater(t, alphaScales[i], alphaScales[i-1])
	}
}
