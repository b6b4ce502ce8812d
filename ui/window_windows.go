//go:build windows

package ui

import (
	"fmt"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 API references for the splash window
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	comctl32 = windows.NewLazySystemDLL("comctl32.dll")

	procRegisterClassExW     = user32.NewProc("RegisterClassExW")
	procCreateWindowExW      = user32.NewProc("CreateWindowExW")
	procDefWindowProcW       = user32.NewProc("DefWindowProcW")
	procDestroyWindow        = user32.NewProc("DestroyWindow")
	procShowWindow           = user32.NewProc("ShowWindow")
	procUpdateWindow         = user32.NewProc("UpdateWindow")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procTranslateMessage     = user32.NewProc("TranslateMessage")
	procDispatchMessageW     = user32.NewProc("DispatchMessageW")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procSendMessageW         = user32.NewProc("SendMessageW")
	procPostQuitMessage      = user32.NewProc("PostQuitMessage")
	procSetTimer             = user32.NewProc("SetTimer")
	procKillTimer            = user32.NewProc("KillTimer")
	procSetLayered           = user32.NewProc("SetLayeredWindowAttributes")
	procGetWindowLongW       = user32.NewProc("GetWindowLongW")
	procSetWindowLongW       = user32.NewProc("SetWindowLongW")
	procSetWindowPos         = user32.NewProc("SetWindowPos")
	procGetSystemMetrics     = user32.NewProc("GetSystemMetrics")
	procLoadIconW            = user32.NewProc("LoadIconW")
	procGetModuleHandleW     = kernel32.NewProc("GetModuleHandleW")
	procGetStockObject       = gdi32.NewProc("GetStockObject")
	procInitCommonControlsEx = comctl32.NewProc("InitCommonControlsEx")
)

// Win32 constants
const (
	wsCaption     = 0x00C00000
	wsSysmenu     = 0x00080000
	wsMinimizebox = 0x00020000
	wsMaximizebox = 0x00010000
	wsChild       = 0x40000000
	wsVisible     = 0x10000000
	wsExLayered   = 0x00080000
	wsExTopmost   = 0x00000008

	ssCenter = 0x00000001

	pbsSmooth  = 0x01
	pbsMarquee = 0x08

	pbmSetMarquee = 0x0400 + 10 // WM_USER+10

	wmDestroy = 0x0002
	wmClose   = 0x0010
	wmSetIcon = 0x0080
	wmTimer   = 0x0113
	wmSetfont = 0x0030

	gwlStyle = ^uintptr(15) // -16

	lwaAlpha = 0x2

	smCxscreen = 0
	smCyscreen = 1

	swShownormal = 1

	swpNosize     = 0x0001
	swpNoactivate = 0x0010

	defGuiFont  = 17
	colorWindow = 5

	iccProgressClass = 0x00000020

	iconSmall = 0
	iconBig   = 1

	// The one reserved id for the fade timer.
	fadeTimerID = 1

	splashWidth  = 380
	splashHeight = 120
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     uintptr
	hIcon         uintptr
	hCursor       uintptr
	hbrBackground uintptr
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       uintptr
}

type initCommonControlsExStruct struct {
	dwSize uint32
	dwICC  uint32
}

type point struct{ x, y int32 }

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

// Single splash window per process: the wndproc callback has no user
// data slot worth plumbing for one window, so it reaches the active
// instance through a guarded global, same as the class registration.
var (
	activeMu     sync.Mutex
	activeWindow *splashWindow

	classOnce sync.Once
	classAtom uintptr
)

func splashWndProc(hwnd, umsg, wParam, lParam uintptr) uintptr {
	activeMu.Lock()
	w := activeWindow
	activeMu.Unlock()

	if w != nil && w.dispatch != nil {
		switch umsg {
		case wmTimer:
			if wParam == fadeTimerID {
				w.dispatch(EventTimerTick)
				return 0
			}
		case wmClose:
			w.dispatch(EventCloseRequested)
			return 0
		case wmDestroy:
			w.dispatch(EventDestroyed)
			return 0
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, umsg, wParam, lParam)
	return ret
}

// splashWindow is the Win32 implementation of Window. Everything here
// except StartTimer, StopTimer and PostClose runs on the worker
// goroutine that created the window.
type splashWindow struct {
	hwnd     uintptr
	label    uintptr
	progress uintptr
	dispatch func(Event)
}

func newWindow() Window {
	return &splashWindow{}
}

func registerClass() {
	classOnce.Do(func() {
		hInst, _, _ := procGetModuleHandleW.Call(0)
		className, _ := windows.UTF16PtrFromString("OmahaSplashScreen")
		wc := wndClassEx{
			lpfnWndProc:   syscall.NewCallback(splashWndProc),
			hInstance:     hInst,
			hbrBackground: colorWindow + 1,
			lpszClassName: className,
		}
		wc.cbSize = uint32(unsafe.Sizeof(wc))
		classAtom, _, _ = procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	})
}

func (w *splashWindow) Create(caption, text string) error {
	icc := initCommonControlsExStruct{dwICC: iccProgressClass}
	icc.dwSize = uint32(unsafe.Sizeof(icc))
	procInitCommonControlsEx.Call(uintptr(unsafe.Pointer(&icc)))

	registerClass()
	if classAtom == 0 {
		return fmt.Errorf("RegisterClassExW failed")
	}

	activeMu.Lock()
	activeWindow = w
	activeMu.Unlock()

	hInst, _, _ := procGetModuleHandleW.Call(0)
	className, _ := windows.UTF16PtrFromString("OmahaSplashScreen")
	title, _ := windows.UTF16PtrFromString(caption)

	// Created hidden; the worker shows it only after full styling.
	hwnd, _, lastErr := procCreateWindowExW.Call(
		wsExLayered|wsExTopmost,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		wsCaption|wsSysmenu,
		0, 0, splashWidth, splashHeight,
		0, 0, hInst, 0,
	)
	if hwnd == 0 {
		activeMu.Lock()
		activeWindow = nil
		activeMu.Unlock()
		return fmt.Errorf("CreateWindowExW: %v", lastErr)
	}
	w.hwnd = hwnd

	hFont, _, _ := procGetStockObject.Call(defGuiFont)

	staticClass, _ := windows.UTF16PtrFromString("STATIC")
	bodyText, _ := windows.UTF16PtrFromString(text)
	w.label, _, _ = procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(staticClass)),
		uintptr(unsafe.Pointer(bodyText)),
		wsChild|wsVisible|ssCenter,
		10, 15, splashWidth-20, 30,
		hwnd, 0, hInst, 0,
	)
	procSendMessageW.Call(w.label, wmSetfont, hFont, 1)

	progressClass, _ := windows.UTF16PtrFromString("msctls_progress32")
	w.progress, _, _ = procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(progressClass)),
		0,
		wsChild|wsVisible|pbsMarquee|pbsSmooth,
		10, 55, splashWidth-20, 18,
		hwnd, 0, hInst, 0,
	)

	return nil
}

func (w *splashWindow) DisableSystemButtons() {
	const sysStyleMask = wsMinimizebox | wsSysmenu | wsMaximizebox
	style, _, _ := procGetWindowLongW.Call(w.hwnd, gwlStyle)
	procSetWindowLongW.Call(w.hwnd, gwlStyle, style&^uintptr(sysStyleMask))
}

func (w *splashWindow) SetIcon() error {
	hInst, _, _ := procGetModuleHandleW.Call(0)
	// First icon resource of the executable, if any.
	hicon, _, _ := procLoadIconW.Call(hInst, 1)
	if hicon == 0 {
		return fmt.Errorf("LoadIconW: no application icon resource")
	}
	procSendMessageW.Call(w.hwnd, wmSetIcon, iconBig, hicon)
	procSendMessageW.Call(w.hwnd, wmSetIcon, iconSmall, hicon)
	return nil
}

func (w *splashWindow) Center() {
	sw, _, _ := procGetSystemMetrics.Call(smCxscreen)
	sh, _, _ := procGetSystemMetrics.Call(smCyscreen)
	x := (int(sw) - splashWidth) / 2
	y := (int(sh) - splashHeight) / 2
	procSetWindowPos.Call(w.hwnd, 0, uintptr(x), uintptr(y), 0, 0, swpNosize|swpNoactivate)
}

func (w *splashWindow) StartMarquee(pulse time.Duration) {
	procSendMessageW.Call(w.progress, pbmSetMarquee, 1, uintptr(pulse.Milliseconds()))
}

func (w *splashWindow) SetAlpha(alpha uint8) {
	procSetLayered.Call(w.hwnd, 0, uintptr(alpha), lwaAlpha)
}

func (w *splashWindow) Show() {
	procShowWindow.Call(w.hwnd, swShownormal)
	procUpdateWindow.Call(w.hwnd)
}

func (w *splashWindow) StartTimer(interval time.Duration) bool {
	// The timer is bound to the window, so WM_TIMER lands on the
	// worker's message queue even when armed from the caller's
	// goroutine.
	ret, _, _ := procSetTimer.Call(w.hwnd, fadeTimerID, uintptr(interval.Milliseconds()), 0)
	return ret != 0
}

func (w *splashWindow) StopTimer() {
	procKillTimer.Call(w.hwnd, fadeTimerID)
}

func (w *splashWindow) PostClose() {
	procPostMessageW.Call(w.hwnd, wmClose, 0, 0)
}

func (w *splashWindow) Destroy() {
	procDestroyWindow.Call(w.hwnd)
}

func (w *splashWindow) Run(dispatch func(Event)) {
	w.dispatch = dispatch

	// Message pump. GetMessage returns 0 on WM_QUIT, -1 on error.
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if ret == 0 || int32(ret) == -1 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}

	activeMu.Lock()
	if activeWindow == w {
		activeWindow = nil
	}
	activeMu.Unlock()
	w.hwnd = 0
}

func (w *splashWindow) Quit() {
	procPostQuitMessage.Call(0)
}
