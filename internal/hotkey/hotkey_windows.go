//go:build windows

package hotkey

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

// platformHandle is the Windows-specific state needed to tear down the
// hook from another goroutine: the ID of the OS thread that owns the
// message pump, and the hook handle itself.
type platformHandle struct {
	threadID windows.Handle
	hook     uintptr
}

const (
	whKeyboardLl = 13
	wmKeydown    = 0x0100
	wmSyskeydown = 0x0104
	wmQuit       = 0x0012
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// startPlatformHook spawns the dedicated thread that owns the low-level
// keyboard hook and its message pump, mirroring the reference daemon's
// hotkey thread: the hook callback reads vk atomically and must never
// block or allocate on the hot path.
func startPlatformHook(vk *atomic.Uint32, onFire func()) platformHandle {
	ready := make(chan platformHandle, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tid, _, _ := procGetCurrentThreadID.Call()

		var hookProc func(nCode int, wParam uintptr, lParam uintptr) uintptr
		hookProc = func(nCode int, wParam uintptr, lParam uintptr) uintptr {
			if nCode >= 0 && (wParam == wmKeydown || wParam == wmSyskeydown) {
				kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
				if kb.VkCode == vk.Load() && vk.Load() != 0 {
					onFire()
				}
			}
			r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
			return r
		}
		cb := windows.NewCallback(hookProc)

		hHook, _, _ := procSetWindowsHookExW.Call(
			uintptr(whKeyboardLl),
			cb,
			0,
			0,
		)

		ready <- platformHandle{threadID: windows.Handle(tid), hook: hHook}

		var msg [6]uintptr // MSG is larger than this on the Go side; only used as an opaque buffer
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			switch int32(r) {
			case -1, 0:
				if hHook != 0 {
					procUnhookWindowsHookEx.Call(hHook)
				}
				return
			default:
				procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
				procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
			}
		}
	}()

	return <-ready
}

func stopPlatformHook(h platformHandle) {
	if h.threadID == 0 {
		return
	}
	procPostThreadMessageW.Call(uintptr(h.threadID), uintptr(wmQuit), 0, 0)
}
