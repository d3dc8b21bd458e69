// Package hotkey implements the system-wide key-press detector:
// a pure virtual-key-name parser, plus a platform hook that watches for
// that key going down anywhere in the system and fires a flush signal.
package hotkey

import (
	"strings"
	"sync/atomic"
)

// ParseVK maps a configured hotkey name to a Windows virtual-key code.
// F1-F12 map to their contiguous VK_F1..VK_F12 range (0x70-0x7B); a
// single alphanumeric character maps to its ASCII uppercase value (which
// is numerically identical to VK_0-VK_9 and VK_A-VK_Z). Anything else is
// rejected.
func ParseVK(name string) (uint32, bool) {
	if n, ok := functionKeyNumber(name); ok {
		return 0x70 + uint32(n-1), true
	}
	if len(name) == 1 {
		c := strings.ToUpper(name)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint32(c), true
		}
	}
	return 0, false
}

// functionKeyNumber recognizes exactly "F1".."F12" (case-insensitive on
// the F). "F08", "F+8", "F13" and the like are all rejected.
func functionKeyNumber(name string) (int, bool) {
	if len(name) < 2 || len(name) > 3 || (name[0] != 'F' && name[0] != 'f') || name[1] == '0' {
		return 0, false
	}
	n := 0
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
		n = n*10 + int(name[i]-'0')
	}
	if n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}

// Handle controls a running hotkey listener. The bound key may be updated
// live (on config reload) without tearing down the OS hook; Stop is
// idempotent.
type Handle struct {
	vk atomic.Uint32
	// platform holds whatever per-OS state the hook implementation needs
	// (e.g. a thread ID to post WM_QUIT to) and is opaque to this file.
	platform platformHandle
}

// Start installs a low-level keyboard hook on a dedicated OS thread and
// begins watching for initialKey. onFire is invoked (non-blocking, from
// the hook's own thread) every time that key transitions to pressed; a
// slow or absent receiver must never stall the hook, so onFire should be a
// non-blocking send (e.g. select/default on a channel).
func Start(initialKey string, onFire func()) *Handle {
	h := &Handle{}
	vk, _ := ParseVK(initialKey)
	h.vk.Store(vk)
	h.platform = startPlatformHook(&h.vk, onFire)
	return h
}

// UpdateKey rebinds the watched key without restarting the hook. An
// unrecognized name disables the hotkey (VK 0 never matches a real key).
func (h *Handle) UpdateKey(name string) {
	vk, _ := ParseVK(name)
	h.vk.Store(vk)
}

// CurrentVK returns the virtual-key code currently bound, or 0 if
// disabled. Exists mainly so callers can assert the effect of UpdateKey.
func (h *Handle) CurrentVK() uint32 {
	return h.vk.Load()
}

// Stop tears down the hook. Safe to call more than once.
func (h *Handle) Stop() {
	stopPlatformHook(h.platform)
}
