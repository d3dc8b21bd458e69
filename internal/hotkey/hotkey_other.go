//go:build !windows

package hotkey

import "sync/atomic"

// platformHandle is empty on non-Windows builds: there is no OS hook to
// own. The daemon is Windows-only; this stub exists purely so the package
// compiles for tooling that cross-builds it.
type platformHandle struct{}

func startPlatformHook(vk *atomic.Uint32, onFire func()) platformHandle {
	return platformHandle{}
}

func stopPlatformHook(h platformHandle) {}
