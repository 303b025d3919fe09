package util

import "runtime"

// PoolSize returns override when positive, otherwise one slot per CPU clamped
// to 2..8. Generated modules are checked one at a time in the common case.
func PoolSize(override int) int {
	if override > 0 {
		return override
	}
	return min(max(runtime.NumCPU(), 2), 8)
}
