package app

import (
	"os"
	"sync/atomic"
)

// TestModeEnv disables runtime side effects of the binaries when set to "1".
const TestModeEnv = "PANTRY_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether binaries should skip connecting to backends.
// The environment is read once; RefreshTestMode re-reads it.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads TestModeEnv and returns the new value.
func RefreshTestMode() bool {
	on := os.Getenv(TestModeEnv) == "1"
	testMode.Store(&on)
	return on
}
