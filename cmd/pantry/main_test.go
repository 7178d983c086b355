package main

import (
	"os"
	"testing"

	"github.com/odyssey-erp/pantry/internal/app"
)

func TestMain(m *testing.M) {
	_ = os.Setenv(app.TestModeEnv, "1")
	app.RefreshTestMode()
	os.Exit(m.Run())
}

func TestMainSkipsStartupInTestMode(t *testing.T) {
	main()
}
