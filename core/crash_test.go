package core

import (
	"os"
	"testing"
)

func TestHandleCrashRunsCleanupOnce(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	calls := 0
	SetCrashCleanup(func() { calls++ })

	HandleCrash("boom")
	if calls != 1 {
		t.Errorf("Expected cleanup to run once, got %d", calls)
	}
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}

	// Cleanup is consumed by the first crash
	HandleCrash("again")
	if calls != 1 {
		t.Errorf("Expected cleanup not to run twice, got %d", calls)
	}
}

func TestHandleCrashNil(t *testing.T) {
	called := false
	exit = func(int) { called = true }
	defer func() { exit = os.Exit }()

	HandleCrash(nil)
	if called {
		t.Error("Expected nil recover value to be ignored")
	}
}

func TestHandleCrashSurvivesPanickingCleanup(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	SetCrashCleanup(func() { panic("cleanup failed") })
	HandleCrash("boom")
	if code != 1 {
		t.Errorf("Expected exit after panicking cleanup, got code %d", code)
	}
}
