package logging

import (
	"bytes"
	"log"
	"testing"
)

func TestDebugEnabledDefaultsToConstructorArg(t *testing.T) {
	l := NewDefaultLogger("test", true)
	if !l.DebugEnabled() {
		t.Fatal("DebugEnabled should reflect the debug flag passed to NewDefaultLogger")
	}
}

func TestSetDebugToggles(t *testing.T) {
	l := NewDefaultLogger("test", false)
	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatal("SetDebug(true) should make DebugEnabled return true")
	}
	l.SetDebug(false)
	if l.DebugEnabled() {
		t.Fatal("SetDebug(false) should make DebugEnabled return false")
	}
}

func TestDebugfSuppressedWhenDisabled(t *testing.T) {
	l := NewDefaultLogger("test", false)
	var buf bytes.Buffer
	l.out = log.New(&buf, "", 0)
	l.Debugf("should not appear %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("Debugf must be suppressed when debug is disabled, got %q", buf.String())
	}
}

func TestInfofIncludesPrefix(t *testing.T) {
	l := NewDefaultLogger("myprefix", false)
	var buf bytes.Buffer
	l.out = log.New(&buf, "", 0)
	l.Infof("hello %s", "world")
	got := buf.String()
	if !bytes.Contains([]byte(got), []byte("[myprefix] INFO: hello world")) {
		t.Fatalf("Infof output = %q, missing expected prefix/level/message", got)
	}
}

func TestPrefixfOmitsBracketsWhenPrefixEmpty(t *testing.T) {
	l := NewDefaultLogger("", false)
	got := l.prefixf("WARN", "x=%d", 5)
	if got != "WARN: x=5" {
		t.Fatalf("prefixf = %q, want %q", got, "WARN: x=5")
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	l := NewNopLogger()
	if l.DebugEnabled() {
		t.Fatal("NewNopLogger's DebugEnabled must always be false")
	}
	l.SetDebug(true)
	if l.DebugEnabled() {
		t.Fatal("nopLogger.SetDebug must be a no-op")
	}
	// These must not panic.
	l.Debugf("x")
	l.Infof("x")
	l.Warnf("x")
	l.Errorf("x")
}
