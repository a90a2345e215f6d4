package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "bogus"} {
		l, err := New(lvl, false)
		if err != nil {
			t.Fatalf("level %q: unexpected error: %v", lvl, err)
		}
		if l == nil {
			t.Fatalf("level %q: nil logger", lvl)
		}
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	l, err := New("error", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("verbose logger should enable debug")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected a nop logger")
	}
}
