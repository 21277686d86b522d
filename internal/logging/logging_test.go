package logging_test

import (
	"testing"

	"github.com/garnizeh/pawfect/internal/logging"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		l, err := logging.New(tt.level, "json")
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		if !l.Core().Enabled(tt.want) {
			t.Fatalf("level %q: expected %s enabled", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
			t.Fatalf("level %q: expected %s disabled", tt.level, tt.want-1)
		}
	}
}

func TestNew_Console(t *testing.T) {
	if _, err := logging.New("info", "console"); err != nil {
		t.Fatalf("console logger: %v", err)
	}
}
