package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"unset defaults to info", "", zerolog.InfoLevel},
		{"invalid defaults to info", "verbose", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(Config{Level: tt.level})
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("GlobalLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithComponentEmits(t *testing.T) {
	Init(Config{})
	logger := WithComponent("test")
	if logger.GetLevel() == zerolog.Disabled {
		t.Error("component logger is disabled")
	}
	// Events must be constructible from the returned value.
	logger.Info().Str("k", "v").Msg("component logger works")
}
