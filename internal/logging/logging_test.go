package logging

import "testing"

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Error("Log levels are not ordered by severity")
	}
}

func TestGetLevelDefault(t *testing.T) {
	// With no environment overrides the default is info. The level is
	// latched by a sync.Once, so only verify it is a known value.
	level := GetLevel()
	switch level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		t.Errorf("GetLevel() returned unknown level %d", level)
	}
}
