package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		verbose   bool
		enabled   zapcore.Level
		disabled  zapcore.Level
		wantError bool
	}{
		{name: "info", level: "info", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
		{name: "error only", level: "error", enabled: zapcore.ErrorLevel, disabled: zapcore.WarnLevel},
		{name: "empty means info", level: "", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
		{name: "verbose wins over level", level: "error", verbose: true, enabled: zapcore.DebugLevel, disabled: zapcore.InvalidLevel},
		{name: "unknown level", level: "loud", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.verbose)
			if tt.wantError {
				assert.ErrorContains(t, err, "log level")
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			if tt.disabled != zapcore.InvalidLevel {
				assert.False(t, logger.Core().Enabled(tt.disabled))
			}
		})
	}
}
