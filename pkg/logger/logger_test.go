package logger

import (
	"testing"

	"github.com/mh26/services/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name           string
		config         *config.Config
		expectedError  bool
		expectedLogLvl zapcore.Level
	}{
		{
			name:           "Debug console",
			config:         &config.Config{LogLvl: "debug", LogFormat: "console"},
			expectedLogLvl: zapcore.DebugLevel,
		},
		{
			name:           "Info with default format",
			config:         &config.Config{LogLvl: "info"},
			expectedLogLvl: zapcore.InfoLevel,
		},
		{
			name:           "Warn json",
			config:         &config.Config{LogLvl: "warn", LogFormat: "json"},
			expectedLogLvl: zapcore.WarnLevel,
		},
		{
			name:           "Error json",
			config:         &config.Config{LogLvl: "error", LogFormat: "json"},
			expectedLogLvl: zapcore.ErrorLevel,
		},
		{
			name:          "Invalid log level",
			config:        &config.Config{LogLvl: "invalid"},
			expectedError: true,
		},
		{
			name:          "Invalid log format",
			config:        &config.Config{LogLvl: "info", LogFormat: "xml"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, zap.L().Core().Enabled(tt.expectedLogLvl))
			if tt.expectedLogLvl > zapcore.DebugLevel {
				require.False(t, zap.L().Core().Enabled(tt.expectedLogLvl-1))
			}
		})
	}
}
