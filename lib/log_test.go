package lib

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultLogger(t *testing.T) {
	// pre-define expected
	expected := NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   os.Stdout,
	})
	// compare got vs expected
	require.Equal(t, expected, NewDefaultLogger())
}

func TestNewNullLogger(t *testing.T) {
	// pre-define expected
	expected := NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   io.Discard,
	})
	// compare got vs expected
	require.Equal(t, expected, NewNullLogger())
}

func TestLoggerFileOutput(t *testing.T) {
	dataDir := t.TempDir()
	logger := NewLogger(LoggerConfig{Level: InfoLevel}, dataDir)
	logger.Info("to file")
	// lumberjack creates the file on first write
	bz, err := os.ReadFile(dataDir + "/" + LogDirectory + "/" + LogFileName)
	require.NoError(t, err)
	require.Contains(t, string(bz), "to file")
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		level    int32
		log      func(l LoggerI)
		expected string
		written  bool
	}{
		{
			name:     "debug at debug",
			detail:   "debug messages print at the debug level",
			level:    DebugLevel,
			log:      func(l LoggerI) { l.Debugf("arg%d", 1) },
			expected: "DEBUG: arg1",
			written:  true,
		},
		{
			name:   "debug at info",
			detail: "debug messages are filtered at the info level",
			level:  InfoLevel,
			log:    func(l LoggerI) { l.Debug("arg1") },
		},
		{
			name:     "info at info",
			detail:   "info messages print at the info level",
			level:    InfoLevel,
			log:      func(l LoggerI) { l.Info("arg1") },
			expected: "INFO: arg1",
			written:  true,
		},
		{
			name:   "warn at error",
			detail: "warn messages are filtered at the error level",
			level:  ErrorLevel,
			log:    func(l LoggerI) { l.Warnf("arg%d", 1) },
		},
		{
			name:     "error at error",
			detail:   "error messages print at the error level",
			level:    ErrorLevel,
			log:      func(l LoggerI) { l.Error("arg1") },
			expected: "ERROR: arg1",
			written:  true,
		},
		{
			name:     "print ignores level",
			detail:   "print always writes",
			level:    ErrorLevel,
			log:      func(l LoggerI) { l.Printf("arg%d", 1) },
			expected: "arg1",
			written:  true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			test.log(NewLogger(LoggerConfig{Level: test.level, Out: buf}))
			got := buf.String()
			require.Equal(t, test.written, got != "")
			if test.written {
				require.True(t, strings.Contains(got, test.expected), got)
			}
		})
	}
}

func TestLoggerPrefix(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	NewLogger(LoggerConfig{Level: DebugLevel, Prefix: "fsm", Out: buf}).Warn("reorg")
	require.Contains(t, buf.String(), "WARN [fsm]: reorg")
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	require.Equal(t, InfoLevel, ParseLogLevel("info"))
	require.Equal(t, WarnLevel, ParseLogLevel("warning"))
	require.Equal(t, ErrorLevel, ParseLogLevel("error"))
	require.Equal(t, DebugLevel, ParseLogLevel("unknown"))
}
