package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"error": LogLevelError,
		"WARN":  LogLevelWarn,
		"":      LogLevelInfo,
		"bogus": LogLevelInfo,
		"debug": LogLevelDebug,
		"TRACE": LogLevelTrace,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_FiltersAndPrefixes(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(logWriter)

	logger := NewLogger(LogLevelInfo).With("RatioService")
	logger.Debug("hidden %d", 1)
	logger.Info("computed %d groups", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at INFO level: %q", out)
	}
	if !strings.Contains(out, "[INFO] [RatioService] computed 3 groups") {
		t.Errorf("unexpected log output: %q", out)
	}
}

var logWriter = log.Writer()
