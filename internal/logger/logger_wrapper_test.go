package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

func TestFileDestinationWritesStructuredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.log")

	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("scene switched",
		log.Field().Int("scene", 2),
		log.Field().String("name", "Pause"),
		log.Field().Error("error", errors.New("boom")),
	)
	if err := log.(*ZapLogger).Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"scene switched"`, `"scene":2`, `"name":"Pause"`, `"error":"boom"`, `"caller":"logger/logger_wrapper_test.go`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestSetLevelFiltersMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.log")

	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.SetLevel(contracts.WarnLevel)
	log.Info("hidden")
	log.Debug("hidden too")
	log.Warn("shown")
	_ = log.(*ZapLogger).Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn were written:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing:\n%s", out)
	}
}

func TestEnabled(t *testing.T) {
	log := NewZapLogger().(*ZapLogger)
	if log.Enabled(contracts.DebugLevel) {
		t.Error("debug should be disabled by default")
	}
	log.SetLevel(contracts.DebugLevel)
	if !log.Enabled(contracts.DebugLevel) {
		t.Error("debug should be enabled after SetLevel")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want contracts.LogLevel
		err  bool
	}{
		{"debug", contracts.DebugLevel, false},
		{"INFO", contracts.InfoLevel, false},
		{"", contracts.InfoLevel, false},
		{"warning", contracts.WarnLevel, false},
		{"error", contracts.ErrorLevel, false},
		{"loud", contracts.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := contracts.ParseLogLevel(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLogLevel(%q) error = %v, want error %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
