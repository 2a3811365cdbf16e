package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/mididings/internal/logger"
	"github.com/leandrodaf/mididings/internal/midi/memory"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/midi"
)

func TestDemoProgramIsValid(t *testing.T) {
	for _, printEvents := range []bool{false, true} {
		if err := demoProgram(logger.NewNopLogger(), printEvents).Validate(); err != nil {
			t.Fatalf("demo program (print %v): %v", printEvents, err)
		}
	}
}

func TestDemoProgramSwitches(t *testing.T) {
	nop := logger.NewNopLogger()
	mem := memory.New(32, nop)
	r, err := midi.NewRouter(contracts.WithLogger(nop), contracts.WithBackendInstance(mem))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for _, msg := range [][]byte{
		{0x90, 40, 100}, // Run: passes
		{0x90, keyPause, 100},
		{0x90, 41, 100}, // Pause: dropped
		{0x90, keyHarmony, 100},
		{0x90, 42, 100}, // Major third
		{0x90, keyNextSub, 100},
		{0x90, 43, 100}, // Fifth
	} {
		if err := mem.Inject(0, msg...); err != nil {
			t.Fatal(err)
		}
	}
	mem.Disconnect()

	if err := r.Run(context.Background(), demoProgram(nop, false)); !errors.Is(err, contracts.ErrDisconnected) {
		t.Fatalf("Run = %v", err)
	}

	var notes []byte
	for _, p := range mem.Sent() {
		if p.Data[0] == 0x90 {
			notes = append(notes, p.Data[1])
		}
	}
	want := []byte{40, 42, 46, 43, 50}
	if !bytes.Equal(notes, want) {
		t.Fatalf("sent notes %v, want %v", notes, want)
	}
}

func TestRunExitCodes(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-bogus"}, 2},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, 1},
		{"invalid config", []string{"-config", bad}, 1},
		{"unknown backend", []string{"-backend", "jack"}, 1},
		{"no devices", []string{"-list", "-backend", "null"}, 1},
		{"undeclared scene", []string{"-backend", "null", "-scene", "9"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Fatalf("exit code %d, want %d (stderr: %s)", got, tt.want, stderr.String())
			}
		})
	}
}
