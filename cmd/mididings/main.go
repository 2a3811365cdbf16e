// Command mididings routes MIDI between the configured ports through the
// built-in scene program.
//
//	mididings -config stage.yaml
//	mididings -list
//	mididings -scene 2
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/mididings/internal/config"
	"github.com/leandrodaf/mididings/internal/logger"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/midi"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 after an interrupt, 1 when the
// configuration or the transport fails, 2 on bad flags.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("mididings", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to the YAML configuration file")
	list := flags.Bool("list", false, "list the MIDI devices and exit")
	sceneNumber := flags.Int("scene", 0, "scene to start in, counting from 1 (default: from the configuration)")
	backend := flags.String("backend", "", fmt.Sprintf("MIDI backend, one of %v", midi.Backends()))
	printEvents := flags.Bool("print", false, "log every event sent")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	log := logger.NewConsoleLogger()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Error("Invalid configuration", log.Field().Error("error", err))
			return 1
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
		if err := cfg.Validate(); err != nil {
			log.Error("Invalid configuration", log.Field().Error("error", err))
			return 1
		}
	}
	opts := append([]contracts.Option{contracts.WithLogger(log)}, cfg.Options()...)

	if *list {
		devices, err := midi.ListDevices(opts...)
		if err != nil {
			log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
			return 1
		}
		for _, d := range devices {
			fmt.Fprintf(stdout, "%-3s %s (%s)\n", d.Direction, d.Name, d.Manufacturer)
		}
		return 0
	}

	program := demoProgram(log, *printEvents)
	if *sceneNumber != 0 {
		initial := *sceneNumber - 1
		program.InitialScene = &initial
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := midi.Run(ctx, program, opts...); err != nil {
		log.Error("MIDI router failed", log.Field().Error("error", err))
		return 1
	}
	log.Info("MIDI router stopped")
	return 0
}
