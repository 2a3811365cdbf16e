package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/leandrodaf/mididings/internal/logger"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/midi"
	"github.com/leandrodaf/mididings/sdk/patch"
)

// Harmonizes notes on the first channel with a major triad and sends them
// to the third channel.
func main() {
	log := logger.NewZapLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	harmonizer := patch.Chain(
		patch.ChannelFilter(0),
		patch.Fork(
			patch.Pass(),
			patch.Chain(patch.Transpose(4), patch.VelocityMultiply(0.8)),
			patch.Chain(patch.Transpose(7), patch.VelocityMultiply(0.5)),
		),
		patch.Channel(2),
	)

	err := midi.Run(ctx, midi.RunArguments{Patch: harmonizer},
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithClientName("harmonizer"),
	)
	if err != nil {
		log.Error("MIDI router failed", log.Field().Error("error", err))
		os.Exit(1)
	}
}
