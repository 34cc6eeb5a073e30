// Command irmp3-sim runs the player on a desktop. The keyboard stands in for
// the remote, the terminal for the OLED and the sound card for the decoder.
//
//	irmp3-sim [-config irmp3.yaml] [-image sd.img] [-log irmp3-sim.log]
//	irmp3-sim mkimage <image> <dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	termbox "github.com/nsf/termbox-go"
	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/config"
	"github.com/rabidaudio/irmp3/display"
	"github.com/rabidaudio/irmp3/gpio"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/player"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/sim"
	"github.com/rabidaudio/irmp3/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	if len(os.Args) > 1 && os.Args[1] == "mkimage" {
		if len(os.Args) != 4 {
			fmt.Fprintln(os.Stderr, "usage: irmp3-sim mkimage <image> <dir>")
			os.Exit(2)
		}
		if err := mkimage(os.Args[2], os.Args[3], log); err != nil {
			log.WithError(err).Fatal("mkimage failed")
		}
		return
	}

	cfgPath := flag.String("config", "", "YAML config file (defaults are used if empty)")
	image := flag.String("image", "sd.img", "FAT32 image to play from")
	logPath := flag.String("log", "irmp3-sim.log", "log file")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.WithError(err).Fatal("config load failed")
		}
	}
	cfg.Storage.Image = *image
	if err := config.Validate(cfg); err != nil {
		log.WithError(err).Fatal("config invalid")
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	// termbox owns the terminal
	lf, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.WithError(err).Fatal("log file")
	}
	defer lf.Close()
	log.SetOutput(lf)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("simulator stopped")
		fmt.Fprintln(os.Stderr, "irmp3-sim:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	disp := display.NewTerminal()
	disp.Footer = sim.KeyHelp

	dev := sim.NewSpeaker(sim.SampleRate, log)
	if err := dev.Play(); err != nil {
		return fmt.Errorf("sound output: %w", err)
	}

	var fsys catalog.FS
	cat := catalog.New(nil)
	vol, storageErr := storage.Open(cfg.Storage.Image, cfg.Storage.Partition)
	if storageErr != nil {
		log.WithError(storageErr).Error("no volume, playing nothing")
	} else {
		defer vol.Close()
		fsys = vol
		var err error
		if cat, err = catalog.Scan(vol, cfg.Storage.Dir, log); err != nil {
			log.WithError(err).Error("track scan failed")
		}
		log.WithFields(logrus.Fields{"label": vol.Label(), "tracks": cat.Len()}).Info("volume mounted")
	}

	p := player.New(dev, fsys, cat, disp, log)
	p.StorageErr = storageErr
	p.ReadyTimeout = cfg.Timing.DREQTimeout()
	p.InitialVolume = cfg.Audio.Volume
	p.InitialBass = cfg.Audio.Bass
	p.InitialTreble = cfg.Audio.Treble
	defer p.Close()

	// keys travel the same path as real IR: edge train, pin table, decoder
	var table gpio.Table
	decoder := ir.NewDecoder(p.Opcodes)
	decoder.BitThreshold = cfg.Timing.IRBitThreshold()
	decoder.Debounce = cfg.Timing.IRDebounce()
	if err := table.Attach(0, int(cfg.Pins.IR), gpio.EdgeBoth, decoder.HandleEdge); err != nil {
		return err
	}
	remote := sim.NewRemote(&table, int(cfg.Pins.IR))
	remote.Threshold = decoder.BitThreshold

	g := rtos.NewGroup(ctx, log)
	g.Spawn("keyboard", rtos.PriorityInterrupt, func(ctx context.Context, _ *rtos.Task) error {
		return keyboard(ctx, remote, stop, log)
	})
	g.Spawn("decoder", rtos.PriorityNormal, func(ctx context.Context, _ *rtos.Task) error {
		return dev.Run(ctx)
	})
	p.Start(g)

	return g.Wait()
}

// keyboard turns key presses into remote transmissions until ctx is done
// or the user presses escape.
func keyboard(ctx context.Context, remote *sim.Remote, quit func(), log logrus.FieldLogger) error {
	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
	}()
	defer termbox.Interrupt()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev.Type == termbox.EventKey && (ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC) {
				quit()
				continue
			}
			op, ok := sim.KeyOpcode(ev)
			if !ok {
				continue
			}
			if err := remote.Press(op); err != nil {
				log.WithError(err).Warn("remote failed")
			}
		}
	}
}
