// Command irmp3 runs the IR-remote MP3 player on a Raspberry Pi with a
// VS1053 decoder board and an SD card reader.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/config"
	"github.com/rabidaudio/irmp3/console"
	"github.com/rabidaudio/irmp3/display"
	"github.com/rabidaudio/irmp3/gpio"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/player"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/spi"
	"github.com/rabidaudio/irmp3/storage"
	"github.com/rabidaudio/irmp3/vs1053"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (defaults are used if empty)")
	noConsole := flag.Bool("no-console", false, "run without the diagnostic console")
	flag.Parse()

	log := logrus.New()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.WithError(err).Fatal("config load failed")
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.WithError(err).Fatal("config invalid")
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	if err := run(cfg, log, !*noConsole); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("player stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger, withConsole bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gpio.Open(); err != nil {
		return err
	}
	defer gpio.Close()

	bus, err := spi.Open(cfg.SPI.Device, cfg.SPI.SpeedHz)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev := vs1053.New(bus,
		gpio.Output(cfg.Pins.XCS),
		gpio.Output(cfg.Pins.XDCS),
		gpio.Output(cfg.Pins.Reset),
		gpio.Input(cfg.Pins.DREQ))
	dev.Timeout = cfg.Timing.DREQTimeout()
	if err := dev.Init(ctx); err != nil {
		return err
	}
	log.Info("decoder ready")

	disp := display.NewLog(log)

	var fsys catalog.FS
	cat := catalog.New(nil)
	vol, storageErr := storage.Open(cfg.Storage.Image, cfg.Storage.Partition)
	if storageErr != nil {
		log.WithError(storageErr).Error("no volume, playing nothing")
	} else {
		defer vol.Close()
		fsys = vol
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

	var table gpio.Table
	watcher := gpio.NewWatcher(&table)

	decoder := ir.NewDecoder(p.Opcodes)
	decoder.BitThreshold = cfg.Timing.IRBitThreshold()
	decoder.Debounce = cfg.Timing.IRDebounce()
	if err := table.Attach(0, int(cfg.Pins.IR), gpio.EdgeBoth, decoder.HandleEdge); err != nil {
		return err
	}
	watcher.Watch(cfg.Pins.IR, gpio.EdgeBoth)

	buttons := ir.NewButtonDebouncer(p.Opcodes, cfg.Timing.ButtonDebounce())
	for _, b := range cfg.Buttons {
		op, _ := ir.Lookup(b.Button)
		pin := int(b.Pin)
		press := func(_ bool, now time.Duration) { buttons.Press(pin, op, now) }
		if err := table.Attach(0, pin, gpio.EdgeFalling, press); err != nil {
			return err
		}
		watcher.Watch(b.Pin, gpio.EdgeFalling)
	}

	g := rtos.NewGroup(ctx, log)
	g.Spawn("edges", rtos.PriorityInterrupt, func(ctx context.Context, _ *rtos.Task) error {
		return watcher.Run(ctx)
	})
	p.Start(g)

	if withConsole {
		con := console.New(p, cat, g.Tasks)
		con.OnQuit = stop
		g.Spawn("console", rtos.PriorityIdle, con.Run)
	}

	log.Info("player running")
	return g.Wait()
}
