// Package sim runs the player on a desktop: a software stand-in for the
// audio decoder chip, a keyboard remote and a virtual IR transmitter.
package sim

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/rabidaudio/irmp3/player"
	"github.com/rabidaudio/irmp3/settings"
	"github.com/sirupsen/logrus"
)

// SampleRate is what the simulated decoder outputs.
const SampleRate = beep.SampleRate(44100)

const (
	pipeDepth = 16
	pcmDepth  = 8
	blockLen  = 1024
)

var _ player.Device = (*Speaker)(nil)

// Speaker decodes the MP3 stream it is sent and plays it through the
// computer's sound output.
type Speaker struct {
	log  logrus.FieldLogger
	rate beep.SampleRate
	in   *pipe
	out  *pcmStream
	vol  *effects.Volume

	lock, unlock func()

	mtx    sync.Mutex
	volume uint8
	bass   [2]uint8 // amplitude, frequency
	treble [2]int8
}

// NewSpeaker returns a decoder producing audio at rate. Nothing is heard
// until Play.
func NewSpeaker(rate beep.SampleRate, log logrus.FieldLogger) *Speaker {
	out := &pcmStream{ch: make(chan [][2]float64, pcmDepth)}
	return &Speaker{
		log:    log.WithField("component", "speaker"),
		rate:   rate,
		in:     newPipe(pipeDepth),
		out:    out,
		vol:    &effects.Volume{Streamer: out, Base: 10},
		lock:   func() {},
		unlock: func() {},
	}
}

// Play opens the sound device and starts playing.
func (s *Speaker) Play() error {
	if err := speaker.Init(s.rate, s.rate.N(time.Second/10)); err != nil {
		return err
	}
	s.lock, s.unlock = speaker.Lock, speaker.Unlock
	speaker.Play(s.vol)
	return nil
}

// Run decodes until ctx is done. Whenever the stream stops parsing, for
// instance at a track boundary, decoding restarts at the next frame.
func (s *Speaker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.in.Close()
	}()
	for {
		stream, format, err := mp3.Decode(io.NopCloser(s.in))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.WithError(err).Debug("no mp3 stream, resyncing")
			continue
		}
		var src beep.Streamer = stream
		if format.SampleRate != s.rate {
			src = beep.Resample(4, format.SampleRate, s.rate, stream)
		}
		if err := s.pump(ctx, src); err != nil {
			stream.Close()
			return err
		}
		if err := stream.Err(); err != nil {
			s.log.WithError(err).Debug("mp3 stream ended")
		}
		stream.Close()
	}
}

func (s *Speaker) pump(ctx context.Context, src beep.Streamer) error {
	for {
		buf := make([][2]float64, blockLen)
		n, ok := src.Stream(buf)
		if n > 0 {
			select {
			case s.out.ch <- buf[:n]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if !ok {
			return nil
		}
	}
}

func (s *Speaker) Ready() bool {
	return s.in.Ready()
}

func (s *Speaker) SendData(ctx context.Context, p []byte) error {
	return s.in.Write(ctx, p)
}

// SetVolume attenuates by v half-decibels, like the chip's volume register.
func (s *Speaker) SetVolume(ctx context.Context, v uint8) error {
	s.lock()
	s.vol.Volume = -float64(v) / 40
	s.vol.Silent = v >= settings.MuteValue
	s.unlock()

	s.mtx.Lock()
	s.volume = v
	s.mtx.Unlock()
	return nil
}

// SetBass is recorded but not rendered.
func (s *Speaker) SetBass(ctx context.Context, amp, freq uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.bass = [2]uint8{amp, freq}
	s.log.WithField("amp", amp).WithField("freq", freq).Debug("bass")
	return nil
}

// SetTreble is recorded but not rendered.
func (s *Speaker) SetTreble(ctx context.Context, amp int8, freq uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.treble = [2]int8{amp, int8(freq)}
	s.log.WithField("amp", amp).WithField("freq", freq).Debug("treble")
	return nil
}

// Tone returns the last bass and treble settings as amplitude, frequency
// pairs.
func (s *Speaker) Tone() (bass [2]uint8, treble [2]int8) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.bass, s.treble
}

// Volume returns the last attenuation set.
func (s *Speaker) Volume() uint8 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.volume
}
