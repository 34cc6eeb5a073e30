package display

import (
	"strings"

	"github.com/sirupsen/logrus"
)

var _ Display = (*Log)(nil)

// Log is a headless Display that logs the frame on every Flush. It stands
// in for the OLED when none is attached.
type Log struct {
	*Grid
	log  logrus.FieldLogger
	last string
}

func NewLog(log logrus.FieldLogger) *Log {
	return &Log{Grid: NewGrid(), log: log.WithField("component", "display")}
}

// Flush logs the frame if it changed since the last Flush.
func (l *Log) Flush() error {
	lines := l.Lines()
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	frame := strings.Join(lines, " | ")
	if frame == l.last {
		return nil
	}
	l.last = frame
	l.log.Info(frame)
	return nil
}
