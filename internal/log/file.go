// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// FileConfig describes the daily rotating log file sink.
type FileConfig struct {
	Dir    string // directory holding the log files
	Prefix string // file name prefix, e.g. "ecosystem.log"
}

// fileSink is a zerolog.LevelWriter that drops entries below min and hands the
// rest to a non-blocking diode in front of the rotating file.
type fileSink struct {
	min zerolog.Level
	out diode.Writer
}

func newFileSink(cfg FileConfig, min zerolog.Level) (*fileSink, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "ecosystem.log"
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	df := &dailyFile{dir: cfg.Dir, prefix: cfg.Prefix, now: time.Now}
	dw := diode.NewWriter(df, 1000, 10*time.Millisecond, func(missed int) {
		_, _ = fmt.Fprintf(os.Stderr, "log: file sink dropped %d messages\n", missed)
	})
	return &fileSink{min: min, out: dw}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *fileSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < s.min {
		return len(p), nil
	}
	return s.out.Write(p)
}

func (s *fileSink) Close() error {
	return s.out.Close()
}

// dailyFile writes to <dir>/<prefix>.<YYYY-MM-DD>, switching files when the
// local date changes.
type dailyFile struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

var _ io.WriteCloser = (*dailyFile)(nil)

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	day := d.now().Format("2006-01-02")
	if d.file == nil || day != d.day {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *dailyFile) rotate(day string) error {
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	name := filepath.Join(d.dir, d.prefix+"."+day)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.file = f
	d.day = day
	return nil
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
