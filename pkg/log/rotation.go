// Log file rotation
//
// A size-bounded log file with numbered backups: app.log is renamed to
// app.log.1, app.log.1 to app.log.2 and so on, dropping the oldest.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the size in megabytes that triggers rotation. Default 10.
	MaxSize int

	// MaxBackups is the number of old files kept. Default 5.
	MaxBackups int

	// Compress gzips backups.
	Compress bool
}

// RotatingFileWriter is an io.Writer that rotates its file by size.
type RotatingFileWriter struct {
	mu          sync.Mutex
	filename    string
	maxSize     int64
	maxBackups  int
	compress    bool
	currentSize int64
	file        *os.File
}

func NewRotatingFileWriter(config RotationConfig) (*RotatingFileWriter, error) {
	if config.Filename == "" {
		return nil, pkgerrors.New("log filename is required")
	}
	if config.MaxSize <= 0 {
		config.MaxSize = 10
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 5
	}

	w := &RotatingFileWriter{
		filename:   config.Filename,
		maxSize:    int64(config.MaxSize) << 20,
		maxBackups: config.MaxBackups,
		compress:   config.Compress,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.filename), 0755); err != nil {
		return pkgerrors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(w.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return pkgerrors.Wrap(err, "open log file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return pkgerrors.Wrap(err, "stat log file")
	}
	w.file = f
	w.currentSize = info.Size()
	return nil
}

// Write appends p, rotating first if p would push the file past the limit.
// A single write larger than the limit still goes to one file.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, pkgerrors.Wrap(err, "rotate log file")
		}
	}
	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// Backup returns the path of the n'th backup, without any .gz suffix.
func (w *RotatingFileWriter) Backup(n int) string {
	return w.filename + "." + strconv.Itoa(n)
}

func (w *RotatingFileWriter) backupPath(n int) string {
	p := w.Backup(n)
	if w.compress {
		p += ".gz"
	}
	return p
}

func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	os.Remove(w.backupPath(w.maxBackups))
	for n := w.maxBackups - 1; n >= 1; n-- {
		if err := os.Rename(w.backupPath(n), w.backupPath(n+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if err := os.Rename(w.filename, w.Backup(1)); err != nil {
		if oerr := w.open(); oerr != nil {
			return oerr
		}
		return err
	}
	if w.compress {
		if err := compressFile(w.Backup(1)); err != nil {
			return err
		}
	}
	return w.open()
}

// compressFile replaces name with name.gz.
func compressFile(name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(name + ".gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(dst)
	_, err = io.Copy(gz, src)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name + ".gz")
		return err
	}
	src.Close()
	return os.Remove(name)
}

func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingFileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *RotatingFileWriter) Filename() string {
	return w.filename
}

// NewConsoleAndFileLogger writes to console and a rotating file. Colour is
// off so the file holds no escape codes.
func NewConsoleAndFileLogger(prefix string, console io.Writer, config RotationConfig) (*Logger, *RotatingFileWriter, error) {
	writer, err := NewRotatingFileWriter(config)
	if err != nil {
		return nil, nil, err
	}
	logger := New(prefix)
	logger.SetWriter(io.MultiWriter(console, writer))
	logger.SetColorize(false)
	return logger, writer, nil
}
