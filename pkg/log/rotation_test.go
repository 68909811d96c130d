// Log rotation tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestWriter(t *testing.T, cfg RotationConfig) *RotatingFileWriter {
	t.Helper()
	if cfg.Filename == "" {
		cfg.Filename = filepath.Join(t.TempDir(), "pwmcalc.log")
	}
	w, err := NewRotatingFileWriter(cfg)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func readFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestRotatingFileWriter(t *testing.T) {
	w := newTestWriter(t, RotationConfig{MaxBackups: 3})

	msg := "test log message\n"
	n, err := w.Write([]byte(msg))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("expected %d bytes written, got %d", len(msg), n)
	}
	if w.currentSize != int64(len(msg)) {
		t.Errorf("expected size %d, got %d", len(msg), w.currentSize)
	}
	if got := readFile(t, w.Filename()); got != msg {
		t.Errorf("unexpected content %q", got)
	}
}

func TestRotatingFileWriterAppends(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "app.log")
	w := newTestWriter(t, RotationConfig{Filename: name})
	w.Write([]byte("first\n"))
	w.Close()

	w2 := newTestWriter(t, RotationConfig{Filename: name})
	if w2.currentSize != int64(len("first\n")) {
		t.Errorf("reopen should pick up the existing size, got %d", w2.currentSize)
	}
	w2.Write([]byte("second\n"))
	if got := readFile(t, name); got != "first\nsecond\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestRotatingFileWriterRotation(t *testing.T) {
	w := newTestWriter(t, RotationConfig{MaxBackups: 2})
	w.maxSize = 10

	for _, line := range []string{"one-----\n", "two-----\n", "three---\n", "four----\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	if got := readFile(t, w.Filename()); got != "four----\n" {
		t.Errorf("active file = %q", got)
	}
	if got := readFile(t, w.Backup(1)); got != "three---\n" {
		t.Errorf("backup 1 = %q", got)
	}
	if got := readFile(t, w.Backup(2)); got != "two-----\n" {
		t.Errorf("backup 2 = %q", got)
	}
	if _, err := os.Stat(w.Backup(3)); !os.IsNotExist(err) {
		t.Error("only two backups should be kept")
	}
}

func TestRotatingFileWriterCompress(t *testing.T) {
	w := newTestWriter(t, RotationConfig{MaxBackups: 2, Compress: true})
	w.maxSize = 10

	w.Write([]byte("first----\n"))
	w.Write([]byte("second---\n"))

	if _, err := os.Stat(w.Backup(1)); !os.IsNotExist(err) {
		t.Error("uncompressed backup should be removed")
	}
	f, err := os.Open(w.Backup(1) + ".gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(gz)
	if string(data) != "first----\n" {
		t.Errorf("decompressed backup = %q", data)
	}
}

func TestRotatingFileWriterClosed(t *testing.T) {
	w := newTestWriter(t, RotationConfig{})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("late\n")); err == nil {
		t.Error("write after close should fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestNewConsoleAndFileLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	var console bytes.Buffer
	logger, writer, err := NewConsoleAndFileLogger("pwmcalc", &console, RotationConfig{Filename: logFile})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer writer.Close()

	logger.Info("generated %s", "servo.c")

	content := readFile(t, logFile)
	if !strings.Contains(content, "pwmcalc: generated servo.c") {
		t.Errorf("log file missing expected content: %s", content)
	}
	if console.String() != content {
		t.Errorf("console and file should match:\n%q\n%q", console.String(), content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Error("file output must not contain colour codes")
	}
}

func TestRotationConfigDefaults(t *testing.T) {
	w := newTestWriter(t, RotationConfig{})
	if w.maxSize != 10*1024*1024 {
		t.Errorf("expected maxSize 10MB, got %d", w.maxSize)
	}
	if w.maxBackups != 5 {
		t.Errorf("expected maxBackups 5, got %d", w.maxBackups)
	}
}

func TestRotationConfigEmptyFilename(t *testing.T) {
	if _, err := NewRotatingFileWriter(RotationConfig{}); err == nil {
		t.Error("expected error for empty filename")
	}
}
