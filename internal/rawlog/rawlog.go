// Package rawlog appends checksum-valid NMEA sentences to a log file. Every
// valid line is written, including ones the decoder later skips, so
// suppressed sentences stay diagnosable.
package rawlog

import (
	"bufio"
	"fmt"
	"os"
)

type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Open opens path for appending, creating it if needed.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rawlog open %s: %w", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteLine appends one sentence plus a newline and flushes, so a tail -f on
// the log keeps up with the stream.
func (w *Writer) WriteLine(line string) error {
	if _, err := w.w.WriteString(line); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
