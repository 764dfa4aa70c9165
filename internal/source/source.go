// Package source provides line-oriented byte sources for the NMEA reader:
// a serial port, a TCP receiver, a file, or stdin. The core never talks to
// the device; it just pulls lines from one of these.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"go.bug.st/serial"
)

// Lines is an ordered sequence of text lines. ReadLine blocks until a line
// is available; io.EOF means the source is exhausted (files), any other
// error is terminal (device unplugged, port error).
type Lines interface {
	ReadLine() (string, error)
	Close() error
}

type scanLines struct {
	s *bufio.Scanner
	c io.Closer
}

func (l *scanLines) ReadLine() (string, error) {
	if !l.s.Scan() {
		if err := l.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.s.Text(), nil
}

func (l *scanLines) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

func newScanLines(r io.Reader, c io.Closer) *scanLines {
	s := bufio.NewScanner(r)
	// NMEA sentences are < 82 chars; allow headroom for chatty receivers.
	s.Buffer(make([]byte, 0, 256), 4096)
	return &scanLines{s: s, c: c}
}

// OpenSerial opens device at the given baud rate. An empty device
// auto-detects the first likely USB GNSS port.
func OpenSerial(device string, baud int) (Lines, error) {
	if device == "" {
		d, err := autoDetect()
		if err != nil {
			return nil, err
		}
		device = d
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s at %d baud: %w", device, baud, err)
	}
	return newScanLines(port, port), nil
}

// OpenFile reads lines from a regular file; "-" selects stdin. Useful for
// replaying captured NMEA logs.
func OpenFile(path string) (Lines, error) {
	if path == "-" {
		return newScanLines(os.Stdin, nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newScanLines(f, f), nil
}

// OpenTCP connects to a receiver that serves NMEA over TCP (network GNSS
// devices, or a remote serial bridge).
func OpenTCP(ctx context.Context, addr string) (Lines, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return newScanLines(conn, conn), nil
}

// NewReader wraps any io.Reader as a Lines source. Intended for tests.
func NewReader(r io.Reader) Lines {
	return newScanLines(r, nil)
}

func autoDetect() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("serial port scan: %w", err)
	}
	for _, p := range ports {
		if strings.Contains(p, "ttyACM") || strings.Contains(p, "ttyUSB") ||
			strings.Contains(p, "usbserial") || strings.Contains(p, "usbmodem") {
			return p, nil
		}
	}
	return "", fmt.Errorf("gnss auto-detect failed: no USB serial port found")
}
