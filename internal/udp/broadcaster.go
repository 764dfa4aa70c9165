// Package udp sends the latest rendered fix to a UDP destination on a fixed
// interval. Consumers like moving-map displays just listen for datagrams.
package udp

import (
	"context"
	"fmt"
	"net"
	"time"
)

// udpConn is the part of *net.UDPConn the broadcaster needs; tests swap in
// a fake.
type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)
type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Broadcaster struct {
	dest string
	conn udpConn
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	dial := func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	}
	return newBroadcaster(dest, net.ResolveUDPAddr, dial)
}

func newBroadcaster(dest string, resolve resolveFunc, dial dialFunc) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Broadcaster{
		dest: dest,
		conn: conn,
	}, nil
}

// Send writes one datagram. Empty payloads are skipped.
func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

// Run sends payload() every interval until ctx is canceled. A nil or empty
// payload skips the tick, so nothing is sent before the first fix emission.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration, payload func() []byte) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Send(payload()); err != nil {
				return fmt.Errorf("udp send to %s: %w", b.dest, err)
			}
		}
	}
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
