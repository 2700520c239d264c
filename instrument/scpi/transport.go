// Package scpi provides SCPI instrument drivers for the sweep controller's
// ports: a signal generator as the stimulus source and an oscilloscope as
// the digitizer. Drivers format command strings over a pluggable Transport,
// so raw-socket (LXI) and GPIB benches share the same code.
package scpi

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Transport issues SCPI commands and queries over an instrument link.
//
// A *prologix.Controller satisfies this for GPIB benches; TCPTransport
// covers instruments exposing a raw SCPI socket.
type Transport interface {
	Command(cmd string) error
	Query(cmd string) (string, error)
}

// TCPTransport is a line-oriented SCPI connection over a TCP socket, the
// raw-socket service most LXI instruments expose on port 5025.
type TCPTransport struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
}

// DialTCP connects to an instrument's raw SCPI socket. The timeout bounds
// the dial and every subsequent command or query.
func DialTCP(addr string, timeout time.Duration) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("scpi: dialing %s: %w", addr, err)
	}

	return &TCPTransport{
		conn:    conn,
		br:      bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Command writes a newline-terminated SCPI command.
func (t *TCPTransport) Command(cmd string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(t.conn, "%s\n", cmd); err != nil {
		return fmt.Errorf("scpi: writing command %q: %w", cmd, err)
	}

	return nil
}

// Query writes a command and reads one newline-terminated response.
func (t *TCPTransport) Query(cmd string) (string, error) {
	if err := t.Command(cmd); err != nil {
		return "", err
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return "", err
	}

	line, err := t.br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("scpi: reading response to %q: %w", cmd, err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Close closes the underlying socket.
func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
