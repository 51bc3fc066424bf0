package serialport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Defaults for the board's USB CDC link.
const (
	DefaultBaud = 115200
	readTimeout = 100 * time.Millisecond

	// maxPending bounds the partial-line buffer. A flooding or framing
	// fault drops the buffer rather than growing it; the protocol is
	// lossy anyway.
	maxPending = 4096
)

// ErrTimeout reports that the read timeout elapsed before a complete
// line arrived. Read loops treat it as an idle tick, not a failure.
var ErrTimeout = errors.New("serialport: read timeout")

// ioPort is the subset of serial.Port the connection uses.
type ioPort interface {
	io.ReadWriteCloser
}

// Conn is a line-oriented connection to the button board.
type Conn struct {
	port    ioPort
	path    string
	pending []byte
	readBuf [256]byte
}

// Open opens the device at 8N1 with a bounded read timeout so read
// loops never block indefinitely.
func Open(path string, baud int) (*Conn, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return &Conn{port: port, path: path}, nil
}

// Path returns the device path the connection was opened on.
func (c *Conn) Path() string { return c.path }

// ReadLine returns the next newline-terminated line without its
// terminator, with any trailing CR stripped. It returns ErrTimeout when
// the port stays quiet past the read timeout; partial input is kept for
// the next call.
func (c *Conn) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := string(c.pending[:i])
			c.pending = c.pending[i+1:]
			return strings.TrimSuffix(line, "\r"), nil
		}
		if len(c.pending) > maxPending {
			c.pending = c.pending[:0]
		}
		n, err := c.port.Read(c.readBuf[:])
		if err != nil {
			return "", err
		}
		if n == 0 {
			// go.bug.st/serial signals a read timeout as (0, nil).
			return "", ErrTimeout
		}
		c.pending = append(c.pending, c.readBuf[:n]...)
	}
}

// WriteLine sends one protocol line, appending the terminator.
func (c *Conn) WriteLine(line string) error {
	if _, err := c.port.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write to %s: %w", c.path, err)
	}
	return nil
}

// Close closes the underlying port.
func (c *Conn) Close() error {
	return c.port.Close()
}
