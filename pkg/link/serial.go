package link

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"

	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

const (
	// DefaultBaudRate matches the controller firmware UART.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default depth of the report channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a connection to the controller over a serial byte stream.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	codec     *protocol.Codec
	reports   chan protocol.Report
	diags     chan protocol.Frame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial link for the specified port, baud rate, and
// buffer size. Zero values fall back to the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		codec:    protocol.New(0, 0, 0),
		reports:  make(chan protocol.Report, bufSize),
		diags:    make(chan protocol.Frame, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readFrames()

	return nil
}

// Close closes the connection and stops reading frames.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Reports returns the channel of decoded report frames. The channel closes
// when the link shuts down.
func (d *Serial) Reports() <-chan protocol.Report {
	return d.reports
}

// Diagnostics returns the channel of error/debug frames.
func (d *Serial) Diagnostics() <-chan protocol.Frame {
	return d.diags
}

// Send encodes and writes one command line.
func (d *Serial) Send(cmd Command) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	data, err := d.codec.EncodeCommand(cmd.Mode, cmd.TargetValvePos0,
		cmd.TargetValvePos1, cmd.FlowLimit, cmd.ReportIntervalMillis)
	if err != nil {
		return err
	}

	if _, err := d.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	return nil
}

// IsConnected returns whether the link is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames reads lines from the serial port, decodes them, and routes
// reports and diagnostics to their channels.
func (d *Serial) readFrames() {
	defer close(d.reports)
	defer close(d.diags)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			if !d.routeLine(line) {
				return
			}
		}
	}
}

// routeLine decodes one line and delivers it. Returns false on shutdown.
func (d *Serial) routeLine(line []byte) bool {
	frame, err := protocol.DecodeFrame(line)
	if err != nil {
		log.Printf("Failed to parse line '%s': %v", line, err)
		return true
	}

	if frame.Report != nil {
		select {
		case d.reports <- *frame.Report:
		case <-d.ctx.Done():
			return false
		default:
			// Channel full, log and skip
			log.Printf("Reports channel full, dropping report")
		}
		return true
	}

	select {
	case d.diags <- frame:
	case <-d.ctx.Done():
		return false
	default:
		log.Printf("Diagnostics channel full, dropping frame")
	}
	return true
}
