package link

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Serial port settings for the Arduino-class device.
const (
	DefaultBaud = 9600
	// settleDelay lets the board finish its reset after the port opens.
	settleDelay = 2 * time.Second
)

var (
	ErrNoPort        = errors.New("no device port found")
	ErrMultiplePorts = errors.New("multiple candidate ports found, specify one")
)

// usb-serial device name prefixes per platform.
var portPrefixes = []string{"/dev/cu.usbserial", "/dev/ttyUSB", "/dev/ttyACM", "COM"}

// DiscoverPort enumerates serial ports and returns the single usb-serial
// candidate. Zero or more than one candidate is an error: the caller must
// name the port explicitly rather than have the link guess.
func DiscoverPort() (string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("listing serial ports: %w", err)
	}
	var candidates []string
	for _, n := range names {
		for _, prefix := range portPrefixes {
			if strings.HasPrefix(n, prefix) {
				candidates = append(candidates, n)
				break
			}
		}
	}
	switch len(candidates) {
	case 0:
		return "", ErrNoPort
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMultiplePorts, strings.Join(candidates, ", "))
	}
}

// SerialStream adapts a real serial port to the Stream interface.
type SerialStream struct {
	port serial.Port
}

// OpenSerial opens the named port, or discovers one when name is empty, and
// waits for the device to settle.
func OpenSerial(name string, baud int) (*SerialStream, error) {
	if name == "" {
		discovered, err := DiscoverPort()
		if err != nil {
			return nil, err
		}
		name = discovered
	}
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(ackPollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("configuring %s: %w", name, err)
	}
	time.Sleep(settleDelay)
	return &SerialStream{port: port}, nil
}

func (s *SerialStream) Write(p []byte) error {
	_, err := s.port.Write(p)
	return err
}

// ReadLine accumulates bytes until a newline or until the port read times
// out, returning whatever arrived. An empty return means nothing is pending.
func (s *SerialStream) ReadLine() ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			return line, err
		}
		if n == 0 { // read timeout, nothing more pending
			return line, nil
		}
		if buf[0] == '\n' {
			return line, nil
		}
		line = append(line, buf[0])
	}
}

func (s *SerialStream) Flush() error { return s.port.Drain() }

func (s *SerialStream) Close() error { return s.port.Close() }
