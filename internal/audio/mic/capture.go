// Package mic records fixed-size mono windows from PortAudio input devices.
package mic

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// Capture records from a PortAudio input device and delivers fixed-size mono
// windows on a channel. Windows are dropped, not queued, when the consumer
// falls behind.
type Capture struct {
	stream     stream
	sampleRate int
	channels   int
	device     *portaudio.DeviceInfo

	windowLength int
	pending      []int16
	windows      chan []int16
	dropped      atomic.Int64
	closeOnce    sync.Once
}

// stream is the part of *portaudio.Stream that Close drives.
type stream interface {
	Stop() error
	Close() error
}

// CaptureConfig controls how a Capture is opened.
type CaptureConfig struct {
	DeviceName   string
	WindowLength int
	Channels     int
	// Backlog is how many complete windows may wait for the consumer.
	Backlog int
}

const defaultBacklog = 64

// NewCapture opens and starts an input stream. Initialize must have been
// called first.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.WindowLength <= 0 {
		return nil, fmt.Errorf("capture: window length must be positive, got %d", cfg.WindowLength)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = defaultBacklog
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	cfg.Channels = min(cfg.Channels, device.MaxInputChannels)

	c := newCapture(int(device.DefaultSampleRate), cfg.Channels, cfg.WindowLength, cfg.Backlog)
	c.device = device

	s, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: cfg.WindowLength,
	}, c.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c.stream = s

	if err := s.Start(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return c, nil
}

func newCapture(sampleRate, channels, windowLength, backlog int) *Capture {
	return &Capture{
		sampleRate:   sampleRate,
		channels:     channels,
		windowLength: windowLength,
		pending:      make([]int16, 0, 2*windowLength),
		windows:      make(chan []int16, backlog),
	}
}

// SampleRate returns the stream sample rate in Hz.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

// Device returns the device being recorded.
func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// Windows returns the channel of complete windows. It is closed by Close.
func (c *Capture) Windows() <-chan []int16 {
	return c.windows
}

// Dropped returns how many windows were discarded because the consumer
// was not keeping up.
func (c *Capture) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops the stream and closes the window channel. When the stream
// fails to stop the callback may still be running, so the channel is left
// open and the error returned.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.stream != nil {
			if stopErr := c.stream.Stop(); stopErr != nil && !isInvalidStreamState(stopErr) {
				err = fmt.Errorf("stop stream: %w", stopErr)
				return
			}
			if closeErr := c.stream.Close(); closeErr != nil {
				err = fmt.Errorf("close stream: %w", closeErr)
			}
		}
		close(c.windows)
	})
	return err
}

// process runs on the PortAudio callback thread.
func (c *Capture) process(in []int16) {
	if c.channels > 1 {
		for i := 0; i+c.channels <= len(in); i += c.channels {
			sum := 0
			for _, v := range in[i : i+c.channels] {
				sum += int(v)
			}
			c.pending = append(c.pending, int16(sum/c.channels))
		}
	} else {
		c.pending = append(c.pending, in...)
	}

	for len(c.pending) >= c.windowLength {
		window := make([]int16, c.windowLength)
		copy(window, c.pending)
		select {
		case c.windows <- window:
		default:
			c.dropped.Add(1)
		}
		c.pending = append(c.pending[:0], c.pending[c.windowLength:]...)
	}
}

// isInvalidStreamState reports whether err comes from stopping a stream that
// is already stopped.
func isInvalidStreamState(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
