package mic

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

// Initialize starts PortAudio once per process.
func Initialize() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// Terminate balances a successful Initialize.
func Terminate() {
	if initErr != nil {
		return
	}
	termOnce.Do(func() {
		_ = portaudio.Terminate()
	})
}

// Device describes one PortAudio device.
type Device struct {
	Name            string
	HostAPI         string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	IsDefaultInput  bool
}

// ListDevices returns all devices sorted by host API and name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}
	defaultIndex := defaultInputIndex()

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:            d.Name,
				HostAPI:         host.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				IsDefaultInput:  d.Index == defaultIndex,
			})
		}
	}
	slices.SortFunc(devices, func(a, b Device) int {
		return cmp.Or(cmp.Compare(a.HostAPI, b.HostAPI), cmp.Compare(a.Name, b.Name))
	})
	return devices, nil
}

func defaultInputIndex() int {
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def.Index
	}
	return -1
}

// findDevice returns the input device whose name contains name, or the best
// input device when name is empty.
func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if name != "" {
		if d := matchDevice(devices, name); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("audio input device %q not found", name)
	}
	if d := bestInput(devices, defaultInputIndex()); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("no audio input device found")
}

func matchDevice(devices []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	name = strings.ToLower(name)
	for _, d := range devices {
		if d != nil && d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), name) {
			return d
		}
	}
	return nil
}

// bestInput ranks input-capable devices: the system default first, then
// microphones over loopback or monitor sources, then by name.
func bestInput(devices []*portaudio.DeviceInfo, defaultIndex int) *portaudio.DeviceInfo {
	score := func(d *portaudio.DeviceInfo) int {
		s := 0
		if d.Index == defaultIndex {
			s += 100
		}
		lower := strings.ToLower(d.Name)
		if strings.Contains(lower, "mic") {
			s += 20
		}
		for _, kw := range []string{"monitor", "loopback", "stereo mix"} {
			if strings.Contains(lower, kw) {
				s -= 10
				break
			}
		}
		return s
	}

	var inputs []*portaudio.DeviceInfo
	for _, d := range devices {
		if d != nil && d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	if len(inputs) == 0 {
		return nil
	}
	slices.SortStableFunc(inputs, func(a, b *portaudio.DeviceInfo) int {
		return cmp.Or(cmp.Compare(score(b), score(a)), cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)))
	})
	return inputs[0]
}
