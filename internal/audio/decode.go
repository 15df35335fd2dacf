package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for inputs that no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeError reports a failure while opening or decoding an audio file.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FileSource decodes an audio file into mono 16-bit samples. Multi-channel
// frames are averaged; other bit depths are rescaled to 16 bits.
type FileSource struct {
	path     string
	format   string
	file     *os.File
	rate     int
	channels int
	depth    int

	// pcm reads raw interleaved samples; io.EOF marks the end.
	pcm   func(dst []int) (int, error)
	raw   []int
	carry int
}

// OpenFile opens a .wav or .mp3 file, picking the decoder by extension.
func OpenFile(path string) (*FileSource, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "wav", "wave", "mp3":
	default:
		return nil, &DecodeError{Path: path, Format: format, Err: ErrUnsupportedFormat}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	src := &FileSource{path: path, format: format, file: f}
	if format == "mp3" {
		err = src.openMP3()
	} else {
		err = src.openWAV()
	}
	if err != nil {
		_ = f.Close()
		return nil, &DecodeError{Path: path, Format: format, Err: err}
	}
	return src, nil
}

func (s *FileSource) openWAV() error {
	dec := wav.NewDecoder(s.file)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return err
		}
		return errors.New("not a valid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return fmt.Errorf("%w: wav encoding %d is not integer PCM", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	s.rate = int(dec.SampleRate)
	s.channels = int(dec.NumChans)
	s.depth = int(dec.BitDepth)
	switch s.depth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, s.depth)
	}
	if s.channels <= 0 {
		return errors.New("wav declares no channels")
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: s.channels, SampleRate: s.rate},
		SourceBitDepth: s.depth,
	}
	s.pcm = func(dst []int) (int, error) {
		buf.Data = dst
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return n, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	return nil
}

func (s *FileSource) openMP3() error {
	dec, err := mp3.NewDecoder(s.file)
	if err != nil {
		return err
	}
	// go-mp3 always produces 16-bit little-endian stereo.
	s.rate = dec.SampleRate()
	s.channels = 2
	s.depth = 16

	var scratch []byte
	s.pcm = func(dst []int) (int, error) {
		if cap(scratch) < len(dst)*2 {
			scratch = make([]byte, len(dst)*2)
		}
		b := scratch[:len(dst)*2]
		n, err := io.ReadFull(dec, b)
		samples := n / 2
		for i := 0; i < samples; i++ {
			dst[i] = int(int16(binary.LittleEndian.Uint16(b[2*i:])))
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
		}
		if samples == 0 && err == nil {
			err = io.EOF
		}
		return samples, err
	}
	return nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *FileSource) SampleRate() int { return s.rate }

// Channels returns the channel count of the file before mixdown.
func (s *FileSource) Channels() int { return s.channels }

// BitDepth returns the bits per sample of the file.
func (s *FileSource) BitDepth() int { return s.depth }

// Read decodes up to len(buf) mono samples.
func (s *FileSource) Read(buf []int16) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	want := len(buf) * s.channels
	if cap(s.raw) < want {
		raw := make([]int, want)
		copy(raw, s.raw[:s.carry])
		s.raw = raw
	}
	raw := s.raw[:want]

	filled := s.carry
	var readErr error
	for filled < want {
		n, err := s.pcm(raw[filled:])
		filled += n
		if err != nil {
			readErr = err
			break
		}
	}

	frames := filled / s.channels
	for i := 0; i < frames; i++ {
		buf[i] = s.mix(raw[i*s.channels : (i+1)*s.channels])
	}
	// Keep a partial frame for the next call.
	s.carry = copy(raw, raw[frames*s.channels:filled])

	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return frames, &DecodeError{Path: s.path, Format: s.format, Err: readErr}
	}
	if frames == 0 && readErr != nil {
		return 0, io.EOF
	}
	return frames, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

func (s *FileSource) mix(frame []int) int16 {
	sum := 0
	for _, v := range frame {
		sum += scaleTo16(v, s.depth)
	}
	return int16(sum / len(frame))
}

func scaleTo16(v, depth int) int {
	switch depth {
	case 8:
		// 8-bit wav is unsigned.
		v = (v - 128) << 8
	case 24:
		v >>= 8
	case 32:
		v >>= 16
	}
	return max(math.MinInt16, min(math.MaxInt16, v))
}
