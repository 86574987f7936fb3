// Package audio frames raw PCM uploads as WAV files.
package audio

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

const headerSize = 44

// pcmFormatTag is the fmt chunk audio format for uncompressed linear PCM.
const pcmFormatTag = 1

// Format describes the layout of a raw PCM buffer.
type Format struct {
	Channels    int
	SampleWidth int // bytes per sample
	SampleRate  int // Hz
}

// DefaultFormat is the layout recorded by the capture clients: mono, 16-bit, 16 kHz.
var DefaultFormat = Format{Channels: 1, SampleWidth: 2, SampleRate: 16000}

// header is the canonical 44-byte RIFF/WAVE header.
type header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Info is the header metadata of a parsed WAV file.
type Info struct {
	Channels      int    `json:"channels"`
	SampleWidth   int    `json:"sample_width"`
	SampleRate    int    `json:"sample_rate"`
	BitsPerSample int    `json:"bits_per_sample"`
	DataSize      uint32 `json:"data_size_bytes"`
}

// Duration is the playback length implied by the data chunk size.
func (i *Info) Duration() time.Duration {
	frameSize := i.Channels * i.SampleWidth
	if frameSize == 0 || i.SampleRate == 0 {
		return 0
	}
	frames := int64(i.DataSize) / int64(frameSize)
	return time.Duration(frames) * time.Second / time.Duration(i.SampleRate)
}

func (f Format) validate() error {
	if f.Channels <= 0 {
		return errors.Errorf("channels must be positive, got %d", f.Channels)
	}
	if f.SampleWidth <= 0 {
		return errors.Errorf("sample width must be positive, got %d", f.SampleWidth)
	}
	if f.SampleRate <= 0 {
		return errors.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	return nil
}

// Frame wraps pcm in a WAV container described by f. The payload is copied
// verbatim: no resampling, and a length that is not a whole number of frames
// is written through unchanged.
func Frame(pcm []byte, f Format) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pcm format")
	}

	dataSize := uint32(len(pcm))
	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   pcmFormatTag,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * f.Channels * f.SampleWidth),
		BlockAlign:    uint16(f.Channels * f.SampleWidth),
		BitsPerSample: uint16(f.SampleWidth * 8),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, errors.Wrap(err, "failed to write WAV header")
	}
	if _, err := buf.Write(pcm); err != nil {
		return nil, errors.Wrap(err, "failed to write WAV data")
	}
	return buf.Bytes(), nil
}

// FrameDefault frames pcm using DefaultFormat.
func FrameDefault(pcm []byte) ([]byte, error) {
	return Frame(pcm, DefaultFormat)
}

// Parse reads a canonical 44-byte-header WAV file and returns its metadata
// and the data chunk payload.
func Parse(wav []byte) (*Info, []byte, error) {
	if len(wav) < headerSize {
		return nil, nil, errors.Errorf("WAV data too short: need at least %d bytes, got %d", headerSize, len(wav))
	}

	var h header
	if err := binary.Read(bytes.NewReader(wav[:headerSize]), binary.LittleEndian, &h); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read WAV header")
	}

	switch {
	case string(h.ChunkID[:]) != "RIFF":
		return nil, nil, errors.New("invalid WAV file: missing RIFF header")
	case string(h.Format[:]) != "WAVE":
		return nil, nil, errors.New("invalid WAV file: missing WAVE format")
	case string(h.Subchunk1ID[:]) != "fmt ":
		return nil, nil, errors.New("invalid WAV file: missing fmt chunk")
	case string(h.Subchunk2ID[:]) != "data":
		return nil, nil, errors.New("invalid WAV file: missing data chunk")
	case h.AudioFormat != pcmFormatTag:
		return nil, nil, errors.Errorf("unsupported audio format: %d (only PCM is supported)", h.AudioFormat)
	}

	end := headerSize + int(h.Subchunk2Size)
	if end > len(wav) {
		return nil, nil, errors.Errorf("data chunk declares %d bytes, only %d present", h.Subchunk2Size, len(wav)-headerSize)
	}

	info := &Info{
		Channels:      int(h.NumChannels),
		SampleWidth:   int(h.BitsPerSample) / 8,
		SampleRate:    int(h.SampleRate),
		BitsPerSample: int(h.BitsPerSample),
		DataSize:      h.Subchunk2Size,
	}
	return info, wav[headerSize:end], nil
}
