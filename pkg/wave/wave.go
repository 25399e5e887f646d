// Package wave holds the PCM value type that crosses the capture, STT, TTS
// and playback boundaries, plus its WAV container serialization.
//
// The container round-trip is byte-exact: ToWAV followed by FromWAV recovers
// the PCM payload and all metadata fields unchanged for any sample width.
package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Chunk is raw PCM audio with the metadata required to interpret it.
type Chunk struct {
	Data        []byte
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
}

// NewChunk returns a mono 16-bit chunk, the format every capture and
// synthesis path in this repo normalizes to.
func NewChunk(data []byte, sampleRate int) Chunk {
	return Chunk{Data: data, SampleRate: sampleRate, Channels: 1, SampleWidth: 2}
}

func (c Chunk) Empty() bool { return len(c.Data) == 0 }

// Duration reports the playback length of the payload.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 || c.SampleWidth <= 0 {
		return 0
	}
	frames := len(c.Data) / (c.Channels * c.SampleWidth)
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

const (
	riffHeaderLen = 44
	pcmFormatTag  = 1
)

// ToWAV wraps the PCM payload in a RIFF/WAVE container. The payload bytes are
// copied verbatim into the data chunk, so uncommon widths (8-bit, 24-bit)
// survive without requantization.
func (c Chunk) ToWAV() ([]byte, error) {
	if c.SampleRate <= 0 {
		return nil, errors.New("wave: sample rate must be positive")
	}
	if c.Channels <= 0 {
		return nil, errors.New("wave: channel count must be positive")
	}
	if c.SampleWidth <= 0 || c.SampleWidth > 4 {
		return nil, fmt.Errorf("wave: unsupported sample width %d", c.SampleWidth)
	}

	var buf bytes.Buffer
	buf.Grow(riffHeaderLen + len(c.Data))

	blockAlign := c.Channels * c.SampleWidth
	byteRate := c.SampleRate * blockAlign

	buf.WriteString("RIFF")
	writeU32(&buf, uint32(36+len(c.Data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeU32(&buf, 16)
	writeU16(&buf, pcmFormatTag)
	writeU16(&buf, uint16(c.Channels))
	writeU32(&buf, uint32(c.SampleRate))
	writeU32(&buf, uint32(byteRate))
	writeU16(&buf, uint16(blockAlign))
	writeU16(&buf, uint16(c.SampleWidth*8))

	buf.WriteString("data")
	writeU32(&buf, uint32(len(c.Data)))
	buf.Write(c.Data)

	return buf.Bytes(), nil
}

// FromWAV parses a RIFF/WAVE container produced by ToWAV or any PCM-encoded
// WAV file and returns the contained payload and format.
func FromWAV(payload []byte) (Chunk, error) {
	if len(payload) < 12 || string(payload[0:4]) != "RIFF" || string(payload[8:12]) != "WAVE" {
		return Chunk{}, errors.New("wave: not a RIFF/WAVE payload")
	}

	var (
		c       Chunk
		gotFmt  bool
		gotData bool
	)

	rest := payload[12:]
	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		body := rest[8:]
		if size > len(body) {
			return Chunk{}, fmt.Errorf("wave: truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Chunk{}, errors.New("wave: short fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(body[0:2]); tag != pcmFormatTag {
				return Chunk{}, fmt.Errorf("wave: unsupported format tag %d", tag)
			}
			c.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			c.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			c.SampleWidth = int(binary.LittleEndian.Uint16(body[14:16])) / 8
			gotFmt = true
		case "data":
			c.Data = append([]byte(nil), body[:size]...)
			gotData = true
		}

		// Chunks are word-aligned.
		if size%2 == 1 {
			size++
		}
		if 8+size > len(rest) {
			break
		}
		rest = rest[8+size:]
	}

	if !gotFmt {
		return Chunk{}, errors.New("wave: missing fmt chunk")
	}
	if !gotData {
		return Chunk{}, errors.New("wave: missing data chunk")
	}
	return c, nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
