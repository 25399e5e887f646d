// Package audioconv converts between the audio formats spoken by the
// assistant's collaborators: float32 sample buffers for capture and whisper,
// 16-bit PCM chunks for the WAV boundary, and whatever container a TTS
// provider answers with (wav, mp3, ogg-vorbis or opus).
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"

	"chief/pkg/wave"
)

// TargetRate is the sample rate every decoded stream is resampled to. It is
// what both the recorder and the whisper transcriber expect.
const TargetRate = 16000

// DecodeToChunk sniffs the container format of payload, decodes it, downmixes
// to mono and resamples to TargetRate, returning a 16-bit PCM chunk.
func DecodeToChunk(payload []byte) (wave.Chunk, error) {
	samples, err := DecodeToPCM16k(payload)
	if err != nil {
		return wave.Chunk{}, err
	}
	return wave.NewChunk(Float32ToPCM16(samples), TargetRate), nil
}

// DecodeToPCM16k decodes payload into mono float32 samples at TargetRate.
func DecodeToPCM16k(payload []byte) ([]float32, error) {
	if len(payload) < 4 {
		return nil, errors.New("audioconv: payload too short to sniff")
	}

	r := bytes.NewReader(payload)
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)
	_, _ = r.Seek(0, io.SeekStart)

	switch {
	case bytes.Equal(magic, []byte("RIFF")):
		return decodeWAVTo16k(r)
	case bytes.Equal(magic, []byte("OggS")):
		if s, err := decodeOggVorbisTo16k(bytes.NewReader(payload)); err == nil {
			return s, nil
		}
		if s, err := decodeOggOpusTo16k(bytes.NewReader(payload)); err == nil {
			return s, nil
		}
		return nil, errors.New("audioconv: cannot decode Ogg container as Vorbis or Opus")
	default:
		// mp3 has no fixed magic; try it last.
		if s, err := decodeMP3To16k(bytes.NewReader(payload)); err == nil {
			return s, nil
		}
		return nil, errors.New("audioconv: unsupported payload (expected wav, mp3, ogg-vorbis or opus)")
	}
}

func decodeWAVTo16k(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("audioconv: invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil || pb == nil || pb.Data == nil {
		if err == nil {
			err = errors.New("audioconv: empty wav")
		}
		return nil, err
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	x := intSliceToFloat32(pb.Data, bd)

	ch, sr := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}
	if ch > 1 {
		x = DownmixInterleaved(x, ch)
	}
	return ResampleLinear(x, sr, TargetRate), nil
}

func decodeMP3To16k(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, err
	}
	x := Int16SliceToFloat32(ints)
	x = DownmixInterleaved(x, 2) // the decoder always outputs stereo

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	return ResampleLinear(x, sr, TargetRate), nil
}

func decodeOggVorbisTo16k(r io.Reader) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("audioconv: invalid ogg/vorbis stream")
	}
	x := pcm
	if format.Channels > 1 {
		x = DownmixInterleaved(pcm, format.Channels)
	}
	return ResampleLinear(x, format.SampleRate, TargetRate), nil
}

func decodeOggOpusTo16k(rs io.ReadSeeker) ([]float32, error) {
	dec, err := popus.NewDecoder(rs)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	// Opus always decodes at 48k.
	var (
		pcm48 []float32
		buf   = make([]int16, 48000*ch/2)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm48 = append(pcm48, Int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(pcm48) == 0 {
		return nil, errors.New("audioconv: empty opus stream")
	}

	if ch > 1 {
		pcm48 = DownmixInterleaved(pcm48, ch)
	}
	return ResampleLinear(pcm48, 48000, TargetRate), nil
}

// Float32ToPCM16 packs samples in [-1, 1] into little-endian 16-bit PCM.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(clamp(float64(s), -1, 1) * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// PCM16ToFloat32 unpacks little-endian 16-bit PCM into samples in [-1, 1].
// A trailing odd byte is ignored.
func PCM16ToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(float64(v) / 32768.0)
	}
	return out
}

// PCM16ToInt16 unpacks little-endian 16-bit PCM into int16 samples.
func PCM16ToInt16(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// ChunkToFloat32 converts a PCM chunk of any supported width to mono float32
// samples at the chunk's own rate.
func ChunkToFloat32(c wave.Chunk) ([]float32, error) {
	var x []float32
	switch c.SampleWidth {
	case 2:
		x = PCM16ToFloat32(c.Data)
	case 1:
		x = make([]float32, len(c.Data))
		for i, b := range c.Data {
			// 8-bit WAV PCM is unsigned.
			x[i] = float32(int(b)-128) / 128.0
		}
	case 4:
		n := len(c.Data) / 4
		x = make([]float32, n)
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(c.Data[i*4:]))
			x[i] = float32(float64(v) / float64(1<<31))
		}
	default:
		return nil, fmt.Errorf("audioconv: unsupported sample width %d", c.SampleWidth)
	}
	if c.Channels > 1 {
		x = DownmixInterleaved(x, c.Channels)
	}
	return x, nil
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}
	return out
}

// Int16SliceToFloat32 rescales int16 samples into [-1, 1].
func Int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

// DownmixInterleaved averages interleaved channels into mono.
func DownmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// ResampleLinear converts in from inSR to outSR by linear interpolation.
func ResampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	outN := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := 0; i < outN; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
