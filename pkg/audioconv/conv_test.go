package audioconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chief/pkg/wave"
)

func TestFloat32PCM16RoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 0.999, -0.999}

	data := Float32ToPCM16(in)
	require.Len(t, data, len(in)*2)

	out := PCM16ToFloat32(data)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1.0/32768.0)
	}
}

func TestFloat32ToPCM16Clamps(t *testing.T) {
	data := Float32ToPCM16([]float32{2.0, -2.0})
	out := PCM16ToInt16(data)
	assert.Equal(t, int16(32767), out[0])
	assert.Equal(t, int16(-32767), out[1])
}

func TestPCM16ToFloat32IgnoresTrailingByte(t *testing.T) {
	out := PCM16ToFloat32([]byte{0x00, 0x00, 0xFF})
	assert.Len(t, out, 1)
}

func TestChunkToFloat32Widths(t *testing.T) {
	// 16-bit: one full-scale sample.
	c16 := wave.NewChunk(Float32ToPCM16([]float32{0.5}), 16000)
	x, err := ChunkToFloat32(c16)
	require.NoError(t, err)
	require.Len(t, x, 1)
	assert.InDelta(t, 0.5, x[0], 1.0/32768.0)

	// 8-bit unsigned: 128 is silence, 255 is near full scale.
	c8 := wave.Chunk{Data: []byte{128, 255, 0}, SampleRate: 8000, Channels: 1, SampleWidth: 1}
	x, err = ChunkToFloat32(c8)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, x[0], 1e-6)
	assert.InDelta(t, 0.99, x[1], 0.01)
	assert.InDelta(t, -1.0, x[2], 1e-6)

	// Unsupported width errors.
	_, err = ChunkToFloat32(wave.Chunk{Data: []byte{1, 2, 3}, SampleRate: 8000, Channels: 1, SampleWidth: 3})
	assert.Error(t, err)
}

func TestChunkToFloat32DownmixesStereo(t *testing.T) {
	stereo := Float32ToPCM16([]float32{0.5, -0.5, 1.0, 0.0})
	c := wave.Chunk{Data: stereo, SampleRate: 16000, Channels: 2, SampleWidth: 2}

	x, err := ChunkToFloat32(c)
	require.NoError(t, err)
	require.Len(t, x, 2)
	assert.InDelta(t, 0.0, x[0], 1e-4)
	assert.InDelta(t, 0.5, x[1], 1e-4)
}

func TestDownmixInterleaved(t *testing.T) {
	mono := DownmixInterleaved([]float32{1, 0, 0.5, 0.5}, 2)
	require.Len(t, mono, 2)
	assert.InDelta(t, 0.5, mono[0], 1e-6)
	assert.InDelta(t, 0.5, mono[1], 1e-6)

	// Single channel passes through untouched.
	in := []float32{1, 2, 3}
	assert.Equal(t, in, DownmixInterleaved(in, 1))
}

func TestResampleLinear(t *testing.T) {
	in := make([]float32, 32000)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 32000))
	}

	out := ResampleLinear(in, 32000, 16000)
	assert.InDelta(t, float64(len(in))/2, float64(len(out)), 2)

	// Same-rate input is returned as-is.
	same := ResampleLinear(in, 16000, 16000)
	assert.Equal(t, len(in), len(same))
}

func TestDecodeToChunkWAV(t *testing.T) {
	// Mono 16-bit at 16 kHz survives the wav decoder without resampling.
	samples := []float32{0, 0.25, -0.25, 0.5}
	payload, err := wave.NewChunk(Float32ToPCM16(samples), TargetRate).ToWAV()
	require.NoError(t, err)

	chunk, err := DecodeToChunk(payload)
	require.NoError(t, err)
	assert.Equal(t, TargetRate, chunk.SampleRate)
	assert.Equal(t, 1, chunk.Channels)
	assert.Equal(t, 2, chunk.SampleWidth)

	got := PCM16ToFloat32(chunk.Data)
	require.Len(t, got, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], got[i], 2.0/32768.0)
	}
}

func TestDecodeToChunkRejectsGarbage(t *testing.T) {
	_, err := DecodeToChunk([]byte{1, 2})
	assert.Error(t, err)

	_, err = DecodeToChunk([]byte("this is not audio data at all, not even close"))
	assert.Error(t, err)
}
