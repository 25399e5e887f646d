package wave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
	}{
		{
			name:  "mono 16-bit",
			chunk: NewChunk([]byte{0x01, 0x02, 0x03, 0x04}, 16000),
		},
		{
			name:  "8-bit unsigned",
			chunk: Chunk{Data: []byte{0x00, 0x80, 0xFF}, SampleRate: 8000, Channels: 1, SampleWidth: 1},
		},
		{
			name:  "24-bit stereo",
			chunk: Chunk{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, SampleRate: 44100, Channels: 2, SampleWidth: 3},
		},
		{
			name:  "32-bit",
			chunk: Chunk{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}, SampleRate: 48000, Channels: 1, SampleWidth: 4},
		},
		{
			name:  "empty payload",
			chunk: NewChunk(nil, 16000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tt.chunk.ToWAV()
			require.NoError(t, err)

			got, err := FromWAV(payload)
			require.NoError(t, err)

			assert.Equal(t, tt.chunk.SampleRate, got.SampleRate)
			assert.Equal(t, tt.chunk.Channels, got.Channels)
			assert.Equal(t, tt.chunk.SampleWidth, got.SampleWidth)
			if len(tt.chunk.Data) == 0 {
				assert.Empty(t, got.Data)
			} else {
				assert.Equal(t, tt.chunk.Data, got.Data)
			}
		})
	}
}

func TestToWAVRejectsBadFormat(t *testing.T) {
	_, err := Chunk{Data: []byte{1}, SampleRate: 0, Channels: 1, SampleWidth: 2}.ToWAV()
	assert.Error(t, err)

	_, err = Chunk{Data: []byte{1}, SampleRate: 16000, Channels: 0, SampleWidth: 2}.ToWAV()
	assert.Error(t, err)

	_, err = Chunk{Data: []byte{1}, SampleRate: 16000, Channels: 1, SampleWidth: 5}.ToWAV()
	assert.Error(t, err)
}

func TestFromWAVRejectsGarbage(t *testing.T) {
	_, err := FromWAV(nil)
	assert.Error(t, err)

	_, err = FromWAV([]byte("definitely not a wav file"))
	assert.Error(t, err)

	// Valid header but truncated data chunk.
	payload, err := NewChunk([]byte{1, 2, 3, 4}, 16000).ToWAV()
	assert.NoError(t, err)
	_, err = FromWAV(payload[:len(payload)-2])
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	// 16000 frames of mono 16-bit at 16 kHz is exactly one second.
	c := NewChunk(make([]byte, 32000), 16000)
	assert.Equal(t, time.Second, c.Duration())

	assert.Equal(t, time.Duration(0), Chunk{}.Duration())
}

func TestEmpty(t *testing.T) {
	assert.True(t, NewChunk(nil, 16000).Empty())
	assert.False(t, NewChunk([]byte{0, 0}, 16000).Empty())
}
