// Package speech implements the network STT and TTS collaborators against
// the ElevenLabs HTTP API. Credentials are validated at construction time so
// a misconfigured backend fails during setup, not mid-interaction.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"chief/pkg/audioconv"
	"chief/pkg/wave"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// STTConfig configures an ElevenLabs speech-to-text client.
type STTConfig struct {
	APIKey   string
	ModelID  string // default "scribe_v1"
	Language string // optional hint, e.g. "en"
	BaseURL  string
	Timeout  time.Duration
	Client   *http.Client // optional, e.g. a SOCKS-proxied client
}

// STTClient converts captured audio into text.
type STTClient struct {
	cfg STTConfig
}

func NewSTTClient(cfg STTConfig) (*STTClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("speech: api key is required for ElevenLabs STT")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "scribe_v1"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &STTClient{cfg: cfg}, nil
}

// STTFromEnv builds a client from ELEVENLABS_API_KEY.
func STTFromEnv() (*STTClient, error) {
	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		return nil, errors.New("speech: ELEVENLABS_API_KEY is not set")
	}
	return NewSTTClient(STTConfig{APIKey: key})
}

// Transcribe uploads the chunk as a WAV file and returns the recognized text.
func (c *STTClient) Transcribe(ctx context.Context, chunk wave.Chunk) (string, error) {
	wavBytes, err := chunk.ToWAV()
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model_id", c.cfg.ModelID); err != nil {
		return "", err
	}
	if c.cfg.Language != "" {
		if err := mw.WriteField("language_code", c.cfg.Language); err != nil {
			return "", err
		}
	}
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(wavBytes); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt request failed: %s", resp.Status)
	}

	var payload struct {
		Text          string `json:"text"`
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	if payload.Text != "" {
		return payload.Text, nil
	}
	return payload.Transcription, nil
}

// TTSConfig configures an ElevenLabs text-to-speech client.
type TTSConfig struct {
	APIKey  string
	VoiceID string
	ModelID string // default "eleven_multilingual_v2"
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// TTSClient converts response text into audio.
type TTSClient struct {
	cfg TTSConfig
}

func NewTTSClient(cfg TTSConfig) (*TTSClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("speech: api key is required for ElevenLabs TTS")
	}
	if cfg.VoiceID == "" {
		return nil, errors.New("speech: voice id is required for ElevenLabs TTS")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &TTSClient{cfg: cfg}, nil
}

// TTSFromEnv builds a client from ELEVENLABS_API_KEY and ELEVENLABS_VOICE_ID.
func TTSFromEnv() (*TTSClient, error) {
	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		return nil, errors.New("speech: ELEVENLABS_API_KEY is not set")
	}
	voice := os.Getenv("ELEVENLABS_VOICE_ID")
	if voice == "" {
		return nil, errors.New("speech: ELEVENLABS_VOICE_ID is not set")
	}
	return NewTTSClient(TTSConfig{APIKey: key, VoiceID: voice})
}

// Synthesize requests audio for text and decodes it to a PCM chunk. The API
// may answer with wav or mp3 depending on plan and model; both decode.
func (c *TTSClient) Synthesize(ctx context.Context, text string) (wave.Chunk, error) {
	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": c.cfg.ModelID,
	})
	if err != nil {
		return wave.Chunk{}, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, c.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return wave.Chunk{}, err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return wave.Chunk{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wave.Chunk{}, fmt.Errorf("tts request failed: %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return wave.Chunk{}, fmt.Errorf("read tts response: %w", err)
	}

	chunk, err := audioconv.DecodeToChunk(audio)
	if err != nil {
		return wave.Chunk{}, fmt.Errorf("decode tts audio: %w", err)
	}
	return chunk, nil
}
