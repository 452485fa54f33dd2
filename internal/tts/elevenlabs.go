package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"willybot/pkg/errors"
)

const (
	// DefaultBaseURL is the ElevenLabs API endpoint
	DefaultBaseURL = "https://api.elevenlabs.io"

	// maxDetailLen bounds the provider error excerpt surfaced to the user
	maxDetailLen = 180

	requestTimeout = 120 * time.Second
)

// ElevenLabsConfig holds credentials and synthesis parameters.
type ElevenLabsConfig struct {
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string
	BaseURL      string
}

// ElevenLabsClient synthesizes speech over the ElevenLabs HTTP API.
type ElevenLabsClient struct {
	cfg    ElevenLabsConfig
	http   *http.Client
	logger *zap.Logger
}

// NewElevenLabsClient creates a client with provider defaults filled in.
func NewElevenLabsClient(cfg ElevenLabsConfig, logger *zap.Logger) *ElevenLabsClient {
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = "opus_48000_64"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &ElevenLabsClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize posts text to the provider and returns the audio bytes.
//
// Success requires a 2xx status AND an audio/* content type. The provider
// can report errors as JSON under a 200, so the content type is the
// authoritative success signal, not the status code.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.cfg.APIKey == "" || c.cfg.VoiceID == "" {
		return nil, errors.NewConfigMissing(
			"ELEVENLABS_API_KEY, ELEVENLABS_VOICE_ID",
			"Faltan variables de entorno ELEVENLABS_API_KEY o ELEVENLABS_VOICE_ID.",
		)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s&enable_logging=false",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.VoiceID),
		url.QueryEscape(c.cfg.OutputFormat),
	)

	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.cfg.ModelID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/ogg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewSynthesisFailed(0, "", "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewSynthesisFailed(resp.StatusCode, resp.Header.Get("Content-Type"), "", err)
	}

	contentType := resp.Header.Get("Content-Type")
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 && strings.HasPrefix(contentType, "audio/")

	c.logger.Debug("ElevenLabs response",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !ok {
		detail := truncateDetail(data)
		c.logger.Warn("ElevenLabs synthesis failed",
			zap.Int("status", resp.StatusCode),
			zap.String("content_type", contentType),
			zap.String("detail", detail),
		)
		return nil, errors.NewSynthesisFailed(resp.StatusCode, contentType, detail, nil)
	}

	return data, nil
}

// truncateDetail caps the provider body excerpt on rune boundaries; the
// detail ends up in a user-visible reply and must stay valid UTF-8.
func truncateDetail(body []byte) string {
	s := strings.TrimSpace(string(body))
	runes := []rune(s)
	if len(runes) > maxDetailLen {
		return string(runes[:maxDetailLen])
	}
	return s
}
