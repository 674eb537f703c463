// Package speech implements the MiniMax text-to-speech client. Synthesis is
// best-effort throughout the application: callers absorb any error and omit
// audio from the response.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/memora-app/memora/internal/config"
)

// Synthesizer converts reply text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type minimaxClient struct {
	httpClient *http.Client
	log        *slog.Logger
	apiKey     string
	baseURL    string
	model      string
	voiceID    string
	format     string
}

type synthesizeRequest struct {
	Model   string `json:"model"`
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Format  string `json:"format"`
}

// NewMiniMax creates a Synthesizer backed by the MiniMax text-to-speech API.
func NewMiniMax(cfg config.SpeechConfig, log *slog.Logger) Synthesizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &minimaxClient{
		httpClient: &http.Client{},
		log:        log.With("component", "speech_client"),
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		voiceID:    cfg.VoiceID,
		format:     cfg.Format,
	}
}

// Synthesize posts the text to the MiniMax endpoint and returns the raw
// audio bytes from the response body.
func (c *minimaxClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{
		Model:   c.model,
		Text:    text,
		VoiceID: c.voiceID,
		Format:  c.format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WarnContext(ctx, "Speech synthesis returned non-OK status", "status", resp.StatusCode)
		return nil, fmt.Errorf("speech API error with status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech API returned empty audio")
	}

	c.log.DebugContext(ctx, "Speech synthesized", "bytes", len(audio))
	return audio, nil
}
