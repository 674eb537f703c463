// Package gemini implements the generation client for the Gemini API.
// It assembles the analysis and roleplay prompts, invokes the model, and
// extracts the JSON analysis object from free-text responses.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/genai"

	"github.com/memora-app/memora/internal/config"
	"github.com/memora-app/memora/internal/store"
)

// Client defines the generation operations used by the HTTP handlers.
type Client interface {
	// AnalyzeChatLog derives a personality profile for targetName from the
	// raw chat text. The returned profile carries the model's analysis
	// fields; the caller sets Name before persisting.
	AnalyzeChatLog(ctx context.Context, chatText, targetName, originalFilename string) (*store.Profile, error)

	// GenerateReply continues the conversation in character, given the
	// stored profile and the full turn history. The model's raw text is the
	// reply; no JSON parsing is applied.
	GenerateReply(ctx context.Context, profile *store.Profile, history []store.Turn) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
}

// NewClient creates a Gemini client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		contentConfig: &genai.GenerateContentConfig{
			Temperature: &cfg.Temperature,
		},
		modelName: cfg.Model,
	}, nil
}

func (c *sdkClient) AnalyzeChatLog(ctx context.Context, chatText, targetName, originalFilename string) (*store.Profile, error) {
	c.log.DebugContext(ctx, "Analyzing chat log",
		"target_name", targetName, "filename", originalFilename, "chars", len(chatText))

	prompt := BuildAnalysisPrompt(chatText, targetName, originalFilename)
	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini analysis call failed", "error", err)
		return nil, fmt.Errorf("gemini analysis failed: %w", err)
	}

	jsonText, err := ExtractJSON(text)
	if err != nil {
		c.log.ErrorContext(ctx, "Analysis response contained no JSON object", "response_text", text)
		return nil, err
	}

	var profile store.Profile
	if err := json.Unmarshal([]byte(jsonText), &profile); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse analysis JSON", "error", err, "json_text", jsonText)
		return nil, fmt.Errorf("invalid analysis JSON received: %w", err)
	}

	c.log.DebugContext(ctx, "Chat log analyzed",
		"target_name", targetName, "analysis_status", profile.AnalysisStatus,
		"sample_messages", len(profile.SampleMessages))
	return &profile, nil
}

func (c *sdkClient) GenerateReply(ctx context.Context, profile *store.Profile, history []store.Turn) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "name", profile.Name, "turn_count", len(history))

	transcript := RenderTranscript(history, profile.Name)
	prompt := BuildRoleplayPrompt(profile.PersonalityPrompt, transcript)

	reply, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini reply generation failed", "error", err)
		return "", fmt.Errorf("gemini reply generation failed: %w", err)
	}
	return reply, nil
}

// generate performs a single GenerateContent call. There is deliberately no
// retry or client-side timeout here; a failed call surfaces to the handler.
func (c *sdkClient) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return c.extractTextFromResponse(ctx, resp)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("gemini returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
