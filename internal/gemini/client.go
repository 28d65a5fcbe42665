// Package gemini asks Google's Gemini API for step-by-step explanations of
// solved math problems.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/resilience"
)

var (
	// ErrEmptyResponse is returned when Gemini answers without usable text.
	ErrEmptyResponse = errors.New("gemini returned no text")
	// ErrBlocked is returned when the safety filter rejects the prompt.
	ErrBlocked = errors.New("explanation blocked by safety filter")
)

// Explainer produces a human explanation for a solved expression.
type Explainer interface {
	Explain(ctx context.Context, expression, category, result string) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
	breaker       *resilience.Breaker
}

// NewClient creates a Gemini-backed Explainer.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Explainer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		breaker: resilience.NewBreaker(resilience.Settings{
			Name: "gemini",
			// A blocked prompt says nothing about the health of the API.
			Ignore: []error{ErrBlocked},
		}, logger),
	}, nil
}

func (c *sdkClient) Explain(ctx context.Context, expression, category, result string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.log.DebugContext(ctx, "Requesting explanation", "category", category)
	prompt := fmt.Sprintf(explainPrompt, category, expression, result)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var text string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := c.generateContentWithRetries(ctx, contents)
		if err != nil {
			return err
		}
		text, err = c.extractText(ctx, resp)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.log.WarnContext(ctx, "Gemini circuit open, skipping request")
	}
	return text, err
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		var resp *genai.GenerateContentResponse
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if !errors.As(err, &apiErr) || (apiErr.Code != 500 && apiErr.Code != 503) {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if i == c.maxRetries {
			break
		}

		c.log.WarnContext(ctx, "Retrying Gemini API call", "attempt", i+1, "max_retries", c.maxRetries, "code", apiErr.Code, "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gemini API call abandoned: %w", ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}

	c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", err)
	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("%w: %s", ErrBlocked, reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w (finish reason: %s)", ErrEmptyResponse, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
