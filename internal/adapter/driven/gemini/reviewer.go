// Package gemini implements the code reviewer port with Google's Gemini
// models through the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// ReviewPrompt is the system instruction sent with every review.
const ReviewPrompt = `You are an expert senior software engineer and an automated code review assistant.
Your task is to analyze the provided code snippet and give detailed, constructive feedback.

Analyze the code for the following:
1.  **Potential Bugs:** Identify any logic errors, race conditions, or edge cases that could lead to bugs.
2.  **Performance Issues:** Suggest optimizations for slow or inefficient code.
3.  **Readability & Maintainability:** Comment on code clarity, naming conventions, and overall structure.
4.  **Best Practices & Style:** Check for adherence to language-specific best practices and common style guides.
5.  **Security Vulnerabilities:** Point out any potential security risks (e.g., injection flaws, insecure handling of data).

Provide your feedback in Markdown format. Structure your review with the following sections:
- ### Overall Summary
- ### Potential Bugs
- ### Performance Improvements
- ### Readability & Maintainability
- ### Best Practices & Style
- ### Security Concerns

For each point, explain the issue clearly and provide a code suggestion for how to fix it, if applicable.
If a section has no issues, state "No issues found."
Be concise and actionable.
`

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no review text")

// generator is the subset of *genai.Models the reviewer uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface satisfaction check.
var _ driven.CodeReviewer = (*Reviewer)(nil)

// Reviewer sends code to a Gemini model with the fixed review prompt.
type Reviewer struct {
	models  generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewReviewer creates a Reviewer backed by the Gemini API.
func NewReviewer(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*Reviewer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newReviewer(client.Models, model, timeout, logger), nil
}

func newReviewer(models generator, model string, timeout time.Duration, logger *slog.Logger) *Reviewer {
	if model == "" {
		model = DefaultModel
	}
	return &Reviewer{models: models, model: model, timeout: timeout, logger: logger}
}

// Model returns the configured model name.
func (r *Reviewer) Model() string {
	return r.model
}

// Review returns the model's Markdown critique of code.
func (r *Reviewer) Review(ctx context.Context, code string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(code), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ReviewPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", r.model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w", r.model, ErrEmptyResponse)
	}

	r.logger.Info("code review generated",
		"model", r.model,
		"input_bytes", len(code),
		"output_bytes", len(text),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return text, nil
}
