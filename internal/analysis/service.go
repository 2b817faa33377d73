// Package analysis turns photos of shopping lists into sections and asks a
// model to second-guess item categories.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/models"
	"github.com/listlens/listlens/internal/providers"
)

// Failure kinds besides common.ErrQuotaExceeded and common.ErrUnauthenticated.
// They are always wrapped together with common.ErrAnalysis or
// common.ErrReview.
var (
	ErrUpstream          = errors.New("upstream error")
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	visionMaxTokens = 1024
	reviewMaxTokens = 2048
	temperature     = 0.1
)

type Service struct {
	provider providers.Provider
	name     string
	model    string
}

func NewService(provider providers.Provider, name, model string) *Service {
	if model == "" {
		model = DefaultModel(name)
	}
	return &Service{
		provider: provider,
		name:     name,
		model:    model,
	}
}

func (s *Service) Provider() string { return s.name }
func (s *Service) Model() string    { return s.model }

// AnalyzeImage transcribes the list in payload into sections.
func (s *Service) AnalyzeImage(ctx context.Context, payload *encoder.Payload) ([]models.Section, error) {
	if payload == nil || len(payload.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", common.ErrAnalysis)
	}

	start := time.Now()
	raw, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   visionMaxTokens,
		Prompt:      buildVisionPrompt(),
		Images:      []providers.Image{{Data: payload.Data, MediaType: payload.MediaType}},
		JSON:        true,
	})
	if err != nil {
		slog.Error("Vision analysis failed", "provider", s.name, "model", s.model, "err", err)
		return nil, failure(common.ErrAnalysis, err)
	}

	sections, err := ParseSections(raw)
	if err != nil {
		slog.Warn("Unusable vision response", "provider", s.name, "model", s.model, "length", len(raw))
		return nil, fmt.Errorf("%w: %w", common.ErrAnalysis, err)
	}

	slog.Info("Analyzed list photo",
		"provider", s.name,
		"model", s.model,
		"bytes", payload.DecodedBytes,
		"sections", len(sections),
		"duration", time.Since(start))
	return sections, nil
}

// ReviewCategories asks the model for better categories for items. Only
// items whose id appears in the input are returned.
func (s *Service) ReviewCategories(ctx context.Context, items []models.SnapshotItem) ([]models.ProposedCategory, error) {
	if len(items) == 0 {
		return nil, nil
	}

	type reviewItem struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	payload := make([]reviewItem, len(items))
	for i, it := range items {
		payload[i] = reviewItem{ID: it.ID, Name: it.Name, Category: it.Category.Name()}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: failed to encode items: %w", common.ErrReview, err)
	}

	raw, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   reviewMaxTokens,
		System:      reviewSystemPrompt,
		Prompt:      buildReviewPrompt(strings.TrimSpace(buf.String())),
		JSON:        true,
	})
	if err != nil {
		slog.Error("Category review failed", "provider", s.name, "model", s.model, "err", err)
		return nil, failure(common.ErrReview, err)
	}

	proposals, err := ParseProposals(raw, items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrReview, err)
	}

	slog.Info("Reviewed categories", "provider", s.name, "model", s.model, "items", len(items), "proposals", len(proposals))
	return proposals, nil
}

// failure wraps a provider error under base, tagging anything that is not
// an auth or quota problem as ErrUpstream.
func failure(base, err error) error {
	if errors.Is(err, common.ErrQuotaExceeded) || errors.Is(err, common.ErrUnauthenticated) {
		return fmt.Errorf("%w: %w", base, err)
	}
	return fmt.Errorf("%w: %w: %w", base, ErrUpstream, err)
}
