package review

import (
	"context"

	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/diffparse"
	"github.com/sanix-darker/localreview/internal/provider"
)

// Analyzer sends one change record to the model and interprets the reply.
type Analyzer struct {
	gen         provider.Generator
	template    string
	temperature float64
	maxTokens   int
}

// AnalyzerConfig holds the generation settings of an Analyzer.
type AnalyzerConfig struct {
	// PromptTemplate replaces core.DefaultPromptTemplate when non-empty.
	PromptTemplate string
	Temperature    float64
	MaxTokens      int
}

// NewAnalyzer creates an Analyzer on top of gen.
func NewAnalyzer(gen provider.Generator, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		gen:         gen,
		template:    cfg.PromptTemplate,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Analyze issues exactly one generation request for rec. Transport failures,
// timeouts and cancellation are returned as errors; anything the model said
// is returned as a core.Parsed.
func (a *Analyzer) Analyze(ctx context.Context, rec diffparse.ChangeRecord) (core.Parsed, error) {
	raw, err := a.gen.Generate(ctx, provider.GenerateRequest{
		Prompt:      core.BuildAnalysisPrompt(a.template, rec),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	return core.ParseReviewReply(raw, rec.Path), nil
}
