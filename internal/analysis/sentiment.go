// Package analysis holds the three model-facing stages: the sentiment scorer,
// the per-competitor dossier generator, and the market synthesizer. Each stage
// makes exactly one model call and owns a fixed, schema-complete fallback, so
// the pipeline never sees a partial structure or a model error.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"localradar/internal/llm"
	"localradar/internal/logger"
	"localradar/internal/model"
)

const jsonSystemPrompt = "You are a JSON generator. Output only a JSON document, nothing else."

// SentimentScorer turns pooled review text into the five-topic diagnosis.
type SentimentScorer struct {
	client     *llm.Client
	maxReviews int
}

// NewSentimentScorer bounds the prompt to the first maxReviews texts. The
// bound is a hard truncation, not sampling.
func NewSentimentScorer(client *llm.Client, maxReviews int) *SentimentScorer {
	if maxReviews <= 0 {
		maxReviews = 20
	}
	return &SentimentScorer{client: client, maxReviews: maxReviews}
}

// Score produces the aggregate diagnosis. Topics absent from a valid reply
// default to 5 (neutral). A failed call or malformed reply yields the all-zero
// diagnosis instead: zero is the "no usable signal" marker later stages read,
// and must never be conflated with neutral.
func (s *SentimentScorer) Score(ctx context.Context, reviewTexts []string) model.SentimentDiagnosis {
	if len(reviewTexts) > s.maxReviews {
		reviewTexts = reviewTexts[:s.maxReviews]
	}

	prompt := fmt.Sprintf(`Analyze the following customer reviews of a local market. For each of the topics below, assign a sentiment score from 0 (very negative) to 10 (very positive) based on the overall opinion. If a topic is not mentioned, assign 5 (neutral).
Topics: Service, Price, Quality, Ambiance, Wait Time.
Respond strictly as JSON in this shape: {"Service": 8, "Price": 6, "Quality": 9, "Ambiance": 7, "Wait Time": 4}

Reviews:
%s`, strings.Join(reviewTexts, "\n"))

	var raw map[string]json.RawMessage
	if err := s.client.GenerateJSON(ctx, jsonSystemPrompt, prompt, &raw); err != nil {
		logger.Log.Warnf("sentiment: scoring failed, diagnosis unavailable: %v", err)
		return model.ZeroDiagnosis()
	}

	diag := model.NeutralDiagnosis()
	for _, topic := range model.Topics {
		if v, ok := raw[topic]; ok {
			diag.Set(topic, coerceScore(v))
		}
	}
	return diag
}
