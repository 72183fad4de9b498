package analysis

import (
	"context"
	"fmt"
	"strings"

	"localradar/internal/llm"
	"localradar/internal/logger"
	"localradar/internal/model"
)

// MarketSynthesizer derives the market-level narrative from the aggregate
// diagnosis. It always runs, even when the diagnosis is the all-zero
// "unavailable" signal; the model sees the zeros and reacts to them.
type MarketSynthesizer struct {
	client         *llm.Client
	alertThreshold int
}

func NewMarketSynthesizer(client *llm.Client, alertThreshold int) *MarketSynthesizer {
	if alertThreshold <= 0 {
		alertThreshold = 4
	}
	return &MarketSynthesizer{client: client, alertThreshold: alertThreshold}
}

// fallbackSynthesis is the total fallback for a failed call or malformed
// reply.
func fallbackSynthesis() model.MarketSynthesis {
	return model.MarketSynthesis{
		Title:            "Analysis unavailable",
		Slogan:           "Slogan unavailable",
		CompetitionLevel: model.CompetitionUnknown,
	}
}

// Synthesize produces the report narrative. Never returns an error.
func (s *MarketSynthesizer) Synthesize(ctx context.Context, diag model.SentimentDiagnosis) model.MarketSynthesis {
	var sb strings.Builder
	sb.WriteString("Based on the following local-market sentiment diagnosis (scores 0-10):\n")
	for _, topic := range model.Topics {
		fmt.Fprintf(&sb, "- %s: %d\n", topic, diag.Get(topic))
	}
	fmt.Fprintf(&sb, `Generate the following insights. Respond strictly as JSON in this shape:
{"title": "A creative title for the report.", "slogan": "An inspiring slogan.", "competition_level": "Low, Medium or High", "strategic_suggestions": ["Strategic suggestion based on the weakest topic.", "Suggestion based on the strongest topic."], "niche_alert": "If any topic scores below %d, write an alert about that opportunity. Otherwise an empty string."}`,
		s.alertThreshold)

	var reply struct {
		Title            string   `json:"title"`
		Slogan           string   `json:"slogan"`
		CompetitionLevel string   `json:"competition_level"`
		Suggestions      []string `json:"strategic_suggestions"`
		NicheAlert       string   `json:"niche_alert"`
	}
	if err := s.client.GenerateJSON(ctx, jsonSystemPrompt, sb.String(), &reply); err != nil {
		logger.Log.Warnf("synthesis: market synthesis failed: %v", err)
		return fallbackSynthesis()
	}
	if reply.Title == "" && reply.Slogan == "" {
		logger.Log.Warnf("synthesis: reply did not match the schema")
		return fallbackSynthesis()
	}

	return model.MarketSynthesis{
		Title:            reply.Title,
		Slogan:           reply.Slogan,
		CompetitionLevel: normalizeLevel(reply.CompetitionLevel),
		Suggestions:      reply.Suggestions,
		NicheAlert:       reply.NicheAlert,
	}
}

// normalizeLevel maps free-form model output onto the fixed level set.
func normalizeLevel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return model.CompetitionLow
	case "medium", "moderate":
		return model.CompetitionMedium
	case "high":
		return model.CompetitionHigh
	}
	return model.CompetitionUnknown
}
