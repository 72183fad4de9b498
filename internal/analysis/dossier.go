package analysis

import (
	"context"
	"fmt"
	"strings"

	"localradar/internal/llm"
	"localradar/internal/logger"
	"localradar/internal/model"
)

// DossierGenerator produces one strategic dossier per competitor.
type DossierGenerator struct {
	client *llm.Client
}

func NewDossierGenerator(client *llm.Client) *DossierGenerator {
	return &DossierGenerator{client: client}
}

// sentinelDossier is returned whenever the model call or its parsing fails.
// It is schema-complete so rendering never branches on missing fields.
func sentinelDossier() model.StrategicDossier {
	return model.StrategicDossier{
		Archetype:        "Unavailable",
		MainStrength:     "N/A",
		Weakness:         "N/A",
		StrategicSummary: "A strategic summary could not be generated for this competitor.",
	}
}

// Generate builds the dossier for one competitor. It never returns an error:
// a failure for one competitor must not block the rest of the batch, so the
// fixed sentinel dossier stands in instead.
func (g *DossierGenerator) Generate(ctx context.Context, name string, reviewTexts []string, openingHours []string, websiteExcerpt string) model.StrategicDossier {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a senior business strategist. Build a strategic dossier on the competitor '%s'.\n", name)
	fmt.Fprintf(&sb, "Opening hours: %s\n", strings.Join(openingHours, "; "))
	fmt.Fprintf(&sb, "Customer reviews: %q\n", strings.Join(reviewTexts, " "))
	if websiteExcerpt != "" {
		fmt.Fprintf(&sb, "Excerpt from their website: %q\n", websiteExcerpt)
	}
	sb.WriteString(`Respond strictly as JSON in this shape:
{"archetype": "A short, punchy archetype (e.g. 'The Reliable Standard', 'The Cheap Option With Surprises').", "main_strength": "The competitor's main strength, in one sentence.", "exploitable_weakness": "The main weakness a new business could exploit, in one sentence.", "strategic_summary": "One concise paragraph summarizing this competitor's strategic position in the market."}`)

	var dossier model.StrategicDossier
	if err := g.client.GenerateJSON(ctx, jsonSystemPrompt, sb.String(), &dossier); err != nil {
		logger.Log.Warnf("dossier: generation for %q failed: %v", name, err)
		return sentinelDossier()
	}
	if dossier.Archetype == "" && dossier.StrategicSummary == "" {
		// Valid JSON but not the dossier schema.
		logger.Log.Warnf("dossier: reply for %q did not match the schema", name)
		return sentinelDossier()
	}
	return dossier
}
