// Package report assembles the final document model and serializes it to a
// paginated PDF. Composition is pure structuring; every network or model call
// happens upstream.
package report

import (
	"time"

	"localradar/internal/model"
)

// ComposeInput carries everything the document needs. All fields are owned by
// the caller until Compose returns; after that the document is immutable.
type ComposeInput struct {
	Query        model.SearchQuery
	Synthesis    model.MarketSynthesis
	Diagnosis    model.SentimentDiagnosis
	Competitors  []model.CompetitorRecord
	RadarChart   []byte
	ScatterChart []byte // nil means the chart section is omitted
	Logo         []byte
	GeneratedAt  time.Time
}

// Compose merges the upstream results into the terminal document model.
func Compose(in ComposeInput) *model.ReportDocument {
	return &model.ReportDocument{
		Title:            in.Synthesis.Title,
		Slogan:           in.Synthesis.Slogan,
		Requester:        in.Query.Requester,
		Category:         in.Query.Category,
		Location:         in.Query.Location,
		GeneratedAt:      in.GeneratedAt,
		Logo:             in.Logo,
		RadarChart:       in.RadarChart,
		ScatterChart:     in.ScatterChart,
		CompetitionLevel: in.Synthesis.CompetitionLevel,
		Suggestions:      in.Synthesis.Suggestions,
		NicheAlert:       in.Synthesis.NicheAlert,
		Diagnosis:        in.Diagnosis,
		Competitors:      in.Competitors,
	}
}
