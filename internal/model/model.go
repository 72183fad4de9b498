package model

import "time"

// SearchQuery is one user submission. It flows read-only through the pipeline.
type SearchQuery struct {
	Category  string
	Location  string
	Requester string
}

// CandidatePlace is a business returned by directory discovery,
// not yet detail-enriched. Zero values mean "absent".
type CandidatePlace struct {
	ID          string
	Name        string
	Rating      float64
	RatingCount int
	PriceLevel  int
	Website     string
}

// Review is a single customer review.
type Review struct {
	Text   string
	Rating int
}

// PlaceDetail is the per-place enrichment payload. All fields may be empty;
// consumers treat empty as "unknown".
type PlaceDetail struct {
	Address      string
	Phone        string
	Website      string
	OpeningHours []string
	Reviews      []Review
}

// StrategicDossier is the per-competitor narrative produced by the model.
type StrategicDossier struct {
	Archetype        string `json:"archetype"`
	MainStrength     string `json:"main_strength"`
	Weakness         string `json:"exploitable_weakness"`
	StrategicSummary string `json:"strategic_summary"`
}

// CompetitorRecord is a candidate after full enrichment. It is mutated only by
// the stage currently enriching it, then frozen.
type CompetitorRecord struct {
	CandidatePlace
	Address        string
	Phone          string
	OpeningHours   []string
	Reviews        []Review
	Dossier        StrategicDossier
	PositiveSample string
	NegativeSample string
}

// PickReviewSamples returns the first review rated >= 4 and the first rated <= 2.
// Either may be empty when no such review exists. Unrated reviews (rating 0)
// never qualify as negative samples.
func PickReviewSamples(reviews []Review) (positive, negative string) {
	for _, r := range reviews {
		if positive == "" && r.Rating >= 4 && r.Text != "" {
			positive = r.Text
		}
		if negative == "" && r.Rating > 0 && r.Rating <= 2 && r.Text != "" {
			negative = r.Text
		}
		if positive != "" && negative != "" {
			break
		}
	}
	return positive, negative
}

// Competition levels produced by the market synthesizer.
const (
	CompetitionLow     = "Low"
	CompetitionMedium  = "Medium"
	CompetitionHigh    = "High"
	CompetitionUnknown = "Unknown"
)

// MarketSynthesis is the market-level narrative derived from the aggregate
// diagnosis.
type MarketSynthesis struct {
	Title            string
	Slogan           string
	CompetitionLevel string
	Suggestions      []string
	NicheAlert       string
}

// ReportDocument is the terminal, fully composed report. It owns all upstream
// data; nothing is mutated after composition.
type ReportDocument struct {
	Title       string
	Slogan      string
	Requester   string
	Category    string
	Location    string
	GeneratedAt time.Time

	Logo         []byte
	RadarChart   []byte
	ScatterChart []byte // nil means "no chart"

	CompetitionLevel string
	Suggestions      []string
	NicheAlert       string
	Diagnosis        SentimentDiagnosis
	Competitors      []CompetitorRecord
}

// HistoryEntry is one persisted row per completed report request.
type HistoryEntry struct {
	Requester        string
	Category         string
	Location         string
	CompetitionLevel string
	Title            string
	Slogan           string
	NicheAlert       string
	CreatedAt        time.Time
}
