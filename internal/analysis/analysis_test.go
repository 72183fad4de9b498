package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"localradar/internal/config"
	"localradar/internal/llm"
	"localradar/internal/model"
)

type fakeChat struct {
	reply string
	err   error
	calls int
	last  string
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	if len(input) > 0 {
		f.last = input[len(input)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func clientFor(fake *fakeChat) *llm.Client {
	return llm.NewClientWithModel(fake, config.ConcurrencyConfig{QPS: 10, RPM: 6000})
}

func TestScoreAllTopicsPresentAndClamped(t *testing.T) {
	fake := &fakeChat{reply: `{"Service": 8, "Price": -3, "Quality": 14, "Ambiance": 7.6, "Wait Time": 4}`}
	scorer := NewSentimentScorer(clientFor(fake), 20)

	diag := scorer.Score(context.Background(), []string{"good place"})
	assert.Equal(t, model.SentimentDiagnosis{Service: 8, Price: 0, Quality: 10, Ambiance: 8, WaitTime: 4}, diag)
	for _, s := range diag.Scores() {
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 10)
	}
}

func TestScoreMissingTopicDefaultsToNeutral(t *testing.T) {
	fake := &fakeChat{reply: `{"Service": 9, "Price": 2}`}
	scorer := NewSentimentScorer(clientFor(fake), 20)

	diag := scorer.Score(context.Background(), []string{"review"})
	assert.Equal(t, 9, diag.Service)
	assert.Equal(t, 2, diag.Price)
	assert.Equal(t, 5, diag.Quality)
	assert.Equal(t, 5, diag.Ambiance)
	assert.Equal(t, 5, diag.WaitTime)
}

func TestScoreMalformedReplyIsZeroNotNeutral(t *testing.T) {
	fake := &fakeChat{reply: "the market feels positive overall"}
	scorer := NewSentimentScorer(clientFor(fake), 20)

	diag := scorer.Score(context.Background(), []string{"review"})
	assert.True(t, diag.Unavailable())
	assert.Equal(t, model.ZeroDiagnosis(), diag)
}

func TestScoreModelTimeoutIsZero(t *testing.T) {
	fake := &fakeChat{err: errors.New("context deadline exceeded")}
	scorer := NewSentimentScorer(clientFor(fake), 20)

	diag := scorer.Score(context.Background(), []string{"review"})
	assert.Equal(t, model.ZeroDiagnosis(), diag)
}

func TestScoreTruncatesReviewInput(t *testing.T) {
	fake := &fakeChat{reply: `{"Service": 5}`}
	scorer := NewSentimentScorer(clientFor(fake), 2)

	scorer.Score(context.Background(), []string{"first", "second", "dropped"})
	assert.Contains(t, fake.last, "first")
	assert.Contains(t, fake.last, "second")
	assert.NotContains(t, fake.last, "dropped")
}

func TestScoreNestedObjectCoercion(t *testing.T) {
	fake := &fakeChat{reply: `{"Service": {"score": 8, "reason": "friendly"}, "Price": {"rating": 3}, "Quality": {"verdict": "fine"}}`}
	scorer := NewSentimentScorer(clientFor(fake), 20)

	diag := scorer.Score(context.Background(), []string{"review"})
	assert.Equal(t, 8, diag.Service)
	assert.Equal(t, 3, diag.Price)
	// Object without score or rating falls back to neutral.
	assert.Equal(t, 5, diag.Quality)
}

func TestCoerceScorePrecedence(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`7`, 7},
		{`7.4`, 7},
		{`7.5`, 8},
		{`{"score": 6, "rating": 2}`, 6},
		{`{"rating": 2}`, 2},
		{`{"note": "n/a"}`, 5},
		{`"high"`, 5},
		{`null`, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, coerceScore(json.RawMessage(tc.raw)), "raw=%s", tc.raw)
	}
}

func TestDossierGenerate(t *testing.T) {
	fake := &fakeChat{reply: `{"archetype": "The Reliable Standard", "main_strength": "Consistency", "exploitable_weakness": "Slow service", "strategic_summary": "Solid but slow."}`}
	gen := NewDossierGenerator(clientFor(fake))

	d := gen.Generate(context.Background(), "Joe's Barbershop", []string{"nice cut"}, []string{"Mon: 9-5"}, "")
	assert.Equal(t, "The Reliable Standard", d.Archetype)
	assert.Equal(t, "Slow service", d.Weakness)
	assert.Contains(t, fake.last, "Joe's Barbershop")
}

func TestDossierMalformedNeverRaises(t *testing.T) {
	fake := &fakeChat{reply: "not json at all"}
	gen := NewDossierGenerator(clientFor(fake))

	d := gen.Generate(context.Background(), "X", nil, nil, "")
	assert.Equal(t, "Unavailable", d.Archetype)
	assert.Equal(t, "N/A", d.MainStrength)
	assert.Equal(t, "N/A", d.Weakness)
	assert.NotEmpty(t, d.StrategicSummary)
}

func TestDossierWrongSchemaGetsSentinel(t *testing.T) {
	fake := &fakeChat{reply: `{"totally": "unrelated"}`}
	gen := NewDossierGenerator(clientFor(fake))

	d := gen.Generate(context.Background(), "X", nil, nil, "")
	assert.Equal(t, "Unavailable", d.Archetype)
}

func TestSynthesize(t *testing.T) {
	fake := &fakeChat{reply: `{"title": "Room to Grow", "slogan": "Stand out.", "competition_level": "high", "strategic_suggestions": ["fix pricing", "lean on quality"], "niche_alert": "Wait times are a sore spot."}`}
	synth := NewMarketSynthesizer(clientFor(fake), 4)

	out := synth.Synthesize(context.Background(), model.NeutralDiagnosis())
	assert.Equal(t, "Room to Grow", out.Title)
	assert.Equal(t, model.CompetitionHigh, out.CompetitionLevel)
	assert.Len(t, out.Suggestions, 2)
	assert.NotEmpty(t, out.NicheAlert)
}

func TestSynthesizeFallback(t *testing.T) {
	fake := &fakeChat{err: errors.New("boom")}
	synth := NewMarketSynthesizer(clientFor(fake), 4)

	out := synth.Synthesize(context.Background(), model.ZeroDiagnosis())
	assert.Equal(t, "Analysis unavailable", out.Title)
	assert.Equal(t, "Slogan unavailable", out.Slogan)
	assert.Equal(t, model.CompetitionUnknown, out.CompetitionLevel)
	assert.Empty(t, out.Suggestions)
	assert.Empty(t, out.NicheAlert)
}

func TestSynthesizeRunsOnZeroDiagnosis(t *testing.T) {
	fake := &fakeChat{reply: `{"title": "No Signal", "slogan": "s", "competition_level": "nonsense", "strategic_suggestions": [], "niche_alert": ""}`}
	synth := NewMarketSynthesizer(clientFor(fake), 4)

	out := synth.Synthesize(context.Background(), model.ZeroDiagnosis())
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "No Signal", out.Title)
	assert.Equal(t, model.CompetitionUnknown, out.CompetitionLevel)
	assert.Contains(t, fake.last, "Service: 0")
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, model.CompetitionLow, normalizeLevel(" low "))
	assert.Equal(t, model.CompetitionMedium, normalizeLevel("Moderate"))
	assert.Equal(t, model.CompetitionHigh, normalizeLevel("HIGH"))
	assert.Equal(t, model.CompetitionUnknown, normalizeLevel("N/D"))
}
