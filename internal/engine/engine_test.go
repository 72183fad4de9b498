package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localradar/internal/chart"
	"localradar/internal/config"
	"localradar/internal/model"
	"localradar/internal/report"
)

type fakeDirectory struct {
	candidates []model.CandidatePlace
	details    map[string]model.PlaceDetail
	delays     map[string]time.Duration

	mu           sync.Mutex
	detailCalls  []string
	discoverHits int
}

func (f *fakeDirectory) Discover(_ context.Context, _ model.SearchQuery) ([]model.CandidatePlace, error) {
	f.mu.Lock()
	f.discoverHits++
	f.mu.Unlock()
	return f.candidates, nil
}

func (f *fakeDirectory) FetchDetail(_ context.Context, placeID string) (model.PlaceDetail, error) {
	if d, ok := f.delays[placeID]; ok {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, placeID)
	f.mu.Unlock()
	return f.details[placeID], nil
}

type fakeScorer struct {
	diag  model.SentimentDiagnosis
	mu    sync.Mutex
	calls int
	seen  []string
}

func (f *fakeScorer) Score(_ context.Context, texts []string) model.SentimentDiagnosis {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = texts
	return f.diag
}

type fakeDossiers struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeDossiers) Generate(_ context.Context, name string, _, _ []string, _ string) model.StrategicDossier {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return model.StrategicDossier{
		Archetype:        "Archetype of " + name,
		MainStrength:     "s",
		Weakness:         "w",
		StrategicSummary: "summary",
	}
}

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	last  model.SentimentDiagnosis
}

func (f *fakeSynth) Synthesize(_ context.Context, diag model.SentimentDiagnosis) model.MarketSynthesis {
	f.mu.Lock()
	f.calls++
	f.last = diag
	f.mu.Unlock()
	return model.MarketSynthesis{
		Title:            "T",
		Slogan:           "S",
		CompetitionLevel: model.CompetitionMedium,
	}
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
	err     error
}

func (f *fakeHistory) Append(_ context.Context, e model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) Recent(context.Context, int) ([]model.HistoryEntry, error) { return nil, nil }
func (f *fakeHistory) Close() error                                              { return nil }

func candidates(n int) []model.CandidatePlace {
	out := make([]model.CandidatePlace, n)
	for i := range out {
		out[i] = model.CandidatePlace{
			ID:          fmt.Sprintf("p%d", i),
			Name:        fmt.Sprintf("Place %d", i),
			Rating:      4.0 + float64(i)/10,
			RatingCount: 10 * (i + 1),
		}
	}
	return out
}

func newTestEngine(dir *fakeDirectory, scorer *fakeScorer, dossiers *fakeDossiers,
	synth *fakeSynth, store *fakeHistory, maxCompetitors int) *Engine {
	cfg := config.ReportConfig{
		MaxCompetitors:      maxCompetitors,
		MaxPooledReviews:    20,
		NicheAlertThreshold: 4,
		LabelMaxChars:       15,
	}
	return NewEngine(cfg, dir, scorer, dossiers, synth,
		chart.NewRenderer(15), report.NewRenderer(), store, nil)
}

func TestRunBoundsFanOut(t *testing.T) {
	dir := &fakeDirectory{candidates: candidates(5), details: map[string]model.PlaceDetail{}}
	scorer := &fakeScorer{diag: model.NeutralDiagnosis()}
	dossiers := &fakeDossiers{}
	synth := &fakeSynth{}
	store := &fakeHistory{}

	eng := newTestEngine(dir, scorer, dossiers, synth, store, 3)
	result, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)

	// 5 discovered, only the first N=3 enriched and reported.
	assert.Len(t, result.Document.Competitors, 3)
	assert.Len(t, dir.detailCalls, 3)
	assert.Equal(t, 3, dossiers.calls)
	assert.Equal(t, "%PDF", string(result.PDF[:4]))
}

func TestRunPreservesDiscoveryOrder(t *testing.T) {
	dir := &fakeDirectory{
		candidates: candidates(4),
		details:    map[string]model.PlaceDetail{},
		// Earlier candidates finish last.
		delays: map[string]time.Duration{
			"p0": 40 * time.Millisecond,
			"p1": 25 * time.Millisecond,
			"p2": 10 * time.Millisecond,
		},
	}
	scorer := &fakeScorer{diag: model.NeutralDiagnosis()}
	eng := newTestEngine(dir, scorer, &fakeDossiers{}, &fakeSynth{}, &fakeHistory{}, 5)

	result, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)

	require.Len(t, result.Document.Competitors, 4)
	for i, c := range result.Document.Competitors {
		assert.Equal(t, fmt.Sprintf("Place %d", i), c.Name)
		assert.Equal(t, "Archetype of "+c.Name, c.Dossier.Archetype)
	}
}

func TestRunNoCompetitorsHaltsBeforeAnyAICall(t *testing.T) {
	dir := &fakeDirectory{}
	scorer := &fakeScorer{}
	dossiers := &fakeDossiers{}
	synth := &fakeSynth{}
	store := &fakeHistory{}

	eng := newTestEngine(dir, scorer, dossiers, synth, store, 5)
	_, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	assert.ErrorIs(t, err, ErrNoCompetitors)

	assert.Zero(t, scorer.calls)
	assert.Zero(t, dossiers.calls)
	assert.Zero(t, synth.calls)
	assert.Empty(t, store.entries)
}

func TestRunZeroDiagnosisStillSynthesizes(t *testing.T) {
	dir := &fakeDirectory{candidates: candidates(2), details: map[string]model.PlaceDetail{}}
	scorer := &fakeScorer{diag: model.ZeroDiagnosis()}
	synth := &fakeSynth{}

	eng := newTestEngine(dir, scorer, &fakeDossiers{}, synth, &fakeHistory{}, 5)
	_, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)

	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, model.ZeroDiagnosis(), synth.last)
}

func TestRunPoolsReviewsInDiscoveryOrder(t *testing.T) {
	dir := &fakeDirectory{
		candidates: candidates(2),
		details: map[string]model.PlaceDetail{
			"p0": {Reviews: []model.Review{{Text: "first review", Rating: 5}, {Text: "second review", Rating: 2}}},
			"p1": {Reviews: []model.Review{{Text: "third review", Rating: 4}}},
		},
		delays: map[string]time.Duration{"p0": 20 * time.Millisecond},
	}
	scorer := &fakeScorer{diag: model.NeutralDiagnosis()}

	eng := newTestEngine(dir, scorer, &fakeDossiers{}, &fakeSynth{}, &fakeHistory{}, 5)
	_, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first review", "second review", "third review"}, scorer.seen)
}

func TestRunWritesHistoryAfterSynthesis(t *testing.T) {
	dir := &fakeDirectory{candidates: candidates(1), details: map[string]model.PlaceDetail{}}
	store := &fakeHistory{}

	eng := newTestEngine(dir, &fakeScorer{diag: model.NeutralDiagnosis()}, &fakeDossiers{}, &fakeSynth{}, store, 5)
	_, err := eng.Run(context.Background(), model.SearchQuery{Category: "barber", Location: "here", Requester: "Joana"})
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	assert.Equal(t, "Joana", e.Requester)
	assert.Equal(t, "barber", e.Category)
	assert.Equal(t, "T", e.Title)
	assert.Equal(t, model.CompetitionMedium, e.CompetitionLevel)
}

func TestRunHistoryFailureDoesNotBlockReport(t *testing.T) {
	dir := &fakeDirectory{candidates: candidates(1), details: map[string]model.PlaceDetail{}}
	store := &fakeHistory{err: fmt.Errorf("db down")}

	eng := newTestEngine(dir, &fakeScorer{diag: model.NeutralDiagnosis()}, &fakeDossiers{}, &fakeSynth{}, store, 5)
	result, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.PDF)
}

func TestRunCancelledContextPersistsNothing(t *testing.T) {
	dir := &fakeDirectory{
		candidates: candidates(2),
		details:    map[string]model.PlaceDetail{},
		delays:     map[string]time.Duration{"p0": 30 * time.Millisecond},
	}
	store := &fakeHistory{}
	eng := newTestEngine(dir, &fakeScorer{}, &fakeDossiers{}, &fakeSynth{}, store, 5)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := eng.Run(ctx, model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.entries)
}

func TestRunAppendixSamplesComeFromReviews(t *testing.T) {
	dir := &fakeDirectory{
		candidates: candidates(1),
		details: map[string]model.PlaceDetail{
			"p0": {Reviews: []model.Review{
				{Text: "awful", Rating: 1},
				{Text: "lovely", Rating: 5},
			}},
		},
	}
	eng := newTestEngine(dir, &fakeScorer{diag: model.NeutralDiagnosis()}, &fakeDossiers{}, &fakeSynth{}, &fakeHistory{}, 5)

	result, err := eng.Run(context.Background(), model.SearchQuery{Category: "c", Location: "l", Requester: "r"})
	require.NoError(t, err)
	c := result.Document.Competitors[0]
	assert.Equal(t, "lovely", c.PositiveSample)
	assert.Equal(t, "awful", c.NegativeSample)
}
