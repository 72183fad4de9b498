// Package engine runs the report synthesis pipeline: discovery, bounded
// per-competitor enrichment, aggregate sentiment scoring, market synthesis,
// history, charts, and document rendering — one sequential flow per request.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"localradar/internal/chart"
	"localradar/internal/config"
	"localradar/internal/history"
	"localradar/internal/logger"
	"localradar/internal/model"
	"localradar/internal/places"
	"localradar/internal/report"
)

// ErrNoCompetitors is the terminal "nothing found" outcome. It is surfaced to
// the user as information, not as a failure, and nothing is persisted.
var ErrNoCompetitors = errors.New("no competitors found")

// Scorer produces the aggregate five-topic diagnosis.
type Scorer interface {
	Score(ctx context.Context, reviewTexts []string) model.SentimentDiagnosis
}

// DossierGenerator produces one strategic dossier per competitor.
type DossierGenerator interface {
	Generate(ctx context.Context, name string, reviewTexts, openingHours []string, websiteExcerpt string) model.StrategicDossier
}

// Synthesizer produces the market-level narrative.
type Synthesizer interface {
	Synthesize(ctx context.Context, diag model.SentimentDiagnosis) model.MarketSynthesis
}

// Engine owns one report pipeline. All clients are process-wide resources
// constructed once at startup and injected here; the engine never re-creates
// them per request.
type Engine struct {
	cfg      config.ReportConfig
	dir      places.Directory
	scorer   Scorer
	dossiers DossierGenerator
	synth    Synthesizer
	charts   *chart.Renderer
	renderer *report.Renderer
	store    history.Store
	logo     []byte
	now      func() time.Time
}

// NewEngine wires the pipeline. logo may be nil.
func NewEngine(cfg config.ReportConfig, dir places.Directory, scorer Scorer,
	dossiers DossierGenerator, synth Synthesizer, charts *chart.Renderer,
	renderer *report.Renderer, store history.Store, logo []byte) *Engine {
	return &Engine{
		cfg:      cfg,
		dir:      dir,
		scorer:   scorer,
		dossiers: dossiers,
		synth:    synth,
		charts:   charts,
		renderer: renderer,
		store:    store,
		logo:     logo,
		now:      time.Now,
	}
}

// Result is a completed report.
type Result struct {
	Document *model.ReportDocument
	PDF      []byte
}

// Run executes the pipeline for one query. Per-competitor enrichment failures
// degrade to fallback values and never abort the batch; the only error
// outcomes are ErrNoCompetitors, context cancellation, and a terminal
// rendering failure.
func (e *Engine) Run(ctx context.Context, query model.SearchQuery) (*Result, error) {
	logger.Log.Infof("engine: report for %q in %q requested by %q",
		query.Category, query.Location, query.Requester)

	candidates, err := e.dir.Discover(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCompetitors
	}
	if len(candidates) > e.cfg.MaxCompetitors {
		candidates = candidates[:e.cfg.MaxCompetitors]
	}
	logger.Log.Infof("engine: enriching %d competitors", len(candidates))

	// Per-candidate enrichment fans out bounded by the competitor cap. The
	// indexed slice keeps results in discovery order regardless of which
	// enrichment finishes first.
	records := make([]model.CompetitorRecord, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand model.CandidatePlace) {
			defer wg.Done()
			records[i] = e.enrich(ctx, cand)
		}(i, cand)
	}
	wg.Wait()

	// Fan-in barrier: aggregate scoring needs every competitor's reviews.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pooled []string
	for _, rec := range records {
		for _, r := range rec.Reviews {
			if r.Text != "" {
				pooled = append(pooled, r.Text)
			}
		}
	}

	diag := e.scorer.Score(ctx, pooled)
	if diag.Unavailable() {
		logger.Log.Warnf("engine: sentiment diagnosis unavailable, synthesis proceeds on zero signal")
	}
	synthesis := e.synth.Synthesize(ctx, diag)

	// History is the atomic last mutation: written only after synthesis, never
	// for a cancelled request, and a failed write never blocks the report.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry := model.HistoryEntry{
		Requester:        query.Requester,
		Category:         query.Category,
		Location:         query.Location,
		CompetitionLevel: synthesis.CompetitionLevel,
		Title:            synthesis.Title,
		Slogan:           synthesis.Slogan,
		NicheAlert:       synthesis.NicheAlert,
		CreatedAt:        e.now(),
	}
	if err := e.store.Append(ctx, entry); err != nil {
		logger.Log.Errorf("engine: history append failed: %v", err)
	}

	radar, err := e.charts.RenderSentimentRadar(diag)
	if err != nil {
		logger.Log.Errorf("engine: radar render failed: %v", err)
	}
	scatter, err := e.charts.RenderCompetitorScatter(records)
	if err != nil {
		logger.Log.Errorf("engine: scatter render failed: %v", err)
	}

	doc := report.Compose(report.ComposeInput{
		Query:        query,
		Synthesis:    synthesis,
		Diagnosis:    diag,
		Competitors:  records,
		RadarChart:   radar,
		ScatterChart: scatter,
		Logo:         e.logo,
		GeneratedAt:  e.now(),
	})

	pdf, err := e.renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("engine: report %q rendered, %d bytes", doc.Title, len(pdf))
	return &Result{Document: doc, PDF: pdf}, nil
}

// enrich runs the detail + dossier stage for one candidate. It always returns
// a complete record; failures degrade field by field.
func (e *Engine) enrich(ctx context.Context, cand model.CandidatePlace) model.CompetitorRecord {
	rec := model.CompetitorRecord{CandidatePlace: cand}

	detail, err := e.dir.FetchDetail(ctx, cand.ID)
	if err != nil {
		// Only cancellation reaches here; the dossier still gets its sentinel.
		logger.Log.Debugf("engine: detail fetch for %q aborted: %v", cand.Name, err)
	}
	rec.Address = detail.Address
	rec.Phone = detail.Phone
	rec.OpeningHours = detail.OpeningHours
	rec.Reviews = detail.Reviews
	if detail.Website != "" {
		rec.Website = detail.Website
	}

	var texts []string
	for _, r := range detail.Reviews {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}

	excerpt := places.WebsiteExcerpt(rec.Website, e.cfg.WebsiteExcerptChars)
	rec.Dossier = e.dossiers.Generate(ctx, cand.Name, texts, detail.OpeningHours, excerpt)
	rec.PositiveSample, rec.NegativeSample = model.PickReviewSamples(detail.Reviews)
	return rec
}
