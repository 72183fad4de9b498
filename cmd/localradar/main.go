package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/joho/godotenv"

	"localradar/internal/analysis"
	"localradar/internal/chart"
	"localradar/internal/config"
	"localradar/internal/engine"
	"localradar/internal/history"
	"localradar/internal/llm"
	"localradar/internal/logger"
	"localradar/internal/model"
	"localradar/internal/places"
	"localradar/internal/report"
	"localradar/internal/server"
)

var (
	flagconf string

	// One-shot mode: generate one report to a file instead of serving.
	flagCategory string
	flagLocation string
	flagName     string
	flagOut      string
)

func init() {
	flag.StringVar(&flagconf, "conf", "config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagCategory, "category", "", "one-shot: business category to analyze")
	flag.StringVar(&flagLocation, "location", "", "one-shot: city or neighborhood")
	flag.StringVar(&flagName, "name", "", "one-shot: requester name for the report header")
	flag.StringVar(&flagOut, "out", "report.pdf", "one-shot: output PDF path")
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using system env vars")
	}

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Process-wide clients: constructed once, shared by every request.
	llmClient, err := llm.NewClient(ctx, cfg.LLM, cfg.Concurrency)
	if err != nil {
		logger.Log.Errorf("llm init failed: %v", err)
		os.Exit(1)
	}
	directory := places.NewGoogleClient(cfg.Places)

	store, err := history.NewStore(cfg.History)
	if err != nil {
		logger.Log.Errorf("history store init failed: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var logo []byte
	if cfg.Report.LogoPath != "" {
		logo, err = os.ReadFile(cfg.Report.LogoPath)
		if err != nil {
			logger.Log.Warnf("logo not found at %s, header renders without it", cfg.Report.LogoPath)
			logo = nil
		}
	}

	eng := engine.NewEngine(
		cfg.Report,
		directory,
		analysis.NewSentimentScorer(llmClient, cfg.Report.MaxPooledReviews),
		analysis.NewDossierGenerator(llmClient),
		analysis.NewMarketSynthesizer(llmClient, cfg.Report.NicheAlertThreshold),
		chart.NewRenderer(cfg.Report.LabelMaxChars),
		report.NewRenderer(),
		store,
		logo,
	)

	if flagCategory != "" || flagLocation != "" {
		os.Exit(runOneShot(ctx, eng))
	}

	httpSrv := server.NewHTTPServer(cfg, eng, store)
	app := kratos.New(
		kratos.Name("localradar"),
		kratos.Server(httpSrv),
	)
	logger.Log.Infof("serving on %s", cfg.Server.Addr)
	if err := app.Run(); err != nil {
		logger.Log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}

func runOneShot(ctx context.Context, eng *engine.Engine) int {
	if flagCategory == "" || flagLocation == "" || flagName == "" {
		logger.Log.Errorf("one-shot mode needs -category, -location and -name")
		return 1
	}

	result, err := eng.Run(ctx, model.SearchQuery{
		Category:  flagCategory,
		Location:  flagLocation,
		Requester: flagName,
	})
	if errors.Is(err, engine.ErrNoCompetitors) {
		logger.Log.Infof("no competitors found, try different terms")
		return 0
	}
	if err != nil {
		logger.Log.Errorf("report generation failed: %v", err)
		return 1
	}

	if err := os.WriteFile(flagOut, result.PDF, 0o644); err != nil {
		logger.Log.Errorf("write %s: %v", flagOut, err)
		return 1
	}
	logger.Log.Infof("report %q written to %s", result.Document.Title, flagOut)
	return 0
}
