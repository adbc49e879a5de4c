// -----------------------------------------------------------------------
// Application wiring - Service graph and the single-run analysis driver
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/analysis"
	"github.com/rushabhkhandhar/one-stock-solution/internal/capability"
	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
	"github.com/rushabhkhandhar/one-stock-solution/internal/safety"
	"github.com/rushabhkhandhar/one-stock-solution/internal/services/documents"
	"github.com/rushabhkhandhar/one-stock-solution/internal/services/feeds"
	"github.com/rushabhkhandhar/one-stock-solution/internal/services/ingestion"
	"github.com/rushabhkhandhar/one-stock-solution/internal/services/report"
	"github.com/rushabhkhandhar/one-stock-solution/internal/storage"
	"github.com/rushabhkhandhar/one-stock-solution/internal/synthesis"
	"github.com/rushabhkhandhar/one-stock-solution/internal/textintel"
	"github.com/rushabhkhandhar/one-stock-solution/internal/validation"
)

// App holds the wired service graph for one process. Construction
// validates the configuration and the phase dependency graph; both are
// misconfigurations when invalid, the only fatal error class.
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Ingestion interfaces.IngestionService
	Feeds     interfaces.MarketFeedService
	Filings   interfaces.FilingService
	Report    *report.Service

	pipeline   *pipeline.Pipeline
	killSwitch *safety.KillSwitch
}

// AnalysisResult is the complete outcome of one run, everything the
// report consumed plus the artifact paths it produced.
type AnalysisResult struct {
	RunID     string
	Profile   models.Profile
	Verdict   *models.Verdict
	Consensus models.Consensus
	Veto      models.Veto
	Trust     *models.TrustReport
	Votes     []models.Vote
	Phases    []models.PhaseResult
	Envelopes models.Set
	Artifacts *report.Artifacts
}

// New initializes the application with all dependencies.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager
	snapshots := storageManager.SnapshotStore()

	app.Ingestion = ingestion.NewService(cfg.Ingestion, snapshots, cfg.App.Offline, logger)
	app.Feeds = feeds.NewService(cfg.Feeds, snapshots, cfg.App.Offline, logger)
	app.Filings = documents.NewService(cfg.Documents, snapshots, documents.NewExtractor(logger), cfg.App.Offline, logger)
	app.Report = report.NewService(cfg.Report, cfg.App.OutputDir, logger)

	lexicon := textintel.DefaultLexicon()
	if cfg.Analysis.LexiconFile != "" {
		lexicon, err = textintel.LoadLexicon(cfg.Analysis.LexiconFile)
		if err != nil {
			return nil, models.Misconfigf("lexicon file %s: %v", cfg.Analysis.LexiconFile, err)
		}
		logger.Info().Str("path", cfg.Analysis.LexiconFile).Msg("Lexicon overrides loaded")
	}

	phases := analysis.Phases(cfg.Analysis, lexicon)
	phases = append(phases, pipeline.Phase{
		ID:    "validation",
		Title: "Cross-Source Validation",
		Modules: []pipeline.Module{
			validation.NewModule(validation.NewValidator(cfg.Validation, nil)),
		},
	})

	app.pipeline, err = pipeline.New(cfg, logger, analysis.SeedContract(), phases)
	if err != nil {
		return app, err
	}

	app.killSwitch = safety.NewKillSwitch(cfg.Safety, logger)

	logger.Info().
		Int("phases", len(phases)).
		Bool("offline", cfg.App.Offline).
		Msg("Application initialization complete")

	return app, nil
}

// Analyze runs the full pipeline for one symbol: collect, analyze,
// validate, synthesize, apply the safety gate, write the report.
//
// Collection failures degrade: every envelope a collaborator could not
// deliver enters the pipeline as unavailable and the run continues to
// a verdict. Only context cancellation aborts mid-run.
func (a *App) Analyze(ctx context.Context, rawSymbol string) (*AnalysisResult, error) {
	symbol := common.ParseSymbol(rawSymbol)
	if !symbol.IsValid() {
		return nil, fmt.Errorf("symbol %q is not usable", rawSymbol)
	}

	runID := common.NewRunID()
	started := time.Now()
	a.Logger.Info().
		Str("run_id", runID).
		Str("symbol", symbol.String()).
		Msg("Analysis run starting")

	profile, seed := a.collect(ctx, symbol)

	run, err := a.pipeline.Run(ctx, profile, seed)
	if err != nil {
		return nil, err
	}

	consensus := synthesis.Synthesize(a.Config.Synthesis, run.Votes)
	veto := a.killSwitch.Check(run.Envelopes, run.Trust, a.refreshHistory(ctx, symbol), time.Now())
	verdict := a.buildVerdict(runID, symbol, run, consensus, veto)

	result := &AnalysisResult{
		RunID:     runID,
		Profile:   profile,
		Verdict:   verdict,
		Consensus: consensus,
		Veto:      veto,
		Trust:     run.Trust,
		Votes:     run.Votes,
		Phases:    run.Phases,
		Envelopes: run.Envelopes,
	}

	if err := verdict.Validate(); err != nil {
		// A malformed verdict is an assembler fault, not a crash: the
		// caller still gets the run data, just no report files.
		fault := models.NewFault("report_assembler", err, nil)
		a.Logger.Error().Err(fault).Msg("Verdict failed schema validation, skipping report")
		return result, nil
	}

	artifacts, err := a.Report.Write(&report.Input{
		Profile:   profile,
		Verdict:   verdict,
		Consensus: consensus,
		Veto:      veto,
		Trust:     run.Trust,
		Votes:     run.Votes,
		Phases:    run.Phases,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("Report write failed")
	} else {
		result.Artifacts = artifacts
	}

	a.Logger.Info().
		Str("run_id", runID).
		Str("rating", string(verdict.Rating)).
		Float64("positive_fraction", verdict.PositiveFraction).
		Float64("trust", verdict.TrustScore).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Analysis run complete")

	return result, nil
}

// collect gathers every external source into the seed envelope set and
// classifies the entity. Each collaborator degrades independently; a
// failed source contributes nothing and the pipeline substitutes
// unavailable envelopes for the gap.
func (a *App) collect(ctx context.Context, symbol common.Symbol) (models.Profile, models.Set) {
	seed := make(models.Set)
	profile := models.Profile{
		Symbol:         symbol.Code,
		Exchange:       symbol.Exchange,
		Classification: models.ClassStandard,
	}

	var filingLinks []interfaces.DocumentLink
	if res, err := a.Ingestion.Fundamentals(ctx, symbol); err != nil {
		a.Logger.Warn().Err(err).Str("symbol", symbol.Raw).Msg("Fundamentals unavailable for this run")
	} else {
		profile = res.Profile
		filingLinks = res.Documents
		seed = seed.Merge(res.Envelopes...)
	}

	if res, err := a.Ingestion.Prices(ctx, symbol); err != nil {
		a.Logger.Warn().Err(err).Str("symbol", symbol.Raw).Msg("Price history unavailable for this run")
	} else {
		seed = seed.Merge(res.Envelopes...)
	}

	seed = seed.Merge(a.Feeds.Parameters(ctx)...)

	// Beta is regressed from the two price histories collected above.
	// It has to land in the seed here because modules cannot overwrite
	// seeded names once the pipeline starts.
	if closes, ok := seed.SeriesOf("price.close"); ok {
		if index, ok := seed.SeriesOf("params.index_close"); ok {
			if beta, ok := feeds.Beta(closes, index); ok {
				seed = seed.Merge(models.NewScalar("price.beta", beta, models.UnitRatio, models.SourceDerived))
			}
		}
	}

	if envs, err := a.Filings.Extract(ctx, symbol, filingLinks); err != nil {
		a.Logger.Warn().Err(err).Str("symbol", symbol.Raw).Msg("Filing extraction unavailable for this run")
	} else {
		seed = seed.Merge(envs...)
	}

	profile.Classification = capability.Classify(profile.Sector, profile.Industry, seed)
	a.Logger.Info().
		Str("symbol", symbol.Code).
		Str("classification", string(profile.Classification)).
		Int("seed_envelopes", len(seed)).
		Msg("Collection complete")

	return profile, seed
}

// refreshHistory loads the observed update timestamps per data class
// for the staleness check.
func (a *App) refreshHistory(ctx context.Context, symbol common.Symbol) map[models.DataClass][]time.Time {
	out := make(map[models.DataClass][]time.Time)
	for _, class := range []models.DataClass{
		models.DataClassPrices,
		models.DataClassFundamentals,
		models.DataClassShareholding,
		models.DataClassFilings,
	} {
		history, err := a.StorageManager.SnapshotStore().RefreshHistory(ctx, symbol.Code, class)
		if err != nil {
			a.Logger.Warn().Err(err).Str("class", string(class)).Msg("Refresh history unavailable")
			continue
		}
		if len(history) > 0 {
			out[class] = history
		}
	}
	return out
}

// buildVerdict folds consensus, trust and the veto into the final
// verdict. The veto is absolute: once tripped, no vote distribution
// can produce anything but SUSPENDED.
func (a *App) buildVerdict(runID string, symbol common.Symbol, run *pipeline.RunResult, consensus models.Consensus, veto models.Veto) *models.Verdict {
	// No trust report means validation never ran; the band says so
	// instead of masquerading as a scored UNRELIABLE.
	trustScore := 0.0
	trustBand := models.TrustUnknown
	if run.Trust != nil {
		trustScore = run.Trust.Score
		trustBand = run.Trust.Band
	}

	available, unavailable := run.Envelopes.Counts()

	v := &models.Verdict{
		Symbol:           symbol.Code,
		RunID:            runID,
		Rating:           consensus.Rating,
		PositiveFraction: consensus.PositiveFraction,
		TrustScore:       trustScore,
		TrustBand:        trustBand,
		Confidence:       consensus.Confidence,
		VotesAvailable:   consensus.Available,
		VotesRegistered:  consensus.Registered,
		SignalsAvailable: available,
		SignalsMissing:   unavailable,
		Thesis:           consensus.Drivers,
		GeneratedAt:      time.Now(),
	}

	switch {
	case veto.Tripped:
		v.Rating = models.RatingSuspended
		v.VetoReason = veto.Reason
		v.Thesis = nil
	case consensus.Available == 0:
		v.Rating = models.RatingSuspended
		v.VetoReason = "no available signals"
	}

	return v
}

// Close releases application resources.
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
