package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"minerva/internal/adapters/ai"
	"minerva/internal/adapters/config"
	"minerva/internal/adapters/errors/noop"
	"minerva/internal/adapters/errors/sentry"
	"minerva/internal/adapters/kafka"
	"minerva/internal/adapters/marketdata"
	redisadapter "minerva/internal/adapters/redis"
	"minerva/internal/agents"
	"minerva/internal/events"
	"minerva/internal/metrics"
	"minerva/internal/modes"
	redisrepo "minerva/internal/repository/redis"
	"minerva/internal/tools"
	"minerva/internal/workflow"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

func main() {
	var (
		symbol       = flag.String("symbol", "", "stock ticker to analyze (required)")
		date         = flag.String("date", "", "as-of trade date, YYYY-MM-DD (default today)")
		skipResearch = flag.Bool("skip-research", false, "disable the research debate phase")
		skipRisk     = flag.Bool("skip-risk", false, "disable the risk committee phase")
		debateRounds = flag.Int("debate-rounds", 0, "override research debate round count")
		riskRounds   = flag.Int("risk-rounds", 0, "override risk committee round count")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}
	asOf, err := parseDate(*date)
	if err != nil {
		log.Fatalf("Invalid -date: %v", err)
	}

	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Warnf("Metrics server stopped: %v", err)
			}
		}()
		log.Infof("Metrics exposed on %s", cfg.Metrics.Addr)
	}

	providers, err := initProviders(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize AI providers: %v", err)
	}

	toolRegistry := tools.NewRegistry()
	tools.RegisterMarketTools(toolRegistry, marketdata.NewSyntheticSource(30))

	resolver := modes.NewResolver(cfg.Modes.ConfigDir)
	if err := modes.EnsureConfigFiles(resolver, cfg.Modes.InstallDir); err != nil {
		log.Fatalf("Failed to bootstrap agent configs: %v", err)
	}

	store := initRunStore(cfg, log)
	sink := &trackingSink{inner: initProgressSink(cfg, log)}

	invoker := agents.NewInvoker(providers, toolRegistry, agents.NewCostTracker(),
		cfg.AI.DefaultProvider, cfg.AI.DefaultModel)
	runner := workflow.NewPhaseRunner(invoker, 4)
	debate := workflow.NewDebateController(invoker, workflow.NewJaccardConvergence())

	orch := workflow.NewOrchestrator(resolver, runner, debate, sink, store, workflow.Options{
		PhaseTimeout: cfg.Workflow.PhaseTimeout,
		MaxCostUSD:   decimal.NewFromFloat(cfg.Workflow.MaxCostPerRunUSD),
	})

	// SIGINT requests cooperative cancellation; the in-flight phase
	// finishes before the run stops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(orch, sink, log)

	req := workflow.RunRequest{
		Symbol: *symbol,
		AsOf:   asOf,
		PhaseToggles: map[int]bool{
			workflow.PhaseResearchDebate: !*skipResearch,
			workflow.PhaseRiskDebate:     !*skipRisk,
		},
		RoundOverrides: map[int]int{
			workflow.PhaseResearchDebate: pickRounds(*debateRounds, cfg.Workflow.DebateRounds),
			workflow.PhaseRiskDebate:     pickRounds(*riskRounds, cfg.Workflow.RiskRounds),
		},
	}

	run, err := orch.StartRun(ctx, req)
	if err != nil {
		log.Fatalf("Analysis did not start: %v", err)
	}

	printReport(run)

	if err := errorTracker.Flush(ctx); err != nil {
		log.Warnf("Failed to flush error tracker: %v", err)
	}
	if run.Status != workflow.StatusCompleted {
		os.Exit(1)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initProviders registers every AI provider an API key is present for
func initProviders(cfg *config.Config) (*ai.ProviderRegistry, error) {
	registry := ai.NewProviderRegistry()

	if cfg.AI.OpenAIKey != "" {
		limiter := ai.NewRateLimiter(ai.ProviderNameOpenAI, cfg.AI.RequestsPerMin, cfg.AI.RequestBurst)
		if err := registry.Register(ai.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.RequestTimeout, limiter)); err != nil {
			return nil, err
		}
	}
	if cfg.AI.GeminiKey != "" {
		limiter := ai.NewRateLimiter(ai.ProviderNameGemini, cfg.AI.RequestsPerMin, cfg.AI.RequestBurst)
		provider, err := ai.NewGeminiProvider(context.Background(), cfg.AI.GeminiKey, cfg.AI.RequestTimeout, limiter)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if len(registry.List()) == 0 {
		return nil, errors.Wrap(errors.ErrConfiguration, "no AI provider configured, set OPENAI_API_KEY or GEMINI_API_KEY")
	}
	return registry, nil
}

// initRunStore connects the Redis archive. The run still works without it.
func initRunStore(cfg *config.Config, log *logger.Logger) workflow.RunStore {
	client, err := redisadapter.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, run snapshots disabled: %v", err)
		return nil
	}
	return redisrepo.NewRunRepository(client.Client(), cfg.Workflow.RunSnapshotTTL)
}

// initProgressSink picks Kafka when enabled, the log otherwise
func initProgressSink(cfg *config.Config, log *logger.Logger) workflow.ProgressSink {
	if cfg.Kafka.Enabled {
		log.Infof("Publishing progress events to Kafka (%v)", cfg.Kafka.Brokers)
		return events.NewPublisher(kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers}))
	}
	return events.NewLogSink()
}

// trackingSink remembers the active run ID so the signal handler can
// request cancellation by ID
type trackingSink struct {
	inner workflow.ProgressSink
	runID atomic.Value
}

func (s *trackingSink) Emit(ctx context.Context, event workflow.ProgressEvent) error {
	s.runID.Store(event.RunID)
	return s.inner.Emit(ctx, event)
}

func watchSignals(orch *workflow.Orchestrator, sink *trackingSink, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	runID, _ := sink.runID.Load().(string)
	if runID == "" {
		log.Warn("Interrupt received before any run started, exiting")
		os.Exit(130)
	}
	log.Infof("Interrupt received, cancelling run %s at the next phase boundary", runID)
	if err := orch.CancelRun(runID); err != nil {
		log.Warnf("Cancellation failed: %v", err)
	}
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", value)
}

func pickRounds(override, configured int) int {
	if override > 0 {
		return override
	}
	return configured
}

func printReport(run *workflow.AnalysisRun) {
	fmt.Printf("\n=== Analysis %s ===\n", run.ID)
	fmt.Printf("Symbol: %s  As of: %s  Status: %s\n", run.Symbol, run.AsOf.Format("2006-01-02"), run.Status)
	if run.Status == workflow.StatusFailed {
		fmt.Printf("Failed in phase %d (role %s): %s\n", run.FailedPhase, run.FailedRole, run.Error)
	}

	for _, phaseID := range workflow.ExecutionOrder {
		out, ok := run.Results[phaseID]
		if !ok {
			continue
		}
		fmt.Printf("\n--- Phase %d: %s (cost $%s) ---\n", out.PhaseID, out.PhaseName, out.CostUSD.StringFixed(4))
		if out.Synthesis != "" {
			fmt.Println(out.Synthesis)
			continue
		}
		fmt.Println(out.Merged())
	}

	fmt.Printf("\nTotal cost: $%s\n", run.TotalCostUSD.StringFixed(4))
}
