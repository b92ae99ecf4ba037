package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"medallion/internal/backtest"
	"medallion/internal/config"
	"medallion/internal/domain"
	"medallion/internal/fetch"
	"medallion/internal/indicator"
	"medallion/internal/pipeline"
	"medallion/internal/store"
	"medallion/internal/strategy"
	"medallion/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: medallion [command] [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run        Run the full pipeline and backtest for a ticker\n")
		fmt.Fprintf(os.Stderr, "  erase      Erase cached pipeline data for a ticker\n")
		fmt.Fprintf(os.Stderr, "  runs       Show recorded backtest runs for a ticker\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\nWithout a command, medallion starts the interactive menu.\n")
	}

	if len(os.Args) < 2 {
		interactive()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("medallion %s\n", version)

	case "run":
		runCmd(os.Args[2:])

	case "erase":
		eraseCmd(os.Args[2:])

	case "runs":
		runsCmd(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Wiring
// ---------------------------------------------------------------------------

// app bundles the wired pipeline and its closable resources.
type app struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
	runs *store.RunStore
}

func configPath() string {
	if p := os.Getenv("MEDALLION_CONFIG"); p != "" {
		return p
	}
	return "config/medallion.yaml"
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	policy, err := indicator.ParseZeroLossPolicy(cfg.Pipeline.RSIZeroLoss)
	if err != nil {
		return nil, err
	}

	defaultStart, err := time.Parse("2006-01-02", cfg.Pipeline.DefaultStart)
	if err != nil {
		return nil, fmt.Errorf("parsing default_start %q: %w", cfg.Pipeline.DefaultStart, err)
	}

	var fetcher fetch.Fetcher
	switch strings.ToLower(cfg.Provider.Name) {
	case "alpaca":
		fetcher = fetch.NewAlpacaFetcher(cfg.Provider.Alpaca.APIKey, cfg.Provider.Alpaca.APISecret, cfg.Provider.Alpaca.DataURL)
	case "yahoo":
		fetcher = fetch.NewYahooFetcher(cfg.Provider.RateLimitPerMin)
	default:
		return nil, fmt.Errorf("unknown provider %q (want yahoo or alpaca)", cfg.Provider.Name)
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewRSIMeanReversion(cfg.Pipeline.RSILower, cfg.Pipeline.RSIUpper))

	pipe := pipeline.New(
		store.NewParquetStore(cfg.Storage.DataDir),
		fetcher,
		registry,
		pipeline.Config{
			Interval:       domain.Interval(cfg.Pipeline.Interval),
			DefaultStart:   defaultStart,
			LookbackPeriod: cfg.Pipeline.LookbackPeriod,
			ZeroLoss:       policy,
		},
	)

	a := &app{cfg: cfg, pipe: pipe}
	if runs, err := store.OpenRunStore(cfg.Storage.SQLitePath); err != nil {
		logger.Warn("run history unavailable", "path", cfg.Storage.SQLitePath, "err", err)
	} else {
		a.runs = runs
		pipe.SetRunStore(runs)
	}
	return a, nil
}

func (a *app) Close() {
	if a.runs != nil {
		a.runs.Close()
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	ticker := fs.String("ticker", "", "ticker symbol (e.g. NVDA, BTC-USD)")
	strategyName := fs.String("strategy", "baseline", "strategy name")
	startStr := fs.String("start", "", "backtest window start (YYYY-MM-DD)")
	endStr := fs.String("end", "", "backtest window end (YYYY-MM-DD)")
	fs.Parse(args)

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "run: -ticker is required")
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer a.Close()

	start, err := parseDate(*startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := parseDate(*endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runPipeline(ctx, a, strings.ToUpper(*ticker), *strategyName, start, end)
}

func runPipeline(ctx context.Context, a *app, ticker, strategyName string, start, end time.Time) {
	rows, report, err := a.pipe.Run(ctx, ticker, strategyName, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed for %s: %v\n", ticker, err)
		return
	}
	backtest.RenderReport(os.Stdout, ticker, rows, report)
}

func eraseCmd(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	ticker := fs.String("ticker", "", "ticker symbol")
	stage := fs.String("stage", "all", "stage to erase: raw, features, insights, both, all")
	fs.Parse(args)

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "erase: -ticker is required")
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer a.Close()

	if err := a.pipe.Erase(strings.ToUpper(*ticker), pipeline.Stage(*stage)); err != nil {
		fmt.Fprintf(os.Stderr, "erase failed: %v\n", err)
		os.Exit(1)
	}
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	ticker := fs.String("ticker", "", "ticker symbol")
	limit := fs.Int("limit", 10, "max runs to show")
	fs.Parse(args)

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "runs: -ticker is required")
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer a.Close()

	if a.runs == nil {
		fmt.Fprintln(os.Stderr, "run history is unavailable")
		os.Exit(1)
	}

	runs, err := a.runs.ListRuns(context.Background(), strings.ToUpper(*ticker), *limit)
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Printf("no recorded runs for %s\n", strings.ToUpper(*ticker))
		return
	}

	for _, r := range runs {
		fmt.Printf("%s  %-10s %-10s bars=%-5d trades=%-3d win=%5.1f%%  asset=%+.2f%%  strategy=%+.2f%%\n",
			r.RunAt.Format("2006-01-02 15:04"),
			r.Ticker, r.Strategy, r.Bars, r.Trades,
			r.WinRate*100, r.AssetReturn*100, r.StrategyReturn*100,
		)
	}
}

// ---------------------------------------------------------------------------
// Interactive menu
// ---------------------------------------------------------------------------

func interactive() {
	a, err := newApp()
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer a.Close()

	in := bufio.NewReader(os.Stdin)
	prompt := func(label, fallback string) string {
		fmt.Print(label)
		line, _ := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return fallback
		}
		return line
	}

	fmt.Println()
	fmt.Println(strings.Repeat("*", 50))
	fmt.Println("   QUANTITATIVE TRADING ENGINE - LIVE DEMO   ")
	fmt.Println(strings.Repeat("*", 50))

	for {
		fmt.Println("\nOptions:")
		fmt.Println("  [1] Run Backtest on a Ticker")
		fmt.Println("  [2] Clear Data Cache")
		fmt.Println("  [3] Exit Engine")

		switch choice := prompt("\nSelect an option (1-3): ", ""); choice {
		case "1":
			ticker := strings.ToUpper(prompt("Enter a ticker symbol (e.g. NVDA, BTC-USD, SPY): ", ""))
			if ticker == "" {
				fmt.Println("Ticker cannot be blank.")
				continue
			}
			strategyName := strings.ToLower(prompt("Enter strategy name (default 'baseline'): ", "baseline"))
			start, err := parseDate(prompt("  Start Date (YYYY-MM-DD) [default: full history]: ", ""))
			if err != nil {
				fmt.Printf("Invalid start date: %v\n", err)
				continue
			}
			end, err := parseDate(prompt("  End Date   (YYYY-MM-DD) [default: today]:        ", ""))
			if err != nil {
				fmt.Printf("Invalid end date: %v\n", err)
				continue
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			runPipeline(ctx, a, ticker, strategyName, start, end)
			cancel()

		case "2":
			ticker := strings.ToUpper(prompt("Enter the ticker to erase: ", ""))
			if ticker == "" {
				fmt.Println("Ticker cannot be blank.")
				continue
			}
			stage := strings.ToLower(prompt("Enter stage ('raw', 'features', 'insights', 'both', 'all') [default: 'all']: ", "all"))
			if err := a.pipe.Erase(ticker, pipeline.Stage(stage)); err != nil {
				fmt.Printf("Erase failed: %v\n", err)
				continue
			}
			fmt.Printf("Cache cleared for %s. Next run will be a full historical fetch.\n", ticker)

		case "3", "q", "quit", "exit":
			fmt.Println("\nShutting down engine. Goodbye!")
			return

		default:
			fmt.Println("\nInvalid choice. Please enter 1, 2, or 3.")
		}
	}
}
