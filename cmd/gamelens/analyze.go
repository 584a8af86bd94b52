package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamelens"
	"github.com/discochess/gamelens/fx/analyzerfx"
	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/report"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/stats/logger"
	promstats "github.com/discochess/gamelens/internal/stats/prometheus"
	"github.com/discochess/gamelens/internal/store"
	"github.com/discochess/gamelens/internal/store/storeurl"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [PGN file]",
	Short: "Analyze the games of a PGN file",
	Long: `Analyze every game of a PGN file, or standard input when the file is "-".

Each position is evaluated by the evaluation database (--eval-db), the UCI
engine (--engine), or the database with the engine answering positions it
does not hold. With --user only that player's games are analyzed and a
player summary is added.

Examples:
  gamelens analyze games.pgn --engine
  gamelens analyze games.pgn --user magnus --eval-db ./evals --format markdown
  gamelens analyze games.pgn --eval-db ./evals --publish gs://my-bucket/gamelens`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	username    string
	evalDB      string
	useEngine   bool
	enginePath  string
	cacheSize   int
	workers     int
	bookFile    string
	format      string
	publishTo   string
	compress    bool
	metricsAddr string
)

func init() {
	analyzeCmd.Flags().StringVarP(&username, "user", "u", "", "analyze only this player's games")
	analyzeCmd.Flags().StringVar(&evalDB, "eval-db", "", "evaluation database location (directory, gs:// or s3://)")
	analyzeCmd.Flags().BoolVar(&useEngine, "engine", false, "evaluate with the UCI engine")
	analyzeCmd.Flags().StringVar(&enginePath, "engine-path", "", "UCI engine binary, overrides engine.path")
	analyzeCmd.Flags().IntVar(&cacheSize, "cache", 100, "number of database shards cached in memory")
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "games analyzed in parallel, overrides workers")
	analyzeCmd.Flags().StringVar(&bookFile, "book", "", "CSV opening book (eco,name,uci); default is the built-in ECO book")
	analyzeCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, markdown")
	analyzeCmd.Flags().StringVar(&publishTo, "publish", "", "store location to publish JSON reports to")
	analyzeCmd.Flags().BoolVar(&compress, "compress", true, "zstd-compress published reports")
	analyzeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while analyzing")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if enginePath != "" {
		cfg.Engine.Path = enginePath
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	collector, shutdown := newCollector(log)
	defer shutdown()

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	fxCfg := analyzerfx.Config{
		Analysis:  cfg,
		EvalDB:    evalDB,
		CacheSize: cacheSize,
		UseEngine: useEngine,
		BookFile:  bookFile,
	}
	eval, err := analyzerfx.NewEvaluator(ctx, fxCfg, collector, log)
	if err != nil {
		if errors.Is(err, gamelens.ErrNoEvaluator) {
			return fmt.Errorf("%w: pass --eval-db, --engine or both", err)
		}
		return err
	}
	book, err := analyzerfx.LoadBook(bookFile)
	if err != nil {
		eval.Close()
		return err
	}

	a, err := gamelens.New(
		gamelens.WithEvaluator(eval),
		gamelens.WithBook(book),
		gamelens.WithConfig(cfg),
		gamelens.WithStats(collector),
		gamelens.WithLogger(log),
	)
	if err != nil {
		eval.Close()
		return err
	}
	defer a.Close()

	start := time.Now()
	rep, err := a.AnalyzePGN(ctx, in, username)
	if rep == nil {
		return err
	}
	interrupted := err
	log.Info("analysis finished",
		zap.Int("games", len(rep.Games)),
		zap.Int("skipped", len(rep.Skipped)),
		zap.Int("filtered", rep.Filtered),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := writeReport(os.Stdout, rep); err != nil {
		return err
	}
	if publishTo != "" {
		if err := publish(ctx, rep, log); err != nil {
			return err
		}
	}
	for _, s := range rep.Skipped {
		fmt.Fprintf(os.Stderr, "skipped game %d: %s\n", s.Index+1, s.Error)
	}
	return interrupted
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PGN: %w", err)
	}
	return f, nil
}

// newCollector returns a Prometheus collector served on --metrics-addr, or
// a logging collector when no address is set.
func newCollector(log *zap.Logger) (stats.Collector, func()) {
	if metricsAddr == "" {
		return logger.New(log.Named("stats")), func() {}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", metricsAddr))

	return promstats.New(reg), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func writeReport(w io.Writer, rep *gamelens.Report) error {
	switch format {
	case "json":
		return report.WriteJSON(w, rep)
	case "markdown":
		md := report.NewMarkdown(w)
		if rep.Player != nil {
			if err := md.WritePlayer(rep.Player); err != nil {
				return err
			}
		}
		for _, g := range rep.Games {
			if err := md.WriteGame(g); err != nil {
				return err
			}
		}
	default:
		txt := report.NewText(w)
		for _, g := range rep.Games {
			if err := txt.WriteGame(g); err != nil {
				return err
			}
		}
		if rep.Player != nil {
			return txt.WritePlayer(rep.Player)
		}
	}
	return nil
}

func publish(ctx context.Context, rep *gamelens.Report, log *zap.Logger) error {
	var st store.Store
	var err error
	if compress {
		st, err = storeurl.Open(ctx, publishTo, zstdcodec.New())
	} else {
		st, err = storeurl.Open(ctx, publishTo, noopcodec.New())
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", publishTo, err)
	}
	defer st.Close()

	pub := report.NewPublisher(st, log)
	for _, g := range rep.Games {
		if _, err := pub.PublishGame(ctx, g); err != nil {
			return err
		}
	}
	if rep.Player != nil {
		if _, err := pub.PublishPlayer(ctx, rep.Player); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "published %d report(s) to %s\n", len(rep.Games), publishTo)
	return nil
}
