package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/engine/lookup"
	"github.com/discochess/gamelens/internal/shard"
	"github.com/discochess/gamelens/internal/shard/fnvshard"
	"github.com/discochess/gamelens/internal/shard/materialshard"
	"github.com/discochess/gamelens/internal/store/storeurl"
)

// DefaultSourceURL is the Lichess evaluation dump.
const DefaultSourceURL = "https://database.lichess.org/lichess_db_eval.jsonl.zst"

var evaldbCmd = &cobra.Command{
	Use:   "evaldb",
	Short: "Manage the evaluation database",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the evaluation database from a Lichess dump",
	Long: `Build the evaluation database from the Lichess evaluation dump.

This command will:
1. Read the dump from a URL or a local file (.zst files are decompressed)
2. Distribute positions to shards using the configured strategy
3. Sort positions within each shard by FEN
4. Compress shards with zstd and write them with a manifest

The output may be a directory, gs://bucket/prefix or s3://bucket/prefix.

Examples:
  # Build from the default Lichess source
  gamelens evaldb build --output ./evals

  # Build from a local file into a bucket
  gamelens evaldb build --source ./lichess_db_eval.jsonl.zst --output gs://my-bucket/evals`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the manifest of an evaluation database",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	sourceURL    string
	outputLoc    string
	totalShards  int
	strategyName string
	buildWorkers int
	statsDB      string
)

func init() {
	buildCmd.Flags().StringVar(&sourceURL, "source", DefaultSourceURL, "source URL or local file path")
	buildCmd.Flags().StringVarP(&outputLoc, "output", "o", "./evals", "output location")
	buildCmd.Flags().IntVar(&totalShards, "shards", 32768, "number of shards to create")
	buildCmd.Flags().StringVar(&strategyName, "strategy", materialshard.Name, "sharding strategy: material, fnv32")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "number of shards written in parallel")
	statsCmd.Flags().StringVar(&statsDB, "eval-db", "./evals", "evaluation database location")

	evaldbCmd.AddCommand(buildCmd, statsCmd)
	rootCmd.AddCommand(evaldbCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	var strategy shard.Strategy
	switch strategyName {
	case materialshard.Name:
		strategy = materialshard.New()
	case fnvshard.Name:
		strategy = fnvshard.New()
	default:
		return fmt.Errorf("unknown strategy: %s", strategyName)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if l, err := storeurl.Parse(outputLoc); err == nil && l.Scheme == storeurl.SchemeFile {
		if err := os.MkdirAll(l.Path, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	shards, err := storeurl.Open(ctx, outputLoc, zstdcodec.New())
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer shards.Close()
	meta, err := storeurl.Open(ctx, outputLoc, noopcodec.New())
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer meta.Close()

	src, err := openSource(ctx, sourceURL)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Printf("Building evaluation database\n")
	fmt.Printf("  Source:   %s\n", sourceURL)
	fmt.Printf("  Output:   %s\n", outputLoc)
	fmt.Printf("  Shards:   %d\n", totalShards)
	fmt.Printf("  Strategy: %s\n", strategy.Name())
	fmt.Printf("  Workers:  %d\n", buildWorkers)
	fmt.Println()

	b := lookup.NewBuilder(
		lookup.BuildWithStrategy(strategy),
		lookup.BuildWithTotalShards(totalShards),
		lookup.BuildWithWorkers(buildWorkers),
		lookup.BuildWithSourceURL(sourceURL),
		lookup.BuildWithCompression(lookup.CompressionZstd),
		lookup.BuildWithLogger(log),
	)
	m, err := b.Build(ctx, src, shards, meta)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d records to %d shards\n", m.RecordCount, m.ShardCount)
	return nil
}

// openSource opens a local file or downloads url. Sources ending in .zst
// are decompressed.
func openSource(ctx context.Context, url string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", url, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("downloading %s: %s", url, resp.Status)
		}
		rc = resp.Body
	} else {
		f, err := os.Open(url)
		if err != nil {
			return nil, fmt.Errorf("opening source: %w", err)
		}
		rc = f
	}

	if !strings.HasSuffix(url, ".zst") {
		return rc, nil
	}
	dec, err := zstdcodec.New().Reader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return &stackedCloser{ReadCloser: dec, under: rc}, nil
}

// stackedCloser closes a decompressor and the stream below it.
type stackedCloser struct {
	io.ReadCloser
	under io.Closer
}

func (s *stackedCloser) Close() error {
	s.ReadCloser.Close()
	return s.under.Close()
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	meta, err := storeurl.Open(ctx, statsDB, noopcodec.New())
	if err != nil {
		return err
	}
	defer meta.Close()

	m, err := lookup.ReadManifest(ctx, meta)
	if err != nil {
		return fmt.Errorf("%w; run 'gamelens evaldb build' first", err)
	}

	fmt.Printf("Evaluation database: %s\n", statsDB)
	fmt.Printf("  Records:     %d\n", m.RecordCount)
	fmt.Printf("  Shards:      %d of %d non-empty\n", m.ShardCount, m.TotalShards)
	fmt.Printf("  Strategy:    %s\n", m.Strategy)
	fmt.Printf("  Compression: %s\n", m.Compression)
	fmt.Printf("  Built:       %s\n", m.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	if m.SourceURL != "" {
		fmt.Printf("  Source:      %s\n", m.SourceURL)
	}
	return nil
}
