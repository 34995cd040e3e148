package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"course-advisor/internal/adapter/loader"
	"course-advisor/internal/di"
	"course-advisor/internal/infra/config"
	"course-advisor/internal/infra/logger"
	"course-advisor/internal/infra/metrics"
	"course-advisor/internal/ingest"
	"course-advisor/internal/usecase"
	"course-advisor/internal/worker"
)

var (
	version = "dev"

	// Global flags
	verbose      bool
	dir          string
	manifestFile string

	// Build command flags
	force bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ingest",
	Short:   "Build and maintain the course catalog index",
	Version: version,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Load the catalog folder and index it",
	Long: `Load every .pdf, .txt and .md file in the catalog folder, split it into
chunks, embed the chunks and upsert them into the configured index.

Chunk IDs are derived from the file name, position and content, so running
build twice on the same folder leaves the index unchanged. When the folder
is missing or empty the built-in Fall 2025 sample catalogs are indexed.

Examples:
  # Index ./pdfs into the configured backend
  ingest build

  # Rebuild from scratch
  ingest build --dir catalogs --force`,
	RunE: runBuild,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index catalog files as they change",
	RunE:  runWatch,
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of indexed chunks",
	RunE:  runCount,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded build",
	RunE:  showStatus,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "catalog folder (defaults to INGEST_DIR)")
	rootCmd.PersistentFlags().StringVar(&manifestFile, "manifest-file", "ingest-manifest.json", "build manifest path")

	buildCmd.Flags().BoolVar(&force, "force", false, "clear the index before ingesting")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(statusCmd)
}

func setup() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if dir == "" {
		dir = cfg.Ingest.Dir
	}
	return cfg, logger.New("course-advisor-ingest", level)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info("signal_received", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	ctx, cancel := signalContext(log)
	defer cancel()

	store := ingest.NewManifestStore(manifestFile)
	if err := store.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			log.Warn("manifest_unlock_failed", slog.String("error", err.Error()))
		}
	}()

	components, err := di.NewIngestComponents(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire ingestion: %w", err)
	}
	defer components.Close()

	docs, err := components.Loader.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return errors.New("no documents were loaded, check the catalog files")
	}

	log.Info("ingest_build_started",
		slog.String("dir", dir),
		slog.String("backend", cfg.Index.Backend),
		slog.Int("documents", len(docs)),
		slog.Bool("force", force))

	start := time.Now()
	out, err := components.IndexUsecase.Execute(ctx, usecase.IndexDocumentsInput{Documents: docs, Force: force})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("ingest_build_interrupted")
			return nil
		}
		return fmt.Errorf("index documents: %w", err)
	}
	metrics.RecordIndexed("build", out.Chunks)

	if err := store.Save(ingest.Manifest{
		Dir:             dir,
		Backend:         cfg.Index.Backend,
		Collection:      cfg.Index.Collection,
		Sources:         out.Sources,
		Documents:       out.Documents,
		Chunks:          out.Chunks,
		ChunkerVersion:  string(components.Chunker.Version()),
		EmbedderVersion: components.Encoder.Version(),
		Forced:          force,
	}); err != nil {
		log.Warn("manifest_save_failed", slog.String("error", err.Error()))
	}

	fmt.Printf("Indexed %d chunks from %d documents (%d sources) in %s\n",
		out.Chunks, out.Documents, out.Sources, time.Since(start).Round(time.Millisecond))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	ctx, cancel := signalContext(log)
	defer cancel()

	components, err := di.NewIngestComponents(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire ingestion: %w", err)
	}
	defer components.Close()

	w := worker.NewIndexWorker(dir, components.Loader, components.IndexUsecase, loader.Supported, cfg.Ingest.WatchDebounce, log)
	if err := w.Start(); err != nil {
		return err
	}
	fmt.Printf("Watching %s, press Ctrl+C to stop\n", dir)

	<-ctx.Done()
	w.Stop()
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	ctx, cancel := signalContext(log)
	defer cancel()

	components, err := di.NewIngestComponents(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire ingestion: %w", err)
	}
	defer components.Close()

	n, err := components.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	fmt.Println(n)
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	store := ingest.NewManifestStore(manifestFile)
	m, err := store.Load()
	if err != nil {
		return err
	}
	if m.IsEmpty() {
		fmt.Println("No build recorded yet. Run `ingest build` first.")
		return nil
	}

	fmt.Printf("Last Build:\n")
	fmt.Printf("  Folder:           %s\n", m.Dir)
	fmt.Printf("  Backend:          %s (%s)\n", m.Backend, m.Collection)
	fmt.Printf("  Sources:          %d\n", m.Sources)
	fmt.Printf("  Documents:        %d\n", m.Documents)
	fmt.Printf("  Chunks:           %d\n", m.Chunks)
	fmt.Printf("  Chunker Version:  %s\n", m.ChunkerVersion)
	fmt.Printf("  Embedder Version: %s\n", m.EmbedderVersion)
	fmt.Printf("  Forced:           %t\n", m.Forced)
	fmt.Printf("  Updated At:       %s\n", m.UpdatedAt.Format(time.RFC3339))
	return nil
}
