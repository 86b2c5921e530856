package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"godla/adapters/db/postgres"
	"godla/adapters/excel"
	"godla/adapters/modelfile"
	"godla/adapters/specfile"
	"godla/domain/core"
	"godla/internal/api"
	"godla/internal/config"
	"godla/internal/prior"
	"godla/internal/search"
	"godla/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "dlasearch",
		Short: "Damped Lyman-alpha absorber search over quasar spectra",
	}

	rootCmd.AddCommand(
		newSearchCmd(),
		newGenSamplesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSearchCmd() *cobra.Command {
	var serve bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fit every catalog target in the configured spectra file",
		Long: `Run the absorber search over one spectra file.

Inputs come from the environment (or a .env file): DLA_SPECTRA_FILE,
DLA_CATALOG_FILE, DLA_MODEL_FILE, and optionally DLA_SAMPLES_FILE for a
precomputed prior sample set. Detections go to the configured sinks
(DLA_DATABASE_URL, DLA_EXCEL_FILE).

Example: dlasearch search --serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), serve)
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "Keep serving the run inspection API after the batch completes")

	return cmd
}

func newGenSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gensamples [output-file]",
		Short: "Generate and save a prior sample set for reuse across batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			set, err := prior.GenerateSampleSet(cfg.Prior, cfg.Search)
			if err != nil {
				return err
			}
			if err := prior.SaveSampleSet(args[0], cfg.Prior, set); err != nil {
				return err
			}
			log.Printf("wrote %d prior samples to %s", cfg.Prior.NumSamples, args[0])
			return nil
		},
	}
	return cmd
}

func runSearch(ctx context.Context, serve bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Paths.SpectraFile == "" || cfg.Paths.CatalogFile == "" || cfg.Paths.ModelFile == "" {
		return fmt.Errorf("DLA_SPECTRA_FILE, DLA_CATALOG_FILE and DLA_MODEL_FILE must be set")
	}

	bundle, err := modelfile.Load(cfg.Paths.ModelFile)
	if err != nil {
		return err
	}
	log.Printf("loaded model bundle (%s, %d components)", bundle.IGMModel, len(bundle.PCAComp))

	samples, err := loadPrior(cfg)
	if err != nil {
		return err
	}

	catalog, err := specfile.ReadCatalog(cfg.Paths.CatalogFile)
	if err != nil {
		return err
	}
	tids := make([]core.TargetID, len(catalog))
	for i, entry := range catalog {
		tids[i] = entry.TargetID
	}
	log.Printf("catalog holds %d targets", len(catalog))

	group, err := specfile.NewReader().ReadGroup(ctx, cfg.Paths.SpectraFile, tids)
	if err != nil {
		return err
	}

	sinks, cleanup, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := search.New(cfg, bundle, samples)
	result, err := orch.Run(ctx, group, catalog)
	if err != nil {
		return err
	}

	for _, sink := range sinks {
		if err := sink.WriteDetections(ctx, result.RunID, result.Detections); err != nil {
			return err
		}
	}

	if serve && cfg.Sinks.APIAddr != "" {
		return serveAPI(ctx, cfg.Sinks.APIAddr, result)
	}
	return nil
}

// loadPrior prefers a precomputed sample file and falls back to on-the-fly
// generation when none is configured.
func loadPrior(cfg *config.Config) (ports.AbsorberPrior, error) {
	if cfg.Paths.SamplesFile != "" {
		set, err := prior.LoadSampleSet(cfg.Paths.SamplesFile, cfg.Prior, cfg.Search)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d prior samples from %s", cfg.Prior.NumSamples, cfg.Paths.SamplesFile)
		return set, nil
	}
	log.Printf("generating %d prior samples", cfg.Prior.NumSamples)
	return prior.GenerateSampleSet(cfg.Prior, cfg.Search)
}

// buildSinks assembles the configured result sinks.
func buildSinks(cfg *config.Config) ([]ports.ResultSink, func(), error) {
	var sinks []ports.ResultSink
	cleanup := func() {}

	if url := cfg.Sinks.DatabaseURL; url != "" {
		db, err := sqlx.Connect("postgres", url)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		cleanup = func() { db.Close() }

		adapter := postgres.NewDetectionsAdapter(db)
		if err := adapter.EnsureSchema(context.Background()); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		sinks = append(sinks, adapter)
	}

	if path := cfg.Sinks.ExcelFile; path != "" {
		sinks = append(sinks, excel.NewDetectionWriter(path))
	}

	return sinks, cleanup, nil
}

// serveAPI exposes the completed run for inspection until interrupted.
func serveAPI(ctx context.Context, addr string, result *search.BatchResult) error {
	store := api.NewRunStore()
	store.Add(result)

	srv := &http.Server{Addr: addr, Handler: api.NewServer(store)}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving run %s on %s", result.RunID, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
