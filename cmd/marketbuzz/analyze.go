package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/internal/export"
	"github.com/sameer-vaidya/marketbuzz/internal/pipeline"
	"github.com/sameer-vaidya/marketbuzz/internal/source"
	"github.com/sameer-vaidya/marketbuzz/internal/store"
	"github.com/sameer-vaidya/marketbuzz/models"
)

func analyzeCMD() *cobra.Command {
	var (
		cfgPath     string
		input       string
		sampleCount int
		seed        int64
		strategy    string
		window      time.Duration
		output      string
		format      string
		persist     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the signal pipeline over one record batch and export the aggregate series",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if strategy != "" {
				cfg.Pipeline.Strategy = strategy
			}
			if window > 0 {
				cfg.Pipeline.WindowWidth = window
			}
			if err := cfg.Pipeline.Validate(); err != nil {
				return err
			}

			logger := log.New(os.Stderr, "[ANALYZE] ", log.LstdFlags)
			var src source.Source
			if input != "" {
				src = &source.FileSource{Path: input}
			} else {
				src = &source.SampleSource{Count: sampleCount, Seed: seed}
			}

			records, err := src.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			logger.Printf("fetched %d records from %s", len(records), src.Name())

			pipe, err := pipeline.New(cfg.Pipeline, logger)
			if err != nil {
				return err
			}
			result, err := pipe.Run(records)
			if err != nil {
				return err
			}

			if persist {
				if err := persistRun(cmd.Context(), cfg, src.Name(), pipe, result); err != nil {
					return err
				}
			}

			var w io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if format == "csv" {
				return export.WriteCSV(w, result.Windows)
			}
			return export.WriteJSON(w, result.Windows)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config, .)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of raw records (default: synthetic sample)")
	cmd.Flags().IntVar(&sampleCount, "sample", 200, "synthetic record count when no input file is given")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the synthetic source")
	cmd.Flags().StringVar(&strategy, "strategy", "", "scoring strategy override (polarity or buzz)")
	cmd.Flags().DurationVar(&window, "window", 0, "aggregation window width override, e.g. 15m")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().BoolVar(&persist, "store", false, "persist the run to postgres")
	return cmd
}

func persistRun(ctx context.Context, cfg *config.Config, sourceName string, pipe *pipeline.Pipeline, result *pipeline.Result) error {
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	run := models.Run{
		ID:          uuid.NewString(),
		Source:      sourceName,
		Strategy:    pipe.Strategy(),
		WindowWidth: pipe.WindowWidth(),
		RecordCount: len(result.Records),
		Deduped:     result.Deduped,
		Skipped:     result.Skipped,
		CreatedAt:   time.Now().UTC(),
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	rawRecords := make([]models.Record, len(result.Records))
	for i, rec := range result.Records {
		rawRecords[i] = rec.Record
	}
	if err := st.SaveRecords(ctx, run.ID, rawRecords); err != nil {
		return err
	}
	if err := st.SaveWindows(ctx, run.ID, result.Windows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "stored run %s\n", run.ID)
	return nil
}
