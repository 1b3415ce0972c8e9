package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sameer-vaidya/marketbuzz/internal/source"
)

func sampleCMD() *cobra.Command {
	var (
		count  int
		seed   int64
		output string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic record batch for development and demos",
		RunE: func(cmd *cobra.Command, args []string) error {
			src := &source.SampleSource{Count: count, Seed: seed}
			records, err := src.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				_, err = os.Stdout.Write(append(payload, '\n'))
				return err
			}
			if err := os.WriteFile(output, payload, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(os.Stderr, "wrote %d records to %s\n", len(records), output)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 200, "number of records to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for reproducible batches")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
