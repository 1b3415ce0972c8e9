package main

import (
	"github.com/spf13/cobra"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/internal/store"
)

func migrateCMD() *cobra.Command {
	var (
		cfgPath   string
		dir       string
		direction string
		steps     int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return err
			}
			return store.Migrate(dir, dsn, direction, steps)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config, .)")
	cmd.Flags().StringVar(&dir, "dir", "file://migrations", "migrations source URL")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
