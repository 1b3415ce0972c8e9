package main

import (
	"github.com/spf13/cobra"

	"github.com/sameer-vaidya/marketbuzz/config"
	srv "github.com/sameer-vaidya/marketbuzz/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config, .)")
	return cmd
}
