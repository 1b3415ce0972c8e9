package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "marketbuzz",
		Short: "Aggregate social-media market chatter into a windowed trading signal",
	}
	root.AddCommand(analyzeCMD(), serveCMD(), sampleCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
