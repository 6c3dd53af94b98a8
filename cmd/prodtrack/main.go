package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "prodtrack",
		Short: "Prodtrack - Shop floor production tracking",
		Long: `Prodtrack tracks CNC machining programs through the shop floor queue.
It serves the production dashboard, imports program drops, gates
completion behind measurement, time tracking, operator sign-off and a
digital signature, and reports queue state at shift changes.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
