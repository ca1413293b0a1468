package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/vkcompute"
	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:          "vkpipectl",
	Short:        "Inspect and warm vkcompute pipeline caches",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `vkpipectl works with vkcompute pipeline caches: compute the digest a
configuration is cached under, inspect the capabilities a backend
reports, and pre-build the pipelines a manifest names.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		if flagVerbose {
			vkcompute.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log cache activity to stderr")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
