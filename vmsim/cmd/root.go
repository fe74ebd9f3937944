// Package cmd provides the command-line interface of vmsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "vmsim simulates demand-paged virtual memory.",
	Long: `vmsim simulates demand-paged virtual memory. Processes share a ` +
		`small physical memory; pages are loaded on page faults and the ` +
		`least recently used frame is swapped out when memory runs out.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
