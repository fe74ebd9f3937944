package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config [workload.yaml]",
	Short: "Print the memory settings a run would use.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w, err := loadWorkload(args)
		if err != nil {
			fatalf("Error loading workload: %v", err)
		}

		s, err := loadSettings(cmd, w)
		if err != nil {
			fatalf("Error loading settings: %v", err)
		}

		out, err := yaml.Marshal(s)
		if err != nil {
			fatalf("Error encoding settings: %v", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
	},
}

func init() {
	addMemoryFlags(configCmd)
	rootCmd.AddCommand(configCmd)
}
