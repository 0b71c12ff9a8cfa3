package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tbsim/benches"
	"github.com/sarchlab/tbsim/testbench"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tests.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		reg := testbench.NewRegistry()
		benches.Register(reg, benches.DefaultConfig())

		for _, t := range reg.Tests() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", t.Name, t.Doc)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
