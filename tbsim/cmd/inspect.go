package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tbsim/datarecording"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/tracing"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <db>",
	Short: "Print the signal transitions recorded by run --record.",
	Args:  cobra.ExactArgs(1),
	RunE:  inspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("signal", "", "Only print this signal")
	inspectCmd.Flags().Bool("info", false, "Also print how the run was launched")
}

func inspect(cmd *cobra.Command, args []string) error {
	reader, err := datarecording.NewReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	showInfo, _ := cmd.Flags().GetBool("info")
	if showInfo {
		err = printExecInfo(cmd, w, reader)
		if err != nil {
			return err
		}
	}

	signals, err := tracing.ReadSignals(ctx, reader)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "signals:")
	for _, s := range signals {
		fmt.Fprintf(w, "  %-16s %d bit(s)\n", s.Name, s.Width)
	}

	name, _ := cmd.Flags().GetString("signal")

	transitions, err := tracing.ReadTransitions(ctx, reader, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "transitions:")
	for _, t := range transitions {
		fmt.Fprintf(w, "  %-10s %-16s %#x\n", sim.VTime(t.Time), t.Signal, t.Value)
	}

	return nil
}

func printExecInfo(
	cmd *cobra.Command,
	w io.Writer,
	reader datarecording.DataReader,
) error {
	reader.MapTable(datarecording.ExecTable, datarecording.ExecInfo{})

	rows, _, err := reader.Query(cmd.Context(), datarecording.ExecTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, r := range rows {
		info := r.(*datarecording.ExecInfo)
		fmt.Fprintf(w, "%s: %s\n", info.Property, info.Value)
	}

	return nil
}
