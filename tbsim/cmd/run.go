package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sarchlab/tbsim/benches"
	"github.com/sarchlab/tbsim/hostif"
	"github.com/sarchlab/tbsim/monitoring"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/simulation"
	"github.com/sarchlab/tbsim/testbench"
)

var runCmd = &cobra.Command{
	Use:   "run [tests...]",
	Short: "Run all the tests, or the named ones.",
	Long: `Run all the tests, or the named ones. Each test runs on a fresh ` +
		`simulation. The command fails if any test fails.`,
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.String("half-period", "1ns", "Half period of the test clock")
	f.Int("cycles", 10, "Number of cycles the test clock runs")
	f.Uint64("ram-size", 64*1024, "Capacity of the RAM in bytes")
	f.String("record", "",
		"Record signals and memory writes into <record>_<test>.sqlite3")
	f.String("vcd", "", "Dump signal changes into <vcd>_<test>.vcd")
	f.Bool("monitor", false, "Serve the monitoring API while running")
	f.Int("monitor-port", 0, "Port of the monitoring server, random if 0")
	f.Bool("open", false, "Open the monitor in a browser")
	f.String("console-serial", "",
		"Forward what the firmware prints to a serial device")
	f.Int("baud", 115200, "Baud rate of the serial console")
	f.Bool("verbose", false, "Print every event and test log line")
	f.Bool("unique-ids", false, "Use globally unique event IDs")
	f.Duration("timeout", 0, "Wall time limit of each test, none if 0")
}

type runOptions struct {
	cfg           benches.Config
	record        string
	vcd           string
	monitor       bool
	monitorPort   int
	open          bool
	consoleSerial string
	baud          int
	verbose       bool
	uniqueIDs     bool
}

func parseRunOptions(cmd *cobra.Command) (runOptions, error) {
	f := cmd.Flags()
	opts := runOptions{cfg: benches.DefaultConfig()}

	halfPeriod, _ := f.GetString("half-period")
	half, err := sim.ParseTime(halfPeriod)
	if err != nil {
		return opts, err
	}

	if half == 0 {
		return opts, fmt.Errorf("half period cannot be 0")
	}

	opts.cfg.HalfPeriod = half
	opts.cfg.Cycles, _ = f.GetInt("cycles")

	if opts.cfg.Cycles < 1 {
		return opts, fmt.Errorf("cycles must be at least 1")
	}

	opts.cfg.RAMSize, _ = f.GetUint64("ram-size")

	if opts.cfg.RAMSize < 64 {
		return opts, fmt.Errorf("ram size must be at least 64 bytes")
	}

	opts.record, _ = f.GetString("record")
	opts.vcd, _ = f.GetString("vcd")
	opts.monitor, _ = f.GetBool("monitor")
	opts.monitorPort, _ = f.GetInt("monitor-port")
	opts.open, _ = f.GetBool("open")
	opts.consoleSerial, _ = f.GetString("console-serial")
	opts.baud, _ = f.GetInt("baud")
	opts.verbose, _ = f.GetBool("verbose")
	opts.uniqueIDs, _ = f.GetBool("unique-ids")

	return opts, nil
}

func (o runOptions) builder(console io.Writer, m *monitoring.Monitor) func(
	test string,
) simulation.Builder {
	return func(test string) simulation.Builder {
		b := simulation.MakeBuilder().WithConsole(console)

		if m != nil {
			b = b.WithMonitor(m)
		}

		if o.record != "" {
			b = b.WithOutputFileName(o.record + "_" + test)
		}

		if o.vcd != "" {
			b = b.WithVCDFile(o.vcd + "_" + test + ".vcd")
		}

		if o.verbose {
			b = b.WithEventLogger(log.New(os.Stderr, "", 0))
		}

		return b
	}
}

func runTests(cmd *cobra.Command, args []string) error {
	opts, err := parseRunOptions(cmd)
	if err != nil {
		return err
	}

	if opts.uniqueIDs {
		sim.UseUniqueIDGenerator()
	}

	reg := testbench.NewRegistry()
	benches.Register(reg, opts.cfg)

	var console io.Writer = cmd.OutOrStdout()
	if opts.consoleSerial != "" {
		port, err := hostif.OpenSerialConsole(opts.consoleSerial, opts.baud)
		if err != nil {
			return err
		}
		defer port.Close()

		console = port
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor, err = startMonitor(opts)
		if err != nil {
			return err
		}
		defer monitor.StopServer(context.Background())
	}

	newBuilder := opts.builder(console, monitor)
	runner := testbench.NewRunner(reg,
		func(test string) (testbench.DUT, error) {
			return benches.NewDUT(newBuilder(test), opts.cfg)
		})

	timeout, _ := cmd.Flags().GetDuration("timeout")
	runner.WithTimeout(timeout)

	if opts.verbose {
		runner.WithLogger(log.New(os.Stderr, "", 0))
	}

	tests, err := runner.Select(args...)
	if err != nil {
		return err
	}

	if monitor != nil {
		bar := monitor.CreateProgressBar("tests", uint64(len(tests)))
		defer monitor.CompleteProgressBar(bar)

		runner.WithProgressBar(bar)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, err := runner.Run(ctx, args...)
	if err != nil {
		return err
	}

	return report(cmd.OutOrStdout(), results, isTerminal(cmd.OutOrStdout()))
}

func startMonitor(opts runOptions) (*monitoring.Monitor, error) {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)

	err := m.StartServer()
	if err != nil {
		return nil, err
	}

	if opts.open {
		err = m.OpenInBrowser()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open the browser: %v\n", err)
		}
	}

	return m, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

func report(w io.Writer, results []testbench.Result, color bool) error {
	failed := 0

	for _, r := range results {
		status := "PASS"
		statusColor := colorGreen

		if !r.Passed {
			failed++
			status = "FAIL"
			statusColor = colorRed
		}

		if color {
			status = statusColor + status + colorReset
		}

		fmt.Fprintf(w, "%s %-16s sim %-8s wall %s\n",
			status, r.Name, r.SimTime, r.WallTime)

		if r.Err != nil {
			fmt.Fprintf(w, "    %v\n", r.Err)
		}
	}

	fmt.Fprintf(w, "%d passed, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, len(results))
	}

	return nil
}
