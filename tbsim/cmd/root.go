// Package cmd provides the command-line interface of tbsim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envPrefix      = "TBSIM_"
	defaultEnvFile = ".env"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tbsim",
	Short: "tbsim runs event-driven testbenches against a simulated design.",
	Long: `tbsim runs event-driven testbenches against a simulated design. ` +
		`Every flag can also be set with a TBSIM_ environment variable, ` +
		`such as TBSIM_HALF_PERIOD=2ns, or in an env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", defaultEnvFile,
		"File of KEY=VALUE lines loaded into the environment")
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		return 1
	}

	return 0
}

func loadEnv(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")

	err := godotenv.Load(envFile)
	if err != nil {
		explicit := cmd.Flags().Changed("env-file")
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	return applyEnv(cmd.Flags())
}

// applyEnv sets every flag not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, found := os.LookupEnv(envName(f.Name))
		if !found {
			return
		}

		err = flags.Set(f.Name, value)
		if err != nil {
			err = fmt.Errorf("%s: %w", envName(f.Name), err)
		}
	})

	return err
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
