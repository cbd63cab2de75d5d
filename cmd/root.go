package cmd

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// appFs is where scenarios are read and results are written.
var appFs = afero.NewOsFs()

// envPrefix namespaces environment overrides: --initial-capacity can also be
// set with BOXSIM_INITIAL_CAPACITY.
const envPrefix = "BOXSIM"

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// from leaking between invocations.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "boxsim",
		Short: "Discrete-event simulator for an autoscaled pool of single-job boxes",
		Long: `boxsim simulates jobs arriving at a pool of identical boxes. Each box serves
one job at a time for a fixed duration and there is no queue: a job that finds
no idle box is missed. An autoscaler resizes the pool to keep utilization
inside a target band, and every box is billed for the time it is provisioned.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := newViper(cmd.Flags())
			level, err := logrus.ParseLevel(v.GetString("log"))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	root.AddCommand(newRunCmd(), newSweepCmd(), newValidateCmd(), newPresetsCmd())
	return root
}

// newViper layers BOXSIM_* environment variables over flags. Dashes in flag
// names become underscores in variable names.
func newViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
	return v
}

// Execute runs the CLI root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatalf("%v", err)
	}
}
