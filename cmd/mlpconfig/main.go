package main

import (
	"os"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/log"
	"github.com/spf13/cobra"
)

// #region options
type options struct {
	dbPath   string
	logLevel string
}

// #endregion options

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "mlpconfig",
		Short:        "Inspect and export the MLP training configuration",
		Long:         "Inspect, check and export the prediction MLP hyperparameters and label codes, and record which configuration a training run used.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Configure(log.Config{Level: opts.logLevel, Output: cmd.ErrOrStderr()})
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", envOr("MLPCONFIG_DB", "mlp_train.db"), "path to the provenance database")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	root.AddCommand(
		newShowCmd(),
		newGetCmd(),
		newLabelCmd(),
		newCheckCmd(),
		newExportCmd(),
		newRecordCmd(opts),
		newRunsCmd(opts),
		newVerifyCmd(opts),
	)
	return root
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
