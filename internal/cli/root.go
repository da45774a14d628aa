// Package cli handles the command-line interface logic
// using the Cobra library.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
)

func NewRootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "ga-mp-uploader",
		Short: "Turn tabular data into Google Analytics Measurement Protocol events",
		Long: `ga-mp-uploader maps the rows of a CSV file or SQL query onto Measurement Protocol
payloads, stages them, validates them against the debug endpoint and sends them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logger.SetLevel(logger.DEBUG)
			}
			if opts.LogFile != "" {
				return logger.InitLogger(opts.LogFile, logLevel(opts.Verbose))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.MappingFile, "mapping", "m", "configs/mapping.json", "Path to the column mapping file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.SchemaFile, "schema", "s", "configs/schema.json", "Path to the Measurement Protocol schema file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.EventName, "event-name", "e", "", "Event name for every payload (overrides MP_EVENT_NAME)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newStageCmd(opts), newValidateCmd(opts), newSendCmd(opts), newServeCmd(opts))

	return rootCmd
}

func logLevel(verbose bool) int {
	if verbose {
		return logger.DEBUG
	}
	return logger.INFO
}
