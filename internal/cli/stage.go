package cli

import (
	"github.com/spf13/cobra"
)

// Options collects the flags shared by all commands.
type Options struct {
	MappingFile string
	SchemaFile  string
	EventName   string
	LogFile     string
	Verbose     bool

	InputFile string
	SQLQuery  string
	DryRun    bool

	Addr string
}

func newStageCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Transform the input rows into payloads and stage them",
		RunE: func(c *cobra.Command, args []string) error {
			return runStage(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "CSV file holding the input table")
	cmd.Flags().StringVarP(&opts.SQLQuery, "sql-query", "q", "", "SQL Server query producing the input table")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the payloads instead of staging them")
	cmd.MarkFlagsMutuallyExclusive("input", "sql-query")
	cmd.MarkFlagsOneRequired("input", "sql-query")

	return cmd
}

func newValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the staged payloads against the Measurement Protocol debug endpoint",
		RunE: func(c *cobra.Command, args []string) error {
			return runValidate(c.Context(), opts)
		},
	}
}

func newSendCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send the staged payloads that passed validation",
		RunE: func(c *cobra.Command, args []string) error {
			return runSend(c.Context(), opts)
		},
	}
}

func newServeCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transform engine and the staging list over HTTP",
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "Listen address")
	return cmd
}
