// Package cli implements the docudesk command tree.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/goover/docudesk/internal/app"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the configuration source shared by
// every command.
type RootOptions struct {
	Format string

	// LoadConfig defaults to app.LoadConfig.
	LoadConfig func() (*app.Config, error)
}

// NewRootCommand creates the docudesk root command.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{LoadConfig: app.LoadConfig})
}

// NewRootCommandWith builds the command tree over opts.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = app.LoadConfig
	}

	cmd := &cobra.Command{
		Use:   "docudesk",
		Short: "Invoices, quotations and waybills",
		Long: `docudesk keeps business documents in a local record store and renders
them into paginated, print-ready PDFs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newCreateCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newEditCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newPrintCommand(opts))
	cmd.AddCommand(newSettingsCommand(opts))
	cmd.AddCommand(newCustomersCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newWorkerCommand(opts))
	cmd.AddCommand(newEnqueueCommand(opts))

	return cmd
}

// session is one command's view of the wired application.
type session struct {
	*app.App
	out *OutputFormatter
}

// open loads configuration and wires the services for a single command run.
// The caller must Close the returned session.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	logger := app.NewLogger(cfg)
	a, err := app.Open(commandContext(cmd), cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return &session{App: a, out: o.formatter(cmd)}, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
