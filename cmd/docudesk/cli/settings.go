package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/settings"
)

func newSettingsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show, export or import the company profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cs, err := s.Settings.Load(commandContext(cmd))
			if err != nil {
				return failure("settings", err)
			}
			return s.out.Emit(cs, func(w io.Writer) error { return writeSettings(w, cs) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write settings as YAML to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "settings export", err)
				}
				defer f.Close()
				w = f
			}
			if err := s.Settings.Export(commandContext(cmd), w); err != nil {
				return failure("settings export", err)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Validate and save settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "settings import", err)
			}
			defer f.Close()

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cs, err := s.Settings.Import(commandContext(cmd), f)
			if err != nil {
				return failure("settings import", err)
			}
			return s.out.Emit(cs, func(w io.Writer) error { return writeSettings(w, cs) })
		},
	})

	return cmd
}

func writeSettings(w io.Writer, cs settings.CompanySettings) error {
	fmt.Fprintf(w, "%s\n", cs.Name)
	if cs.RegNumber != "" {
		fmt.Fprintf(w, "RC %s\n", cs.RegNumber)
	}
	fmt.Fprintf(w, "%s\n%s  %s\n\n", cs.Address, cs.Phone, cs.Email)
	fmt.Fprintf(w, "Tax rate: %s%%   Currency: %s\n\n", cs.TaxRate.String(), cs.DefaultCurrency)

	rows := [][]string{{"BANK", "ACCOUNT NAME", "ACCOUNT NUMBER", "CURRENCY"}}
	for _, a := range cs.BankAccounts {
		rows = append(rows, []string{a.BankName, a.AccountName, a.AccountNumber, string(a.Currency)})
	}
	return Table(w, rows)
}

func newCustomersCommand(opts *RootOptions) *cobra.Command {
	var req customers.ListCustomersRequest
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List saved customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.Customers.List(commandContext(cmd), req)
			if err != nil {
				return failure("customers", err)
			}
			return s.out.Emit(list, func(w io.Writer) error {
				rows := [][]string{{"ID", "NAME", "EMAIL", "PHONE"}}
				for _, c := range list {
					rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, c.Email, c.Phone})
				}
				return Table(w, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&req.Search, "search", "s", "", "match name, email or phone")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "maximum rows (0 for all)")
	return cmd
}
