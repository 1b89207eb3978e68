package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/layout"
	"github.com/goover/docudesk/internal/shared"
)

// contentFlags are shared by create and edit.
type contentFlags struct {
	customer string
	email    string
	phone    string
	address  string
	items    []string
	taxRate  string
	currency string
	notes    string
	due      string
}

func (f *contentFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&f.email, "email", "", "customer email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&f.address, "address", "", "customer address")
	cmd.Flags().StringArrayVar(&f.items, "item", nil, `line item "description:quantity:unitPrice" (repeatable)`)
	cmd.Flags().StringVar(&f.taxRate, "tax-rate", "", "tax rate in percent (default from settings)")
	cmd.Flags().StringVar(&f.currency, "currency", "", "NGN, USD, EUR or GBP (default from settings)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD")
}

// failure maps service errors to exit codes.
func failure(action string, err error) error {
	if errors.Is(err, shared.ErrStorageUnavailable) {
		return WrapExitError(ExitCommandError, action, err)
	}
	return WrapExitError(ExitFailure, action, err)
}

func newCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		typ   string
		flags contentFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice, quotation or waybill",
		Example: `  docudesk create --type invoice --customer "Acme Ltd" \
    --item "Site survey:3:100" --item "Cabling:1:50"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(flags.items)
			if err != nil {
				return WrapExitError(ExitFailure, "create", err)
			}
			rate, err := parseRate(flags.taxRate)
			if err != nil {
				return WrapExitError(ExitFailure, "create", err)
			}
			due, err := parseDue(flags.due)
			if err != nil {
				return WrapExitError(ExitFailure, "create", err)
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.Documents.Create(commandContext(cmd), documents.CreateDocumentRequest{
				Type: documents.Type(typ),
				Customer: documents.CustomerInput{
					Name:    flags.customer,
					Email:   flags.email,
					Phone:   flags.phone,
					Address: flags.address,
				},
				Items:    items,
				TaxRate:  rate,
				Currency: shared.Currency(strings.ToUpper(flags.currency)),
				Notes:    flags.notes,
				DueDate:  due,
			})
			if err != nil {
				return failure("create", err)
			}
			return s.out.Emit(doc, func(w io.Writer) error { return writeDocument(w, doc) })
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(documents.TypeInvoice), "invoice, quotation or waybill")
	flags.bind(cmd)
	return cmd
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var req documents.ListDocumentsRequest
	var typ, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Type = documents.Type(typ)
			req.Status = documents.Status(status)

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			docs, err := s.Documents.List(commandContext(cmd), req)
			if err != nil {
				return failure("list", err)
			}
			return s.out.Emit(docs, func(w io.Writer) error { return writeDocumentList(w, docs) })
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "filter by type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVarP(&req.Search, "search", "s", "", "match serial number or customer name")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "maximum rows (0 for all)")
	return cmd
}

func newShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|serial>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("show", err)
			}
			return s.out.Emit(doc, func(w io.Writer) error { return writeDocument(w, doc) })
		},
	}
}

func newEditCommand(opts *RootOptions) *cobra.Command {
	var flags contentFlags
	cmd := &cobra.Command{
		Use:   "edit <id|serial>",
		Short: "Overwrite a document's content; unset flags keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("edit", err)
			}
			req, err := editRequest(cmd, doc, &flags)
			if err != nil {
				return WrapExitError(ExitFailure, "edit", err)
			}
			updated, err := s.Documents.Update(commandContext(cmd), doc.ID, req)
			if err != nil {
				return failure("edit", err)
			}
			return s.out.Emit(updated, func(w io.Writer) error { return writeDocument(w, updated) })
		},
	}
	flags.bind(cmd)
	return cmd
}

// editRequest starts from the stored document and applies only the flags
// the user set.
func editRequest(cmd *cobra.Command, doc *documents.Document, flags *contentFlags) (documents.UpdateDocumentRequest, error) {
	rate := doc.TaxRate
	req := documents.UpdateDocumentRequest{
		Customer: documents.CustomerInput{
			Name:    doc.Customer.Name,
			Email:   doc.Customer.Email,
			Phone:   doc.Customer.Phone,
			Address: doc.Customer.Address,
		},
		TaxRate:  &rate,
		Currency: doc.Currency,
		Notes:    doc.Notes,
		DueDate:  doc.DueDate,
	}
	for _, it := range doc.Items {
		req.Items = append(req.Items, documents.ItemInput{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	changed := cmd.Flags().Changed
	if changed("customer") {
		req.Customer.Name = flags.customer
	}
	if changed("email") {
		req.Customer.Email = flags.email
	}
	if changed("phone") {
		req.Customer.Phone = flags.phone
	}
	if changed("address") {
		req.Customer.Address = flags.address
	}
	if changed("notes") {
		req.Notes = flags.notes
	}
	if changed("currency") {
		req.Currency = shared.Currency(strings.ToUpper(flags.currency))
	}
	if changed("tax-rate") {
		r, err := parseRate(flags.taxRate)
		if err != nil {
			return req, err
		}
		req.TaxRate = r
	}
	if changed("due") {
		d, err := parseDue(flags.due)
		if err != nil {
			return req, err
		}
		req.DueDate = d
	}
	if changed("item") {
		items, err := parseItems(flags.items)
		if err != nil {
			return req, err
		}
		req.Items = items
	}
	return req, nil
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "status <id|serial> <sent|paid|cancelled>",
		Short:     "Move a document through its lifecycle",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"sent", "paid", "cancelled"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("status", err)
			}
			updated, err := s.Documents.Transition(commandContext(cmd), doc.ID, documents.Status(args[1]))
			if err != nil {
				return failure("status", err)
			}
			return s.out.Emit(updated, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s is now %s\n", updated.SerialNumber, updated.Status)
				return err
			})
		},
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id|serial>",
		Short: "Delete a document permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return WrapExitError(ExitFailure, "delete", errors.New("deletion is irreversible; pass --yes to confirm"))
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("delete", err)
			}
			if err := s.Documents.Delete(commandContext(cmd), doc.ID); err != nil {
				return failure("delete", err)
			}
			return s.out.Emit(map[string]any{"deleted": doc.SerialNumber}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "deleted %s\n", doc.SerialNumber)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Documents.Stats(commandContext(cmd))
			if err != nil {
				return failure("stats", err)
			}
			return s.out.Emit(stats, func(w io.Writer) error { return writeStats(w, stats) })
		},
	}
}

// lookup accepts a numeric id or a serial number.
func lookup(cmd *cobra.Command, s *session, ref string) (*documents.Document, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.Documents.Get(commandContext(cmd), id)
	}
	return s.Documents.GetBySerial(commandContext(cmd), ref)
}

func writeDocument(w io.Writer, doc *documents.Document) error {
	fmt.Fprintf(w, "%s  %s  [%s]\n", doc.SerialNumber, doc.Type, doc.Status)
	fmt.Fprintf(w, "Customer: %s\n", doc.Customer.Name)
	fmt.Fprintf(w, "Date:     %s\n", layout.FormatDate(doc.CreatedAt))
	if doc.DueDate != nil {
		fmt.Fprintf(w, "Due:      %s\n", layout.FormatDate(*doc.DueDate))
	}
	fmt.Fprintln(w)

	rows := [][]string{{"#", "DESCRIPTION", "QTY", "UNIT PRICE", "AMOUNT"}}
	for i, it := range doc.Items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Description,
			strconv.FormatInt(it.Quantity, 10),
			layout.FormatAmount(it.UnitPrice, doc.Currency),
			layout.FormatAmount(it.Amount, doc.Currency),
		})
	}
	if err := Table(w, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Subtotal: %s\n", layout.FormatAmount(doc.Subtotal, doc.Currency))
	fmt.Fprintf(w, "Tax (%s%%): %s\n", doc.TaxRate.String(), layout.FormatAmount(doc.Tax, doc.Currency))
	_, err := fmt.Fprintf(w, "Total:    %s\n", layout.FormatAmount(doc.Total, doc.Currency))
	if err == nil && strings.TrimSpace(doc.Notes) != "" {
		_, err = fmt.Fprintf(w, "\nNotes:\n%s\n", doc.Notes)
	}
	return err
}

func writeDocumentList(w io.Writer, docs []documents.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "no documents")
		return err
	}
	rows := [][]string{{"ID", "SERIAL", "TYPE", "CUSTOMER", "STATUS", "TOTAL", "DATE"}}
	for _, d := range docs {
		rows = append(rows, []string{
			strconv.FormatInt(d.ID, 10),
			d.SerialNumber,
			string(d.Type),
			d.Customer.Name,
			string(d.Status),
			layout.FormatAmount(d.Total, d.Currency),
			d.CreatedAt.Format("2006-01-02"),
		})
	}
	return Table(w, rows)
}

func writeStats(w io.Writer, st *documents.Stats) error {
	rows := [][]string{{"TYPE", "COUNT"}}
	for _, t := range documents.Types {
		rows = append(rows, []string{string(t), strconv.Itoa(st.Counts[t])})
	}
	if err := Table(w, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, c := range shared.Currencies {
		rev, hasRev := st.Revenue[c]
		pend, hasPend := st.Pending[c]
		if !hasRev && !hasPend {
			continue
		}
		fmt.Fprintf(w, "%s  revenue %s  pending %s\n", c, layout.FormatAmount(rev, c), layout.FormatAmount(pend, c))
	}
	if len(st.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent:")
		return writeDocumentList(w, st.Recent)
	}
	return nil
}
