package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRenderCommand(opts *RootOptions) *cobra.Command {
	var dir, name string
	cmd := &cobra.Command{
		Use:   "render <id|serial>",
		Short: "Render a document to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("render", err)
			}
			art, err := s.Export.RenderDocument(commandContext(cmd), doc.ID)
			if err != nil {
				return failure("render", err)
			}
			if dir == "" {
				dir = s.Config.ExportDir
			}
			path, err := art.Save(dir, name)
			if err != nil {
				return WrapExitError(ExitCommandError, "render", err)
			}
			result := map[string]any{"path": path, "pages": art.Pages, "fingerprint": art.Fingerprint}
			return s.out.Emit(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (%d pages)\n", path, art.Pages)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", "", "output directory (default DOCUDESK_EXPORT_DIR)")
	cmd.Flags().StringVar(&name, "name", "", "file name (default <type>-<serial>.pdf)")
	return cmd
}

func newPrintCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print <id|serial>",
		Short: "Render a document and send it to the print spooler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := lookup(cmd, s, args[0])
			if err != nil {
				return failure("print", err)
			}
			art, err := s.Export.PrintDocument(commandContext(cmd), doc.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "print", err)
			}
			return s.out.Emit(map[string]any{"printed": art.Name, "pages": art.Pages}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "sent %s (%d pages)\n", art.Name, art.Pages)
				return err
			})
		},
	}
}
