package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/goover/docudesk/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, documentID int64, printAfter bool, docType string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskDocumentExport:
		return c.client.EnqueueExport(ctx, jobs.ExportPayload{DocumentID: documentID, Print: printAfter})
	case jobs.TaskDocumentArchive:
		return c.client.EnqueueArchive(ctx, jobs.ArchivePayload{Type: docType})
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// Pending reports the default queue depth.
func (c *JobsCLI) Pending() (int, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return 0, err
	}
	return info.Pending, nil
}

func newEnqueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue background jobs for the worker",
	}

	var printAfter bool
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Queue a PDF export of one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitFailure, "enqueue export", fmt.Errorf("document id %q: %w", args[0], err))
			}
			return enqueue(cmd, opts, jobs.TaskDocumentExport, id, printAfter, "")
		},
	}
	exportCmd.Flags().BoolVar(&printAfter, "print", false, "also send the PDF to the print spooler")

	var docType string
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Queue a dated archive of every document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, opts, jobs.TaskDocumentArchive, 0, false, docType)
		},
	}
	archiveCmd.Flags().StringVarP(&docType, "type", "t", "", "limit to one document type")

	cmd.AddCommand(exportCmd, archiveCmd)
	return cmd
}

func enqueue(cmd *cobra.Command, opts *RootOptions, name string, id int64, printAfter bool, docType string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	jc := NewJobsCLI(cfg.RedisAddr)
	defer jc.Close()

	info, err := jc.Trigger(commandContext(cmd), name, id, printAfter, docType)
	if err != nil {
		return WrapExitError(ExitCommandError, "enqueue", err)
	}
	pending, err := jc.Pending()
	if err != nil {
		pending = -1
	}
	out := opts.formatter(cmd)
	return out.Emit(map[string]any{"task": info.ID, "type": name, "queue": info.Queue, "pending": pending}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "queued %s as %s (%d pending)\n", name, info.ID, pending)
		return err
	})
}
