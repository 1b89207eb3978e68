package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	jobmetrics "github.com/goover/docudesk/internal/jobs"
	"github.com/goover/docudesk/jobs"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			logger := s.Logger

			// The jobs endpoints need Redis; without it they report the queue as unavailable.
			var jobHandler *jobs.Handler
			if s.Redis != nil {
				redisOpts := asynq.RedisClientOpt{Addr: s.Config.RedisAddr}
				inspector := asynq.NewInspector(redisOpts)
				defer inspector.Close()
				client := jobs.NewClient(redisOpts)
				defer client.Close()
				jobHandler = jobs.NewHandler(inspector, client, logger)
			} else {
				jobHandler = jobs.NewHandler(nil, nil, logger)
			}

			server := &http.Server{
				Addr:         s.Config.AppAddr,
				Handler:      s.Router(jobHandler),
				ReadTimeout:  s.Config.AppReadTimeout,
				WriteTimeout: s.Config.AppWriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", slog.String("addr", server.Addr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("http shutdown", slog.Any("error", err))
					return WrapExitError(ExitCommandError, "serve", err)
				}
				logger.Info("http server stopped")
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return WrapExitError(ExitCommandError, "serve", err)
			}
		},
	}
}

func newWorkerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process background export and archive jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			exportJob := jobs.NewExportJob(s.Export, s.Documents, s.Config.ExportDir, s.Logger,
				jobmetrics.NewMetrics(s.Metrics.Registerer()))

			var cron []jobs.CronRegistration
			if s.Config.ArchiveCron != "" {
				task, err := jobs.NewArchiveTask(jobs.ArchivePayload{})
				if err != nil {
					return WrapExitError(ExitCommandError, "worker", err)
				}
				cron = append(cron, jobs.CronRegistration{Spec: s.Config.ArchiveCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(0)}})
			}

			worker, err := jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts:   asynq.RedisClientOpt{Addr: s.Config.RedisAddr},
				Logger:      s.Logger,
				Concurrency: s.Config.WorkerConcurrency,
				Handlers: []jobs.TaskHandler{
					{Type: jobs.TaskDocumentExport, Handler: exportJob.HandleExport},
					{Type: jobs.TaskDocumentArchive, Handler: exportJob.HandleArchive},
				},
				Cron: cron,
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "worker", err)
			}

			s.Logger.Info("worker started", slog.Int("concurrency", s.Config.WorkerConcurrency))
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return WrapExitError(ExitCommandError, "worker", err)
			}
			return nil
		},
	}
}
