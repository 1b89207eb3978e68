package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/export"
	jobmetrics "github.com/goover/docudesk/internal/jobs"
	"github.com/goover/docudesk/internal/shared"
)

// Exporter renders saved documents.
type Exporter interface {
	RenderDocument(ctx context.Context, id int64) (*export.Artifact, error)
}

// DocumentLister enumerates documents for archive runs.
type DocumentLister interface {
	List(ctx context.Context, req documents.ListDocumentsRequest) ([]documents.Document, error)
}

// ExportJob handles export and archive tasks. It only reads documents.
type ExportJob struct {
	Exporter Exporter
	Lister   DocumentLister
	Dir      string
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewExportJob wires dependencies for the export handlers.
func NewExportJob(exporter Exporter, lister DocumentLister, dir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExportJob {
	return &ExportJob{
		Exporter: exporter,
		Lister:   lister,
		Dir:      dir,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleExport processes TaskDocumentExport tasks.
func (j *ExportJob) HandleExport(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Exporter == nil {
		return errors.New("document export: handler not configured")
	}
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DocumentID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskDocumentExport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("document_id", payload.DocumentID))

	art, err := j.Exporter.RenderDocument(ctx, payload.DocumentID)
	if err != nil {
		resultErr = err
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("export skipped, document missing")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Error("render document", slog.Any("error", err))
		return resultErr
	}
	path, err := art.Save(j.Dir, "")
	if err != nil {
		resultErr = err
		logger.Error("save export", slog.Any("error", err))
		return resultErr
	}
	j.Metrics.AddExported(1)

	if payload.Print {
		if err := art.Print(ctx); err != nil {
			resultErr = err
			logger.Error("print export", slog.Any("error", err))
			if errors.Is(err, export.ErrNoSpooler) {
				return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
			}
			return resultErr
		}
	}

	logger.Info("document exported", slog.String("path", path), slog.Bool("printed", payload.Print))
	return resultErr
}

// HandleArchive processes TaskDocumentArchive tasks. Files land in
// Dir/archive/YYYY-MM-DD; a failing document is logged and skipped.
func (j *ExportJob) HandleArchive(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Exporter == nil || j.Lister == nil {
		return errors.New("document archive: handler not configured")
	}
	var payload ArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	typ := documents.Type(payload.Type)
	if typ != "" && !typ.Valid() {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskDocumentArchive)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	docs, err := j.Lister.List(ctx, documents.ListDocumentsRequest{Type: typ})
	if err != nil {
		resultErr = err
		j.logger().Error("list documents for archive", slog.Any("error", err))
		return resultErr
	}

	dir := filepath.Join(j.Dir, "archive", j.clock().Format(time.DateOnly))
	written := 0
	for _, doc := range docs {
		if ctx.Err() != nil {
			resultErr = ctx.Err()
			return resultErr
		}
		art, err := j.Exporter.RenderDocument(ctx, doc.ID)
		if err == nil {
			_, err = art.Save(dir, "")
		}
		if err != nil {
			j.logger().Warn("archive document", slog.String("serial", doc.SerialNumber), slog.Any("error", err))
			continue
		}
		written++
	}
	j.Metrics.AddExported(written)

	j.logger().Info("archive complete", slog.String("dir", dir), slog.Int("documents", written), slog.Int("skipped", len(docs)-written))
	return resultErr
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
