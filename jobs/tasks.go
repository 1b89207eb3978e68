package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDocumentExport renders one document to the export directory and
	// optionally prints it.
	TaskDocumentExport = "document:export"
	// TaskDocumentArchive renders every document into a dated archive folder.
	TaskDocumentArchive = "document:archive"
)

// ExportPayload selects the document an export task renders.
type ExportPayload struct {
	DocumentID int64 `json:"documentId"`
	Print      bool  `json:"print,omitempty"`
}

// ArchivePayload narrows an archive run. An empty Type archives every type.
type ArchivePayload struct {
	Type string `json:"type,omitempty"`
}

// NewExportTask constructs a document export task.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	if payload.DocumentID <= 0 {
		return nil, fmt.Errorf("jobs: export task needs a document id")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentExport, data, asynq.Queue(QueueDefault)), nil
}

// NewArchiveTask constructs a document archive task.
func NewArchiveTask(payload ArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentArchive, data, asynq.Queue(QueueDefault)), nil
}
