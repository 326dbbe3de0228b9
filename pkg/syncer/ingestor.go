package syncer

import (
	"context"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"github.com/ticketferry/ticketferry/pkg/errors"
)

// FileIngestor lands sync results on disk: one JSON document per bundle
// under bundles/, and an append-only events.jsonl audit log. It is the
// ingestor the CLI wires up; services embed their own.
type FileIngestor struct {
	dir string
}

// NewFileIngestor prepares the output directory.
func NewFileIngestor(dir string) (*FileIngestor, error) {
	if err := os.MkdirAll(filepath.Join(dir, "bundles"), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create ingest directory")
	}
	return &FileIngestor{dir: dir}, nil
}

// IngestBundle writes the bundle as bundles/ticket-{externalId}.json,
// replacing any bundle from an earlier sync of the same ticket.
func (f *FileIngestor) IngestBundle(_ context.Context, bundle *Bundle) error {
	encoded, err := gojson.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode bundle")
	}
	path := filepath.Join(f.dir, "bundles", "ticket-"+bundle.Ticket.ExternalID+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write bundle "+path)
	}
	return nil
}

// RecordEvent appends the event to events.jsonl.
func (f *FileIngestor) RecordEvent(_ context.Context, event *AuditEvent) error {
	encoded, err := gojson.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode audit event")
	}
	path := filepath.Join(f.dir, "events.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to open audit log "+path)
	}
	defer file.Close()

	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to append audit event")
	}
	return nil
}
