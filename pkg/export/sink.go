// Package export writes canonical records to JSONL sinks and orchestrates
// the resource passes of a full export run.
package export

import (
	"bufio"
	"os"

	gojson "github.com/goccy/go-json"

	"github.com/ticketferry/ticketferry/pkg/errors"
)

// Sink is a line-delimited JSON file. Opening a sink truncates any
// previous file: re-running an export against the same directory
// overwrites the prior run wholesale, so counts always describe the
// current file.
type Sink struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	lines  int
	closed bool
}

// NewSink opens (and truncates) the sink file.
func NewSink(path string) (*Sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to open sink "+path)
	}
	return &Sink{
		path: path,
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// Write appends one record as a single JSON line.
func (s *Sink) Write(record interface{}) error {
	encoded, err := gojson.Marshal(record)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode record for "+s.path)
	}
	if _, err := s.w.Write(encoded); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write to sink "+s.path)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write to sink "+s.path)
	}
	s.lines++
	return nil
}

// Lines reports how many records have been written.
func (s *Sink) Lines() int {
	return s.lines
}

// Close flushes and closes the sink. Closing twice is a no-op, so callers
// can both defer it and close explicitly at the end of a pass.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to flush sink "+s.path)
	}
	if err := s.file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to close sink "+s.path)
	}
	return nil
}
