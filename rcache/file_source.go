package rcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

type fileSource struct {
	path string
}

// NewFileSource creates a Source that reads a JSON array of raw records
// from a file. The file is re-read on every fetch cycle, so edits show up
// at the next refresh.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Fetch(_ context.Context) ([]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var records []any
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("cannot decode records in %s: %w", s.path, err)
	}
	return records, nil
}

func (s *fileSource) String() string {
	return "file:" + s.path
}
