package source

import (
	"context"
	"fmt"
	"os"

	"github.com/sameer-vaidya/marketbuzz/models"
)

// FileSource loads a JSON array of raw records from disk, the hand-off
// format used by the external acquisition side.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(_ context.Context) ([]models.Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return DecodeRecords(data)
}
