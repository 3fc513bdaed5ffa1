package filesaver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver writes exported files into a directory.
type Saver struct {
	Dir string
}

func New(dir string) *Saver {
	return &Saver{Dir: dir}
}

// Save writes data to Dir/filename, creating Dir if needed. The content type is not used
// on disk.
func (s *Saver) Save(ctx context.Context, filename string, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filename == "" || filepath.Base(filename) != filename {
		return fmt.Errorf("invalid filename %q", filename)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}
