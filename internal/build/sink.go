package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crosspack/crosspack/internal/errors"
)

// Sink receives every file the pipeline writes, keyed by slash-separated
// paths relative to the output root. It is injectable so builds can run
// against memory in tests.
type Sink interface {
	WriteFile(path, text string) error
	Remove(path string) error
}

// DiskSink writes through to the filesystem under a root directory. It
// remembers which directories it already created within one build
// invocation to skip redundant creation calls.
type DiskSink struct {
	root    string
	created map[string]bool
}

// NewDiskSink creates a sink rooted at dir.
func NewDiskSink(root string) *DiskSink {
	return &DiskSink{root: root, created: map[string]bool{}}
}

// WriteFile writes one file, creating parent directories as needed.
func (s *DiskSink) WriteFile(path, text string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	dir := filepath.Dir(full)
	if !s.created[dir] {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeDirectoryFailed,
				fmt.Sprintf("create directory %s", dir), err)
		}
		s.created[dir] = true
	}
	if err := os.WriteFile(full, []byte(text), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed,
			fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// Remove deletes one previously written file. Missing files are not an
// error; cleanup must be idempotent.
func (s *DiskSink) Remove(path string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileWriteFailed,
			fmt.Sprintf("remove %s", path), err)
	}
	return nil
}
