package store

import (
	"bufio"
	"os"
	"strings"
	"sync"

	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
)

// FileStore keeps handled ids in memory and persists every mark as one
// line appended to a plain text file. A mark is a single-line write, so
// a crash can at worst lose the line being written, never corrupt the
// earlier ones.
type FileStore struct {
	mu   sync.RWMutex
	ids  map[string]struct{}
	file *os.File
}

// NewFileStore opens the file, creating it when absent, and loads every
// previously recorded id. The handle stays open for appends.
func NewFileStore(path string) (*FileStore, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperrors.StoreError{Op: "open", Err: err}
	}

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ids[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, apperrors.StoreError{Op: "load", Err: err}
	}

	return &FileStore{
		ids:  ids,
		file: file,
	}, nil
}

// Seen reports whether the id has been handled
func (s *FileStore) Seen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// Mark records the id in memory first and then appends it to the file.
// The in-memory mark sticks even when the append fails, so a bad write
// cannot cause a duplicate alert within the run.
func (s *FileStore) Mark(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return nil
	}
	s.ids[id] = struct{}{}

	if _, err := s.file.WriteString(id + "\n"); err != nil {
		return apperrors.StoreError{Op: "append", Err: err}
	}
	return nil
}

// Len returns the number of recorded ids
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// Close closes the backing file
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.file.Close()
}
