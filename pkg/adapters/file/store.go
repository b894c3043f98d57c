package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Store implements ports.HistoryStore using the local filesystem.
// It stores each reader's collection as one JSON file in a configured
// directory.
type Store struct {
	BasePath string
}

// NewStore creates a new file Store with the given base path.
// If basePath is empty, it defaults to ".wayfarer/readers".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".wayfarer", "readers")
	}
	return &Store{BasePath: basePath}
}

// readerPath resolves the reader's file inside BasePath. Reader IDs arrive
// from transport headers and URL segments, so anything that could name a
// path outside the store directory is rejected.
func (f *Store) readerPath(readerID string) (string, error) {
	if readerID == "" {
		return "", domain.ErrReaderRequired
	}
	if strings.ContainsAny(readerID, `/\`) || strings.Contains(readerID, "..") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidReader, readerID)
	}
	return filepath.Join(f.BasePath, readerID+".json"), nil
}

// Save persists the reader's collection to a JSON file.
func (f *Store) Save(ctx context.Context, readerID string, histories []domain.History) error {
	filePath, err := f.readerPath(readerID)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(f.BasePath, 0755); err != nil {
		return fmt.Errorf("%w: failed to ensure reader directory: %v", domain.ErrStoreUnavailable, err)
	}

	data, err := json.MarshalIndent(histories, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal histories: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated
	// collection behind.
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write reader file: %v", domain.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("%w: failed to commit reader file: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Load retrieves the reader's collection from a JSON file.
// A missing file yields an empty collection.
func (f *Store) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	filePath, err := f.readerPath(readerID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read reader file: %v", domain.ErrStoreUnavailable, err)
	}

	var histories []domain.History
	if err := json.Unmarshal(data, &histories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal histories: %w", err)
	}

	return histories, nil
}

// Delete removes the reader's file.
func (f *Store) Delete(ctx context.Context, readerID string) error {
	filePath, err := f.readerPath(readerID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to delete reader file: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Readers returns every reader with a stored collection.
func (f *Store) Readers(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: failed to list readers: %v", domain.ErrStoreUnavailable, err)
	}

	var readers []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			// Remove .json extension
			name := entry.Name()
			id := name[:len(name)-len(".json")]
			readers = append(readers, id)
		}
	}

	return readers, nil
}
