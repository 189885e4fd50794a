// Package results persists the pipeline documents and loads them back strictly.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// Required keys of each document. Nested requirements are keyed by their parent.
var (
	resultKeys = []string{"kmeans_results", "best_kmeans", "dbscan_results", "hierarchical_results", "feature_importance"}
	sweepKeys  = []string{"k", "silhouette_score", "davies_bouldin_score"}
	bestKeys   = []string{"k", "silhouette_score"}
	trialKeys  = []string{"silhouette_score"}
	dimsKeys   = []string{"explained_variance", "cumulative_variance", "feature_importance"}
)

// Store reads and writes documents in one output directory.
type Store struct {
	Dir string
}

var _ contract.ResultReader = &Store{} // Compile-time check

// NewStore returns a Store for dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// ResultsPath returns the location of the result document.
func (s *Store) ResultsPath() string {
	return filepath.Join(s.Dir, schema.ResultsFile)
}

// DimensionalityPath returns the location of the dimensionality document.
func (s *Store) DimensionalityPath() string {
	return filepath.Join(s.Dir, schema.DimensionalityFile)
}

// SaveResults writes the result document atomically.
func (s *Store) SaveResults(doc *schema.ResultDocument) error {
	return writeJSON(s.ResultsPath(), doc)
}

// SaveDimensionality writes the dimensionality document atomically.
func (s *Store) SaveDimensionality(doc *schema.DimensionalityDocument) error {
	return writeJSON(s.DimensionalityPath(), doc)
}

// LoadResults reads and validates the result document.
func (s *Store) LoadResults() (*schema.ResultDocument, error) {
	data, err := readDocument(s.ResultsPath())
	if err != nil {
		return nil, err
	}
	if err := ValidateResults(data); err != nil {
		return nil, err
	}
	var doc schema.ResultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", contract.ErrMalformedDocument, schema.ResultsFile, err)
	}
	return &doc, nil
}

// LoadDimensionality reads and validates the dimensionality document.
func (s *Store) LoadDimensionality() (*schema.DimensionalityDocument, error) {
	data, err := readDocument(s.DimensionalityPath())
	if err != nil {
		return nil, err
	}
	if err := ValidateDimensionality(data); err != nil {
		return nil, err
	}
	var doc schema.DimensionalityDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", contract.ErrMalformedDocument, schema.DimensionalityFile, err)
	}
	return &doc, nil
}

// ValidateResults checks that a raw result document has every required key.
func ValidateResults(data []byte) error {
	top, err := requireObject(data, schema.ResultsFile, resultKeys)
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(top["kmeans_results"], &rows); err != nil {
		return fmt.Errorf("%w: kmeans_results must be an array", contract.ErrMalformedDocument)
	}
	for i, row := range rows {
		if _, err := requireObject(row, fmt.Sprintf("kmeans_results[%d]", i), sweepKeys); err != nil {
			return err
		}
	}
	if _, err := requireObject(top["best_kmeans"], "best_kmeans", bestKeys); err != nil {
		return err
	}
	if _, err := requireObject(top["dbscan_results"], "dbscan_results", trialKeys); err != nil {
		return err
	}
	if _, err := requireObject(top["hierarchical_results"], "hierarchical_results", trialKeys); err != nil {
		return err
	}
	return nil
}

// ValidateDimensionality checks that a raw dimensionality document has every required key.
func ValidateDimensionality(data []byte) error {
	_, err := requireObject(data, schema.DimensionalityFile, dimsKeys)
	return err
}

// requireObject decodes data as a JSON object and checks that every key is present and not null.
func requireObject(data []byte, name string, keys []string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", contract.ErrMalformedDocument, name)
	}
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: %s is missing required key %q", contract.ErrMalformedDocument, name, key)
		}
	}
	return obj, nil
}

func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contract.ErrResultsNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeJSON marshals v fully before the atomic write so an encoding error
// never reaches the filesystem.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", contract.ErrPersistenceFailure, filepath.Base(path), err)
	}
	data = append(data, '\n')
	return contract.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
