// Package file provides file-based persistence for workflow rules and
// execution history.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gestia/automate/pkg/models"
	"github.com/gestia/automate/pkg/persistence"
)

// Store implements the persistence.Store interface using two JSON
// documents under a root directory, one per collection key.
type Store struct {
	root string
}

// NewStore creates a file store rooted at the given directory.
func NewStore(root string) persistence.Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

// Close performs any necessary cleanup. For the file store there is
// nothing to clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) LoadRules(_ context.Context) ([]*models.WorkflowRule, error) {
	rules := make([]*models.WorkflowRule, 0)
	if err := s.read(persistence.RulesKey, &rules); err != nil {
		return nil, persistence.NewStoreError("LoadRules", persistence.RulesKey, err)
	}

	return rules, nil
}

func (s *Store) SaveRules(_ context.Context, rules []*models.WorkflowRule) error {
	if err := s.write(persistence.RulesKey, rules); err != nil {
		return persistence.NewStoreError("SaveRules", persistence.RulesKey, err)
	}

	return nil
}

func (s *Store) LoadExecutions(_ context.Context) ([]*models.WorkflowExecution, error) {
	executions := make([]*models.WorkflowExecution, 0)
	if err := s.read(persistence.ExecutionsKey, &executions); err != nil {
		return nil, persistence.NewStoreError("LoadExecutions", persistence.ExecutionsKey, err)
	}

	return executions, nil
}

func (s *Store) SaveExecutions(_ context.Context, executions []*models.WorkflowExecution) error {
	if err := s.write(persistence.ExecutionsKey, executions); err != nil {
		return persistence.NewStoreError("SaveExecutions", persistence.ExecutionsKey, err)
	}

	return nil
}

func (s *Store) filePath(key string) string {
	return filepath.Clean(path.Join(s.root, key+".json"))
}

// read unmarshals a collection document into out. A missing file is not
// an error: the collection is simply empty.
func (s *Store) read(key string, out any) error {
	body, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return nil
}

// write marshals the collection and replaces the document atomically so
// a crashed save never leaves a truncated collection behind.
func (s *Store) write(key string, in any) error {
	if err := os.MkdirAll(s.root, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	tmpPath := s.filePath(key) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return os.Rename(tmpPath, s.filePath(key))
}
