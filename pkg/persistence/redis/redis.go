// Package redis provides Redis-backed persistence for workflow rules
// and execution history. Each collection is stored as one serialized
// JSON blob under a fixed key, mirroring the original key-value store
// contract.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gestia/automate/pkg/models"
	"github.com/gestia/automate/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

type Store struct {
	client redis.UniversalClient
}

// NewStore creates a Redis store from a redis:// connection URL.
func NewStore(url string) (persistence.Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &Store{client: redis.NewClient(opts)}, nil
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return persistence.NewStoreError("HealthCheck", "", persistence.ErrStoreUnavailable)
	}

	return nil
}

func (s *Store) LoadRules(ctx context.Context) ([]*models.WorkflowRule, error) {
	rules := make([]*models.WorkflowRule, 0)
	if err := s.read(ctx, persistence.RulesKey, &rules); err != nil {
		return nil, persistence.NewStoreError("LoadRules", persistence.RulesKey, err)
	}

	return rules, nil
}

func (s *Store) SaveRules(ctx context.Context, rules []*models.WorkflowRule) error {
	if err := s.write(ctx, persistence.RulesKey, rules); err != nil {
		return persistence.NewStoreError("SaveRules", persistence.RulesKey, err)
	}

	return nil
}

func (s *Store) LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	executions := make([]*models.WorkflowExecution, 0)
	if err := s.read(ctx, persistence.ExecutionsKey, &executions); err != nil {
		return nil, persistence.NewStoreError("LoadExecutions", persistence.ExecutionsKey, err)
	}

	return executions, nil
}

func (s *Store) SaveExecutions(ctx context.Context, executions []*models.WorkflowExecution) error {
	if err := s.write(ctx, persistence.ExecutionsKey, executions); err != nil {
		return persistence.NewStoreError("SaveExecutions", persistence.ExecutionsKey, err)
	}

	return nil
}

// read unmarshals a collection blob into out. A missing key is not an
// error: the collection is simply empty.
func (s *Store) read(ctx context.Context, key string, out any) error {
	body, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return nil
}

func (s *Store) write(ctx context.Context, key string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}
