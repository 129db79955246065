// Package runstate persists per-job outcomes across a pipeline invocation
// so the CLI can report which targets failed and where their logs are,
// even after the worker pool has torn down.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Status is a job's final disposition.
type Status string

const (
	StatusDone      Status = "done"
	StatusSatisfied Status = "satisfied"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// JobResult is the recorded outcome of one job.
type JobResult struct {
	Target     string        `json:"target"`
	Rule       string        `json:"rule"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	LogPath    string        `json:"log_path,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

var jobsBucket = []byte("jobs")

// Store is a bbolt-backed outcome store. Safe for concurrent Record calls.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the store at path, creating parent directories as
// needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("opening run-state store: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening run-state store %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(jobsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing run-state store %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Record upserts one job outcome keyed by its target.
func (s *Store) Record(r JobResult) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding job result: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).Put([]byte(r.Target), buf)
	})
}

// Get returns the recorded outcome for a target, if any.
func (s *Store) Get(target string) (*JobResult, error) {
	var out *JobResult
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(jobsBucket).Get([]byte(target))
		if v == nil {
			return nil
		}
		var r JobResult
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		out = &r
		return nil
	})
	return out, err
}

// Failed returns every failed or skipped job outcome, sorted by target.
func (s *Store) Failed() ([]JobResult, error) {
	var out []JobResult
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).ForEach(func(k, v []byte) error {
			var r JobResult
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Status == StatusFailed || r.Status == StatusSkipped {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }
