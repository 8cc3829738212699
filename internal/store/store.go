// Package store persists notification options keyed by identifier.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
)

var (
	// ErrNotFound indicates that no record exists for a key.
	ErrNotFound = errors.New("record not found")
	// ErrCorruptRecord indicates that a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "localnotify"

// Backend is a namespaced key-value store of raw bytes.
// Every call must be atomic per key.
type Backend interface {
	// Put creates or overwrites the value of a key.
	Put(ctx context.Context, namespace, key string, value []byte) error
	// Get returns the value of a key or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	// Delete removes a key. Removing an absent key is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// Keys lists every key of a namespace.
	Keys(ctx context.Context, namespace string) ([]string, error)
	// Close releases the backend resources.
	Close() error
}

// Store maps notification identifiers to their serialized options.
type Store struct {
	backend   Backend
	namespace string
	log       logging.Logger
}

// New creates a Store over the backend. An empty namespace selects DefaultNamespace.
func New(backend Backend, namespace string, log logging.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Store{backend: backend, namespace: namespace, log: log.With("component", "store")}
}

// Namespace returns the namespace notification records live in.
func (s *Store) Namespace() string {
	return s.namespace
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Put writes the record of opts.ID, replacing any previous one.
func (s *Store) Put(ctx context.Context, opts options.Options) error {
	data, err := opts.Serialize()
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, s.namespace, opts.Key(), data); err != nil {
		return fmt.Errorf("store: put %d: %w", opts.ID, err)
	}
	return nil
}

// Get loads the options stored for id.
func (s *Store) Get(ctx context.Context, id int32) (options.Options, error) {
	key := strconv.FormatInt(int64(id), 10)
	data, err := s.backend.Get(ctx, s.namespace, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return options.Options{}, fmt.Errorf("store: get %d: %w", id, ErrNotFound)
		}
		return options.Options{}, fmt.Errorf("store: get %d: %w", id, err)
	}
	opts, err := options.Decode(data)
	if err != nil {
		s.corrupt(key, err)
		return options.Options{}, fmt.Errorf("store: get %d: %w: %v", id, ErrCorruptRecord, err)
	}
	if opts.ID != id {
		s.corrupt(key, fmt.Errorf("record id %d does not match key", opts.ID))
		return options.Options{}, fmt.Errorf("store: get %d: %w: id mismatch", id, ErrCorruptRecord)
	}
	return opts, nil
}

// Remove deletes the record of id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id int32) error {
	if err := s.backend.Delete(ctx, s.namespace, strconv.FormatInt(int64(id), 10)); err != nil {
		return fmt.Errorf("store: remove %d: %w", id, err)
	}
	return nil
}

// IDs returns every stored identifier in ascending order.
func (s *Store) IDs(ctx context.Context) ([]int32, error) {
	keys, err := s.backend.Keys(ctx, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("store: list ids: %w", err)
	}
	ids := make([]int32, 0, len(keys))
	for _, k := range keys {
		n, err := strconv.ParseInt(k, 10, 32)
		if err != nil || n <= 0 {
			s.log.Warn("skipping non-numeric key", "key", k)
			continue
		}
		ids = append(ids, int32(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// All returns the options of every decodable record, ordered by id.
func (s *Store) All(ctx context.Context) ([]options.Options, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]options.Options, 0, len(ids))
	for _, id := range ids {
		opts, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorruptRecord) {
				continue
			}
			return nil, err
		}
		all = append(all, opts)
	}
	return all, nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) corrupt(key string, err error) {
	metrics.IncCorruptRecord()
	s.log.Warn("corrupt record", "namespace", s.namespace, "key", key, "error", err.Error())
}
