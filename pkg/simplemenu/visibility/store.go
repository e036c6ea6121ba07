package visibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Persister loads and saves the complete set of records.
type Persister interface {
	Name() string
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
}

// Store is the in-memory visibility map backed by persisters.
//
// Writes go to the local persister first, where failure is only logged, and
// then to every remote persister, where failure is returned. Each save
// overwrites the whole document; concurrent writers in different processes
// race and the last one wins.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	local   Persister
	remotes []Persister
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLocal sets the best-effort local persister.
func WithLocal(p Persister) Option {
	return func(s *Store) {
		s.local = p
	}
}

// WithRemote adds a remote persister.
func WithRemote(p Persister) Option {
	return func(s *Store) {
		if p != nil {
			s.remotes = append(s.remotes, p)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]Record),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory records with the first source that yields a
// valid document: remote persisters in order, then the local one. It returns
// the name of the source used, or "" when the store starts empty.
func (s *Store) Load(ctx context.Context) string {
	sources := append([]Persister{}, s.remotes...)
	if s.local != nil {
		sources = append(sources, s.local)
	}

	for _, p := range sources {
		records, err := p.Load(ctx)
		if err != nil {
			s.logger.Warn("Failed to load visibility settings", "source", p.Name(), "err", err)
			continue
		}
		s.mu.Lock()
		s.records = records
		s.mu.Unlock()
		s.logger.Info("Loaded visibility settings", "source", p.Name(), "count", len(records))
		return p.Name()
	}

	s.logger.Info("No visibility settings found, starting empty")
	return ""
}

// Get returns the record for name, or DefaultRecord when none is stored.
func (s *Store) Get(name string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[name]; ok {
		return r
	}
	return DefaultRecord()
}

// Lookup returns the stored record and whether it exists.
func (s *Store) Lookup(name string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[name]
	return r, ok
}

// All returns a copy of every stored record.
func (s *Store) All() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copyLocked()
}

// Set stores record for name and persists the store.
func (s *Store) Set(ctx context.Context, name string, record Record) error {
	s.mu.Lock()
	s.records[name] = record
	snapshot := s.copyLocked()
	s.mu.Unlock()

	return s.persist(ctx, snapshot)
}

// Rename moves the record of from to to. It is a no-op when from has no record.
func (s *Store) Rename(ctx context.Context, from, to string) error {
	s.mu.Lock()
	r, ok := s.records[from]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.records[to] = r
	delete(s.records, from)
	snapshot := s.copyLocked()
	s.mu.Unlock()

	return s.persist(ctx, snapshot)
}

// Delete removes the record of name.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	if _, ok := s.records[name]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.records, name)
	snapshot := s.copyLocked()
	s.mu.Unlock()

	return s.persist(ctx, snapshot)
}

func (s *Store) copyLocked() map[string]Record {
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

func (s *Store) persist(ctx context.Context, records map[string]Record) error {
	if s.local != nil {
		if err := s.local.Save(ctx, records); err != nil {
			s.logger.Warn("Failed to save visibility settings locally", "source", s.local.Name(), "err", err)
		}
	}

	var errs []error
	for _, p := range s.remotes {
		if err := p.Save(ctx, records); err != nil {
			s.logger.Error("Failed to save visibility settings", "source", p.Name(), "err", err)
			errs = append(errs, fmt.Errorf("save visibility to %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
