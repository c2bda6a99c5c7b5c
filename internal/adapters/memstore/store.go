// Package memstore implements an in-memory coordination store.
// A Backend plays the role of the shared server; each Session is one instance's connection to it.
package memstore

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/zerr"
)

type entry struct {
	value   []byte
	session int
}

// Backend holds the tree shared by every session.
type Backend struct {
	mu          sync.RWMutex
	nodes       map[string]entry
	locks       map[string]chan struct{}
	nextSession int
	unavailable bool
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		nodes: make(map[string]entry),
		locks: make(map[string]chan struct{}),
	}
}

// Session opens a new session against the backend.
func (b *Backend) Session() *Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSession++
	return &Store{backend: b, id: b.nextSession, lost: make(chan error, 1)}
}

// SetUnavailable makes every call fail as if the store could not be reached.
func (b *Backend) SetUnavailable(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = v
}

// Dump returns a copy of every node value, keyed by path.
func (b *Backend) Dump() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.nodes))
	for k, e := range b.nodes {
		out[k] = string(e.value)
	}
	return out
}

func (b *Backend) lock(p string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.locks[p]
	if !ok {
		ch = make(chan struct{}, 1)
		b.locks[p] = ch
	}
	return ch
}

// Store implements ports.CoordinationStore for one session of a Backend.
type Store struct {
	backend *Backend
	id      int
	lost    chan error
	mu      sync.Mutex
	closed  bool
}

var errSessionClosed = errors.New("session closed")

func clean(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

func (s *Store) check(op, p string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errors.Join(domain.ErrStoreUnavailable, zerr.With(zerr.Wrap(errSessionClosed, op), "path", p))
	}
	if s.backend.unavailable {
		return errors.Join(domain.ErrStoreUnavailable, zerr.With(zerr.New(op+" failed"), "path", p))
	}
	return nil
}

func hasChildren(nodes map[string]entry, p string) bool {
	prefix := p + "/"
	for k := range nodes {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Exists reports whether path holds a value or has children.
func (s *Store) Exists(_ context.Context, p string) (bool, error) {
	p = clean(p)
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if err := s.check("exists", p); err != nil {
		return false, err
	}
	if _, ok := s.backend.nodes[p]; ok {
		return true, nil
	}
	return hasChildren(s.backend.nodes, p), nil
}

// Get returns the value at path.
func (s *Store) Get(_ context.Context, p string) ([]byte, bool, error) {
	p = clean(p)
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if err := s.check("get", p); err != nil {
		return nil, false, err
	}
	e, ok := s.backend.nodes[p]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(e.value), true, nil
}

// Set writes value at path. An ephemeral node keeps its owner.
func (s *Store) Set(_ context.Context, p string, value []byte) error {
	p = clean(p)
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if err := s.check("set", p); err != nil {
		return err
	}
	e := s.backend.nodes[p]
	e.value = slices.Clone(value)
	s.backend.nodes[p] = e
	return nil
}

// Update applies fn to the value at path while holding the backend lock.
func (s *Store) Update(_ context.Context, p string, fn func([]byte, bool) ([]byte, bool)) error {
	p = clean(p)
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if err := s.check("update", p); err != nil {
		return err
	}
	e, ok := s.backend.nodes[p]
	next, write := fn(slices.Clone(e.value), ok)
	if !write {
		return nil
	}
	e.value = slices.Clone(next)
	s.backend.nodes[p] = e
	return nil
}

// Delete removes path and, when recursive, everything below it.
func (s *Store) Delete(_ context.Context, p string, recursive bool) error {
	p = clean(p)
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if err := s.check("delete", p); err != nil {
		return err
	}
	if !recursive {
		if hasChildren(s.backend.nodes, p) {
			return zerr.With(zerr.Wrap(domain.ErrNodeHasChildren, "delete"), "path", p)
		}
		delete(s.backend.nodes, p)
		return nil
	}
	prefix := p + "/"
	for k := range s.backend.nodes {
		if k == p || strings.HasPrefix(k, prefix) || p == "" {
			delete(s.backend.nodes, k)
		}
	}
	return nil
}

// Children lists the immediate child names of path.
func (s *Store) Children(_ context.Context, p string) ([]string, error) {
	p = clean(p)
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if err := s.check("children", p); err != nil {
		return nil, err
	}
	prefix := p + "/"
	if p == "" {
		prefix = ""
	}
	seen := make(map[string]struct{})
	for k := range s.backend.nodes {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		seen[name] = struct{}{}
	}
	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	slices.Sort(children)
	return children, nil
}

// CreateEphemeral creates path owned by this session.
func (s *Store) CreateEphemeral(_ context.Context, p string, value []byte) error {
	p = clean(p)
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if err := s.check("create", p); err != nil {
		return err
	}
	if _, ok := s.backend.nodes[p]; ok {
		return zerr.With(zerr.Wrap(domain.ErrNodeExists, "create ephemeral"), "path", p)
	}
	s.backend.nodes[p] = entry{value: slices.Clone(value), session: s.id}
	return nil
}

// WithLock runs fn while holding the backend-wide lock for path.
func (s *Store) WithLock(ctx context.Context, p string, fn func(context.Context) error) error {
	p = clean(p)
	s.backend.mu.RLock()
	err := s.check("lock", p)
	s.backend.mu.RUnlock()
	if err != nil {
		return err
	}
	ch := s.backend.lock(p)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-ch }()
	return fn(ctx)
}

// Lost delivers the error passed to Expire.
func (s *Store) Lost() <-chan error {
	return s.lost
}

// Expire ends the session as if the server had timed it out: its ephemeral
// nodes go away, later calls fail and Lost fires.
func (s *Store) Expire() {
	_ = s.Close()
	select {
	case s.lost <- errors.Join(domain.ErrStoreUnavailable, zerr.With(zerr.New("session expired"), "session", s.id)):
	default:
	}
}

// Close ends the session and drops its ephemeral nodes.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	for k, e := range s.backend.nodes {
		if e.session == s.id {
			delete(s.backend.nodes, k)
		}
	}
	return nil
}
