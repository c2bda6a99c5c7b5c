// Package consul implements the coordination store on HashiCorp Consul.
//
// Paths map to KV keys under {prefix}/{deployment}. Ephemeral nodes are keys
// acquired by a session created with the delete behavior, so they vanish when
// the session is destroyed or its TTL lapses. Locks live under a separate
// locks/ subtree so they never show up in children listings.
package consul

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultSessionTTL is the TTL of the membership session.
	DefaultSessionTTL = 15 * time.Second

	// DefaultPrefix is the key prefix every deployment lives under.
	DefaultPrefix = "ignite"

	locksSegment = "locks"
)

// Config holds the connection settings.
type Config struct {
	Address    string
	Token      string
	Datacenter string
	Prefix     string
	Deployment string
	SessionTTL time.Duration
}

// Store implements ports.CoordinationStore.
type Store struct {
	client *api.Client
	kv     *api.KV
	root   string
	ttl    time.Duration
	name   string
	logger ports.Logger

	lost chan error

	mu        sync.Mutex
	sessionID string
	done      chan struct{}
}

// New creates a Store. No request is made until the first operation.
func New(cfg Config, logger ports.Logger) (*Store, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		apiCfg.Datacenter = cfg.Datacenter
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, errors.Join(domain.ErrStoreUnavailable, zerr.With(zerr.Wrap(err, "create consul client"), "address", apiCfg.Address))
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Store{
		client: client,
		kv:     client.KV(),
		root:   strings.Trim(path.Join(prefix, cfg.Deployment), "/"),
		ttl:    ttl,
		name:   "ignite-" + cfg.Deployment,
		logger: logger,
		lost:   make(chan error, 1),
	}, nil
}

func (s *Store) key(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return s.root
	}
	return s.root + "/" + p
}

func unavailable(err error, op, key string) error {
	return errors.Join(domain.ErrStoreUnavailable, zerr.With(zerr.Wrap(err, op), "key", key))
}

func queryOpts(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{RequireConsistent: true}).WithContext(ctx)
}

func writeOpts(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}

// Exists reports whether path holds a value or has children.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	k := s.key(p)
	pair, _, err := s.kv.Get(k, queryOpts(ctx))
	if err != nil {
		return false, unavailable(err, "consul get", k)
	}
	if pair != nil {
		return true, nil
	}
	keys, _, err := s.kv.Keys(k+"/", "/", queryOpts(ctx))
	if err != nil {
		return false, unavailable(err, "consul keys", k)
	}
	return len(keys) > 0, nil
}

// Get returns the value at path.
func (s *Store) Get(ctx context.Context, p string) ([]byte, bool, error) {
	k := s.key(p)
	pair, _, err := s.kv.Get(k, queryOpts(ctx))
	if err != nil {
		return nil, false, unavailable(err, "consul get", k)
	}
	if pair == nil {
		return nil, false, nil
	}
	return pair.Value, true, nil
}

// Set writes value at path. Consul keys have no parents to create.
func (s *Store) Set(ctx context.Context, p string, value []byte) error {
	k := s.key(p)
	if _, err := s.kv.Put(&api.KVPair{Key: k, Value: value}, writeOpts(ctx)); err != nil {
		return unavailable(err, "consul put", k)
	}
	return nil
}

// Update applies fn with a check-and-set on the key's modify index, reading
// again whenever another writer got in first.
func (s *Store) Update(ctx context.Context, p string, fn func([]byte, bool) ([]byte, bool)) error {
	k := s.key(p)
	for {
		pair, _, err := s.kv.Get(k, queryOpts(ctx))
		if err != nil {
			return unavailable(err, "consul get", k)
		}
		next := &api.KVPair{Key: k}
		var current []byte
		if pair != nil {
			current = pair.Value
			next.ModifyIndex = pair.ModifyIndex
			next.Flags = pair.Flags
		}
		value, write := fn(current, pair != nil)
		if !write {
			return nil
		}
		next.Value = value
		ok, _, err := s.kv.CAS(next, writeOpts(ctx))
		if err != nil {
			return unavailable(err, "consul cas", k)
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Delete removes path, and everything below it when recursive.
func (s *Store) Delete(ctx context.Context, p string, recursive bool) error {
	k := s.key(p)
	if !recursive {
		keys, _, err := s.kv.Keys(k+"/", "/", queryOpts(ctx))
		if err != nil {
			return unavailable(err, "consul keys", k)
		}
		if len(keys) > 0 {
			return zerr.With(zerr.Wrap(domain.ErrNodeHasChildren, "delete"), "key", k)
		}
	} else if _, err := s.kv.DeleteTree(k+"/", writeOpts(ctx)); err != nil {
		return unavailable(err, "consul delete tree", k)
	}
	if _, err := s.kv.Delete(k, writeOpts(ctx)); err != nil {
		return unavailable(err, "consul delete", k)
	}
	return nil
}

// Children lists the immediate child names of path.
func (s *Store) Children(ctx context.Context, p string) ([]string, error) {
	k := s.key(p) + "/"
	keys, _, err := s.kv.Keys(k, "/", queryOpts(ctx))
	if err != nil {
		return nil, unavailable(err, "consul keys", k)
	}
	return childNames(k, keys), nil
}

func childNames(prefix string, keys []string) []string {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CreateEphemeral creates path bound to the instance session in one transaction.
func (s *Store) CreateEphemeral(ctx context.Context, p string, value []byte) error {
	sid, err := s.session(ctx)
	if err != nil {
		return err
	}
	k := s.key(p)
	ops := api.KVTxnOps{
		{Verb: api.KVCheckNotExists, Key: k},
		{Verb: api.KVLock, Key: k, Value: value, Session: sid},
	}
	ok, resp, _, err := s.kv.Txn(ops, queryOpts(ctx))
	if err != nil {
		return unavailable(err, "consul txn", k)
	}
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrNodeExists, "create ephemeral"), "key", k)
		if resp != nil && len(resp.Errors) > 0 {
			err = zerr.With(err, "reason", resp.Errors[0].What)
		}
		return err
	}
	return nil
}

// session returns the instance session, creating it and its renewal loop on first use.
func (s *Store) session(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID != "" {
		return s.sessionID, nil
	}

	sessions := s.client.Session()
	id, _, err := sessions.Create(&api.SessionEntry{
		Name:      s.name,
		Behavior:  api.SessionBehaviorDelete,
		TTL:       s.ttl.String(),
		LockDelay: time.Second,
	}, writeOpts(ctx))
	if err != nil {
		return "", unavailable(err, "consul session create", s.root)
	}

	s.sessionID = id
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		if err := sessions.RenewPeriodic(s.ttl.String(), id, nil, done); err != nil {
			err = unavailable(err, "consul session renew", s.root)
			s.logger.Error(err)
			select {
			case s.lost <- err:
			default:
			}
		}
	}(s.done)
	return id, nil
}

// Lost delivers the renewal error once the session has expired.
func (s *Store) Lost() <-chan error {
	return s.lost
}

// WithLock runs fn while holding a Consul lock for path.
// Losing the lock cancels the context passed to fn and fails the call with domain.ErrLockLost.
func (s *Store) WithLock(ctx context.Context, p string, fn func(context.Context) error) error {
	k := s.root + "/" + locksSegment + "/" + strings.Trim(path.Clean("/"+p), "/")
	lock, err := s.client.LockOpts(&api.LockOptions{
		Key:         k,
		SessionName: s.name + "-lock",
		SessionTTL:  s.ttl.String(),
	})
	if err != nil {
		return unavailable(err, "consul lock", k)
	}

	lost, err := lock.Lock(ctx.Done())
	if err != nil {
		return unavailable(err, "consul lock", k)
	}
	if lost == nil {
		return ctx.Err()
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release lock " + k + ": " + err.Error())
		}
		if err := lock.Destroy(); err != nil && !errors.Is(err, api.ErrLockInUse) {
			s.logger.Debug("lock key " + k + " kept: " + err.Error())
		}
	}()

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-lost:
			cancel(domain.ErrLockLost)
		case <-fnCtx.Done():
		}
	}()

	if err := fn(fnCtx); err != nil {
		if errors.Is(context.Cause(fnCtx), domain.ErrLockLost) {
			return zerr.With(zerr.Wrap(domain.ErrLockLost, err.Error()), "key", k)
		}
		return err
	}
	return nil
}

// Close destroys the session, removing every ephemeral node it holds.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		return nil
	}
	close(s.done)
	_, err := s.client.Session().Destroy(s.sessionID, nil)
	s.sessionID = ""
	if err != nil {
		return unavailable(err, "consul session destroy", s.root)
	}
	return nil
}
