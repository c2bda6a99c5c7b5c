package consul_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
)

// maxBlock caps blocking queries so the test server can always shut down.
const maxBlock = 200 * time.Millisecond

// fakeConsul serves the parts of the Consul HTTP API the store relies on:
// KV reads and writes with check-and-set and lock semantics, blocking
// queries, transactions and sessions.
type fakeConsul struct {
	mu       sync.Mutex
	index    uint64
	changed  chan struct{}
	kv       map[string]*api.KVPair
	sessions map[string]*api.SessionEntry
	created  int
}

func newFakeConsul() *fakeConsul {
	return &fakeConsul{
		changed:  make(chan struct{}),
		kv:       make(map[string]*api.KVPair),
		sessions: make(map[string]*api.SessionEntry),
	}
}

func (f *fakeConsul) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch p := r.URL.Path; {
	case strings.HasPrefix(p, "/v1/kv/"):
		f.serveKV(w, r, strings.TrimPrefix(p, "/v1/kv/"))
	case p == "/v1/txn":
		f.serveTxn(w, r)
	case p == "/v1/session/create":
		f.createSession(w, r)
	case strings.HasPrefix(p, "/v1/session/renew/"):
		f.renewSession(w, strings.TrimPrefix(p, "/v1/session/renew/"))
	case strings.HasPrefix(p, "/v1/session/destroy/"):
		f.expire(strings.TrimPrefix(p, "/v1/session/destroy/"))
		_, _ = w.Write([]byte("true"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// bump advances the index and wakes blocking queries. Callers hold mu.
func (f *fakeConsul) bump() uint64 {
	f.index++
	close(f.changed)
	f.changed = make(chan struct{})
	return f.index
}

// waitPast blocks until the index moves beyond idx or maxBlock elapses.
func (f *fakeConsul) waitPast(idx uint64) {
	f.mu.Lock()
	if f.index > idx {
		f.mu.Unlock()
		return
	}
	ch := f.changed
	f.mu.Unlock()
	select {
	case <-ch:
	case <-time.After(maxBlock):
	}
}

// write stores value at key. Callers hold mu.
func (f *fakeConsul) write(key string, value []byte, flags uint64, session string) *api.KVPair {
	idx := f.bump()
	pair := &api.KVPair{Key: key, Value: value, Flags: flags, Session: session, ModifyIndex: idx, CreateIndex: idx}
	if cur, ok := f.kv[key]; ok {
		pair.CreateIndex = cur.CreateIndex
		pair.LockIndex = cur.LockIndex
	}
	if session != "" {
		pair.LockIndex++
	}
	f.kv[key] = pair
	return pair
}

func (f *fakeConsul) serveKV(w http.ResponseWriter, r *http.Request, key string) {
	q := r.URL.Query()
	if r.Method == http.MethodGet && q.Has("index") {
		idx, _ := strconv.ParseUint(q.Get("index"), 10, 64)
		f.waitPast(idx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("X-Consul-Index", strconv.FormatUint(f.index, 10))

	switch r.Method {
	case http.MethodGet:
		if q.Has("keys") {
			f.keys(w, key, q.Get("separator"))
			return
		}
		pair, ok := f.kv[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]*api.KVPair{pair})
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		flags, _ := strconv.ParseUint(q.Get("flags"), 10, 64)
		cur := f.kv[key]
		held := ""
		if cur != nil {
			held = cur.Session
		}
		switch {
		case q.Has("acquire"):
			sid := q.Get("acquire")
			if _, ok := f.sessions[sid]; !ok || (held != "" && held != sid) {
				_, _ = w.Write([]byte("false"))
				return
			}
			f.write(key, body, flags, sid)
		case q.Has("release"):
			if cur == nil || held != q.Get("release") {
				_, _ = w.Write([]byte("false"))
				return
			}
			f.write(key, body, flags, "")
		case q.Has("cas"):
			idx, _ := strconv.ParseUint(q.Get("cas"), 10, 64)
			if (idx == 0 && cur != nil) || (idx != 0 && (cur == nil || cur.ModifyIndex != idx)) {
				_, _ = w.Write([]byte("false"))
				return
			}
			f.write(key, body, flags, held)
		default:
			f.write(key, body, flags, held)
		}
		_, _ = w.Write([]byte("true"))
	case http.MethodDelete:
		if q.Has("cas") {
			idx, _ := strconv.ParseUint(q.Get("cas"), 10, 64)
			if cur, ok := f.kv[key]; !ok || cur.ModifyIndex != idx {
				_, _ = w.Write([]byte("false"))
				return
			}
		}
		for k := range f.kv {
			if k == key || (q.Has("recurse") && strings.HasPrefix(k, key)) {
				delete(f.kv, k)
			}
		}
		f.bump()
		_, _ = w.Write([]byte("true"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeConsul) keys(w http.ResponseWriter, prefix, sep string) {
	var out []string
	for k := range f.kv {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		if sep != "" {
			if i := strings.Index(rest, sep); i >= 0 {
				k = prefix + rest[:i+len(sep)]
			}
		}
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeConsul) serveTxn(w http.ResponseWriter, r *http.Request) {
	var ops api.TxnOps
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var errs api.TxnErrors
	for i, op := range ops {
		kv := op.KV
		cur, exists := f.kv[kv.Key]
		switch kv.Verb {
		case api.KVCheckNotExists:
			if exists {
				errs = append(errs, &api.TxnError{OpIndex: i, What: fmt.Sprintf("key %q exists", kv.Key)})
			}
		case api.KVLock:
			if _, ok := f.sessions[kv.Session]; !ok {
				errs = append(errs, &api.TxnError{OpIndex: i, What: "invalid session " + kv.Session})
			} else if exists && cur.Session != "" && cur.Session != kv.Session {
				errs = append(errs, &api.TxnError{OpIndex: i, What: fmt.Sprintf("key %q is locked", kv.Key)})
			}
		case api.KVSet:
		default:
			errs = append(errs, &api.TxnError{OpIndex: i, What: "unsupported verb " + string(kv.Verb)})
		}
	}
	if len(errs) > 0 {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.TxnResponse{Errors: errs})
		return
	}

	var results api.TxnResults
	for _, op := range ops {
		kv := op.KV
		switch kv.Verb {
		case api.KVLock:
			results = append(results, &api.TxnResult{KV: f.write(kv.Key, kv.Value, kv.Flags, kv.Session)})
		case api.KVSet:
			held := ""
			if cur, ok := f.kv[kv.Key]; ok {
				held = cur.Session
			}
			results = append(results, &api.TxnResult{KV: f.write(kv.Key, kv.Value, kv.Flags, held)})
		}
	}
	_ = json.NewEncoder(w).Encode(api.TxnResponse{Results: results})
}

func (f *fakeConsul) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string
		Behavior string
		TTL      string
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("session-%d", f.created)
	behavior := body.Behavior
	if behavior == "" {
		behavior = api.SessionBehaviorRelease
	}
	f.sessions[id] = &api.SessionEntry{ID: id, Name: body.Name, Behavior: behavior, TTL: body.TTL}
	_ = json.NewEncoder(w).Encode(map[string]string{"ID": id})
}

func (f *fakeConsul) renewSession(w http.ResponseWriter, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.sessions[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode([]*api.SessionEntry{entry})
}

// expire invalidates a session the way a destroy or a lapsed TTL does.
func (f *fakeConsul) expire(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.sessions[id]
	if !ok {
		return
	}
	delete(f.sessions, id)
	for k, pair := range f.kv {
		if pair.Session != id {
			continue
		}
		if entry.Behavior == api.SessionBehaviorDelete {
			delete(f.kv, k)
			continue
		}
		released := *pair
		released.Session = ""
		f.kv[k] = &released
	}
	f.bump()
}

// set writes key as an unrelated client would.
func (f *fakeConsul) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := ""
	if cur, ok := f.kv[key]; ok {
		held = cur.Session
	}
	f.write(key, []byte(value), 0, held)
}

// drop removes key, as an operator clearing a lock by hand would.
func (f *fakeConsul) drop(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.kv, key)
	f.bump()
}

func (f *fakeConsul) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair, ok := f.kv[key]
	if !ok {
		return "", false
	}
	return string(pair.Value), true
}

func (f *fakeConsul) holder(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pair, ok := f.kv[key]; ok {
		return pair.Session
	}
	return ""
}

func (f *fakeConsul) sessionsCreated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}
