// Package registry publishes instance membership in the coordination store.
//
// Each member is an ephemeral node groups/{group}/node-{ordinal} holding the
// member record as JSON. The node disappears when the instance's session ends,
// so the inventory only ever lists live instances.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Registry implements ports.GroupRegistry.
type Registry struct {
	store  ports.CoordinationStore
	logger ports.Logger
}

var _ ports.GroupRegistry = (*Registry)(nil)

// New creates a Registry.
func New(store ports.CoordinationStore, logger ports.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Join publishes member under its own ordinal.
// It fails with domain.ErrNodeExists when the ordinal is taken.
func (r *Registry) Join(ctx context.Context, group string, member domain.Member) error {
	data, err := json.Marshal(member)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMemberEncodeFailed.Error()), "hostname", member.Hostname)
	}
	return r.store.CreateEphemeral(ctx, domain.MemberPath(group, member.Ordinal), data)
}

// Register joins group under the smallest positive ordinal not in use.
// A lost race moves on to the next candidate; only ctx bounds the attempts.
func (r *Registry) Register(ctx context.Context, group string, member domain.Member) (int, error) {
	children, err := r.store.Children(ctx, domain.GroupPath(group))
	if err != nil {
		return 0, err
	}
	taken := make(map[int]struct{}, len(children))
	for _, name := range children {
		if n, ok := domain.ParseMemberOrdinal(name); ok {
			taken[n] = struct{}{}
		}
	}

	candidate := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		candidate = nextFree(taken, candidate)

		member.Ordinal = candidate
		err := r.Join(ctx, group, member)
		if err == nil {
			r.logger.Info("registered " + member.Hostname + " as " + group + " member " + strconv.Itoa(candidate))
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrNodeExists) {
			return 0, err
		}
		r.logger.Debug("ordinal " + strconv.Itoa(candidate) + " of " + group + " taken, trying the next")
		taken[candidate] = struct{}{}
	}
}

func nextFree(taken map[int]struct{}, after int) int {
	n := after + 1
	for {
		if _, ok := taken[n]; !ok {
			return n
		}
		n++
	}
}

// ListGroups reads every member of every group, one group per goroutine.
// Hosts are listed under the role they run, which is the group name unless
// the instance joined a group of its own.
// Members that vanish while listing, or hold an unreadable record, are skipped.
func (r *Registry) ListGroups(ctx context.Context) (domain.Inventory, error) {
	inv := domain.NewInventory()

	groups, err := r.store.Children(ctx, domain.GroupsRoot)
	if err != nil {
		return inv, err
	}

	members := make([][]domain.Member, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			var err error
			members[i], err = r.readGroup(gctx, group)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return inv, err
	}

	for _, ms := range members {
		for _, m := range ms {
			inv.Groups[m.Role] = append(inv.Groups[m.Role], m.Hostname)
			inv.HostVars[m.Hostname] = m
		}
	}
	for role, hosts := range inv.Groups {
		slices.Sort(hosts)
		inv.Groups[role] = slices.Compact(hosts)
	}
	return inv, nil
}

func (r *Registry) readGroup(ctx context.Context, group string) ([]domain.Member, error) {
	names, err := r.store.Children(ctx, domain.GroupPath(group))
	if err != nil {
		return nil, err
	}
	var members []domain.Member
	for _, name := range names {
		if _, ok := domain.ParseMemberOrdinal(name); !ok {
			continue
		}
		p := domain.GroupPath(group) + "/" + name
		data, ok, err := r.store.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var m domain.Member
		if err := json.Unmarshal(data, &m); err != nil || m.Hostname == "" {
			r.logger.Warn("skipping unreadable group member " + p)
			continue
		}
		if m.Role == "" {
			m.Role = group
		}
		members = append(members, m)
	}
	return members, nil
}
