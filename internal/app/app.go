// Package app implements the application layer for ignite.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/ignite/internal/engine/renderer"
	"go.trai.ch/ignite/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Deps are the collaborators an App is built from.
type Deps struct {
	Settings  *domain.Settings
	Loader    ports.GraphLoader
	Store     ports.CoordinationStore
	Executor  ports.Executor
	Registry  ports.GroupRegistry
	Renderer  *renderer.Renderer
	Installer ports.Installer
	Host      ports.HostResolver
	Tracer    ports.Tracer
	Logger    ports.Logger
}

// App represents the main application logic.
type App struct {
	Deps
	schedulerOptions []scheduler.Option
}

// New creates a new App instance.
func New(deps Deps) *App {
	if deps.Settings == nil {
		deps.Settings = &domain.Settings{}
	}
	return &App{Deps: deps}
}

// WithSchedulerOptions adds options to every scheduler the App creates.
// This is primarily used for testing to replace real backoff pauses.
func (a *App) WithSchedulerOptions(opts ...scheduler.Option) *App {
	a.schedulerOptions = append(a.schedulerOptions, opts...)
	return a
}

// RunOptions overrides the instance settings for one invocation.
type RunOptions struct {
	Role      string
	Group     string
	GraphPath string
}

func (a *App) resolve(opts RunOptions) RunOptions {
	if opts.Role == "" {
		opts.Role = a.Settings.Role
	}
	if opts.Group == "" {
		opts.Group = a.Settings.Group
	}
	if opts.Group == "" {
		opts.Group = opts.Role
	}
	if opts.GraphPath == "" {
		opts.GraphPath = a.Settings.GraphPath
	}
	return opts
}

// Run bootstraps this instance in its role: it joins the role's group when
// the role has a daemon, then runs the role's commands until the daemon exits.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	opts = a.resolve(opts)
	if opts.Role == "" {
		return zerr.Wrap(domain.ErrConfigurationInvalid, "no role given")
	}

	// 1. Load the graph
	graph, err := a.loadGraph(opts.GraphPath)
	if err != nil {
		return err
	}
	cmds, err := graph.Role(opts.Role)
	if err != nil {
		return errors.Join(domain.ErrConfigurationInvalid, err)
	}

	// 2. Resolve who we are
	hostname, err := a.Host.Hostname()
	if err != nil {
		return err
	}
	layout, err := domain.NewLayout(hostname)
	if err != nil {
		return errors.Join(domain.ErrConfigurationInvalid, err)
	}
	id := renderer.Identity{
		Deployment: a.Settings.Deployment,
		Role:       opts.Role,
		Hostname:   hostname,
	}

	// 3. Join the group. From here on a lost store session ends the run.
	ctx, stop := a.watchSession(ctx)
	defer stop()
	if domain.HasDaemon(cmds) {
		id.Addresses, err = a.Host.Addresses(a.Settings.Interfaces)
		if err != nil {
			return err
		}
		id.Ordinal, err = a.Registry.Register(ctx, opts.Group, domain.Member{
			Addresses: id.Addresses,
			Hostname:  hostname,
			Role:      opts.Role,
		})
		if err != nil {
			return zerr.Wrap(err, "failed to join group "+opts.Group)
		}
	}

	// 4. Run the commands
	provisioner := renderer.NewProvisioner(a.Renderer, a.Registry, a.Installer, a.Logger, id)
	sched := scheduler.NewScheduler(a.Store, a.Executor, provisioner, a.Tracer, a.Logger, layout, a.schedulerOptions...)

	a.Logger.Info(fmt.Sprintf("starting %s as %s with %d command(s)", hostname, opts.Role, len(cmds)))
	if err := sched.Run(ctx, cmds); err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, domain.ErrStoreUnavailable) {
			return cause
		}
		return err
	}
	a.Logger.Info("all commands of " + opts.Role + " are DONE")
	return nil
}

// watchSession derives a context that is cancelled with the store's error
// once its session is lost.
func (a *App) watchSession(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	go func() {
		select {
		case err := <-a.Store.Lost():
			a.Logger.Error(zerr.Wrap(err, "coordination session lost"))
			cancel(errors.Join(domain.ErrStoreUnavailable, err))
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(nil) }
}

func (a *App) loadGraph(path string) (*domain.Graph, error) {
	graph, err := a.Loader.Load(path)
	if err != nil {
		return nil, errors.Join(domain.ErrConfigurationInvalid, err)
	}
	if err := graph.Validate(); err != nil {
		return nil, errors.Join(domain.ErrConfigurationInvalid, zerr.With(zerr.Wrap(err, "invalid graph"), "path", path))
	}
	return graph, nil
}

// Validate checks the graph file at path without contacting the store and
// writes a summary of its roles to w.
func (a *App) Validate(path string, w io.Writer) error {
	if path == "" {
		path = a.Settings.GraphPath
	}
	graph, err := a.loadGraph(path)
	if err != nil {
		return err
	}
	for _, role := range graph.Roles() {
		cmds, _ := graph.Role(role)
		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			name := c.Name
			if c.RunOnce {
				name += " (once)"
			}
			names = append(names, name)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", role, strings.Join(names, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// Inventory writes the live membership of every group as JSON to w.
func (a *App) Inventory(ctx context.Context, w io.Writer) error {
	inv, err := a.Registry.ListGroups(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
	// Store is closed on exit so the instance's ephemeral nodes disappear promptly.
	Store ports.CoordinationStore
}
