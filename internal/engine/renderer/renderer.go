// Package renderer renders role configuration files from templates kept in the
// coordination store.
//
// Templates use Go template syntax against a map of variables. Every top-level
// name a template reads must be known before it renders: names missing from the
// base variables are waited for under variables/{name}, so a file is only written
// once the values it depends on have been published.
package renderer

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPollInterval is how often a missing variable is looked up again.
const DefaultPollInterval = 5 * time.Second

// Renderer renders templates once their variables are available.
type Renderer struct {
	store        ports.CoordinationStore
	logger       ports.Logger
	pollInterval time.Duration
	sleep        ports.SleepFunc
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPollInterval sets how often missing variables are polled.
func WithPollInterval(d time.Duration) Option {
	return func(r *Renderer) {
		r.pollInterval = d
	}
}

// WithSleep replaces the function used to wait between polls.
func WithSleep(sleep ports.SleepFunc) Option {
	return func(r *Renderer) {
		r.sleep = sleep
	}
}

// New creates a Renderer.
func New(store ports.CoordinationStore, logger ports.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		store:        store,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		sleep:        ports.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderedFile is a file spec together with its rendered content.
type RenderedFile struct {
	Spec    domain.FileSpec
	Content []byte
}

// Render renders config/{role}/{name} with base plus any variables it has to wait for.
// base is not modified.
func (r *Renderer) Render(ctx context.Context, role, name string, base map[string]any) ([]byte, error) {
	p := domain.TemplatePath(role, name)
	raw, ok, err := r.store.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "cannot render "+name), "path", p)
	}

	tmpl, err := template.New(name).Funcs(Funcs()).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateParseFailed.Error()), "path", p)
	}

	data := make(map[string]any, len(base))
	for k, v := range base {
		data[k] = v
	}
	for _, v := range Variables(tmpl) {
		if _, ok := data[v]; ok {
			continue
		}
		value, err := r.await(ctx, v, p)
		if err != nil {
			return nil, err
		}
		data[v] = value
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateRenderFailed.Error()), "path", p)
	}
	return buf.Bytes(), nil
}

// await polls variables/{name} until it exists. An empty value counts as present.
func (r *Renderer) await(ctx context.Context, name, source string) (string, error) {
	p := domain.VariablePath(name)
	for {
		value, ok, err := r.store.Get(ctx, p)
		if err != nil {
			return "", err
		}
		if ok {
			return string(value), nil
		}
		r.logger.Warn("waiting for variable " + name + " used by " + source)
		if err := r.sleep(ctx, r.pollInterval); err != nil {
			return "", err
		}
	}
}

// RenderAll renders files one after the other, in order. A file waiting on a
// variable holds back the ones after it.
func (r *Renderer) RenderAll(ctx context.Context, role string, files []domain.FileSpec, base map[string]any) ([]RenderedFile, error) {
	out := make([]RenderedFile, 0, len(files))
	for _, f := range files {
		content, err := r.Render(ctx, role, f.TemplateName(), base)
		if err != nil {
			return nil, zerr.With(err, "file", f.Name)
		}
		out = append(out, RenderedFile{Spec: f, Content: content})
	}
	return out, nil
}
