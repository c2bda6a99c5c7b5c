package renderer

import (
	"context"
	"maps"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
)

// Identity is what an instance knows about itself when it renders its files.
type Identity struct {
	Deployment string
	Role       string
	Hostname   string
	Addresses  map[string]string
	// Ordinal is the group ordinal, 0 when the instance did not register.
	Ordinal int
}

// BaseVariables builds the variables every template can use without waiting.
func BaseVariables(id Identity, inv domain.Inventory) map[string]any {
	groups := make(map[string]any, len(inv.Groups))
	for name, hosts := range inv.Groups {
		groups[name] = append([]string(nil), hosts...)
	}

	hostvars := make(map[string]any, len(inv.HostVars))
	for host, m := range inv.HostVars {
		hostvars[host] = memberVars(m)
	}

	addresses := make(map[string]string, len(id.Addresses))
	maps.Copy(addresses, id.Addresses)

	return map[string]any{
		"groups":     groups,
		"hostvars":   hostvars,
		"hostname":   id.Hostname,
		"addresses":  addresses,
		"role":       id.Role,
		"deployment": id.Deployment,
		"ordinal":    id.Ordinal,
	}
}

func memberVars(m domain.Member) map[string]any {
	addresses := make(map[string]string, len(m.Addresses))
	maps.Copy(addresses, m.Addresses)
	return map[string]any{
		"addresses": addresses,
		"hostname":  m.Hostname,
		"role":      m.Role,
		"ordinal":   m.Ordinal,
	}
}

// Provisioner implements ports.Provisioner: it renders a role's files against the
// current inventory and installs them.
type Provisioner struct {
	renderer  *Renderer
	registry  ports.GroupRegistry
	installer ports.Installer
	logger    ports.Logger
	identity  Identity
}

var _ ports.Provisioner = (*Provisioner)(nil)

// NewProvisioner creates a Provisioner for the instance described by id.
func NewProvisioner(
	renderer *Renderer,
	registry ports.GroupRegistry,
	installer ports.Installer,
	logger ports.Logger,
	id Identity,
) *Provisioner {
	return &Provisioner{
		renderer:  renderer,
		registry:  registry,
		installer: installer,
		logger:    logger,
		identity:  id,
	}
}

// Provision renders every file and installs those whose content changed.
func (p *Provisioner) Provision(ctx context.Context, role string, files []domain.FileSpec) error {
	if len(files) == 0 {
		return nil
	}

	inv, err := p.registry.ListGroups(ctx)
	if err != nil {
		return err
	}
	rendered, err := p.renderer.RenderAll(ctx, role, files, BaseVariables(p.identity, inv))
	if err != nil {
		return err
	}

	for _, f := range rendered {
		changed, err := p.installer.Install(ctx, f.Spec, f.Content)
		if err != nil {
			return err
		}
		if changed {
			p.logger.Info("installed " + f.Spec.Dest)
		} else {
			p.logger.Debug(f.Spec.Dest + " unchanged")
		}
	}
	return nil
}
