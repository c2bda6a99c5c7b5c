// Package host resolves the identity an instance advertises to its group.
package host

import (
	"errors"
	"net"
	"os"
	"strings"

	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/ignite/internal/core/ports"
	"go.trai.ch/zerr"
)

// AddrLookup returns the addresses assigned to a named interface.
type AddrLookup func(name string) ([]net.Addr, error)

// InterfaceAddrs looks the interface up on the host.
func InterfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}

// Resolver implements ports.HostResolver.
type Resolver struct {
	hostname string
	lookup   AddrLookup
}

var _ ports.HostResolver = (*Resolver)(nil)

// NewResolver creates a Resolver. A non-empty hostname overrides os.Hostname.
func NewResolver(hostname string, lookup AddrLookup) *Resolver {
	if lookup == nil {
		lookup = InterfaceAddrs
	}
	return &Resolver{hostname: hostname, lookup: lookup}
}

// Hostname returns the short hostname of the instance.
func (r *Resolver) Hostname() (string, error) {
	if r.hostname != "" {
		return r.hostname, nil
	}
	name, err := os.Hostname()
	if err != nil {
		return "", zerr.Wrap(err, "failed to read hostname")
	}
	short, _, _ := strings.Cut(name, ".")
	return short, nil
}

// Addresses returns the first IPv4 address of each interface.
func (r *Resolver) Addresses(interfaces []string) (map[string]string, error) {
	out := make(map[string]string, len(interfaces))
	var errs []error
	for _, name := range interfaces {
		addrs, err := r.lookup(name)
		if err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(domain.ErrInterfaceNotFound, err.Error()), "interface", name))
			continue
		}
		ip := firstIPv4(addrs)
		if ip == "" {
			errs = append(errs, zerr.With(zerr.Wrap(domain.ErrInterfaceNotFound, "no address assigned"), "interface", name))
			continue
		}
		out[name] = ip
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func firstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
